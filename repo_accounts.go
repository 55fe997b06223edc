package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the store contract the identity service depends on. The
// backing database is responsible for uniqueness enforcement and for
// serializing concurrent mutations of a single account row.
type Accounts interface {
	repository.Repository[*Account]

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)

	FindByEmailOrUsername(ctx context.Context, email, username string) (*Account, error)
	FindByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*Account, error)
	FindByVerificationToken(ctx context.Context, code string) (*Account, error)
	FindByVerificationTokenTx(ctx context.Context, tx bun.IDB, code string) (*Account, error)
	FindActiveVerifiedByUsername(ctx context.Context, username string) (*Account, error)
	FindActiveVerifiedByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	return a.CreateTx(ctx, tx, account)
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accounts) FindByEmailOrUsername(ctx context.Context, email, username string) (*Account, error) {
	return a.FindByEmailOrUsernameTx(ctx, a.db, email, username)
}

// FindByEmailOrUsernameTx resolves an account by either identifier,
// case-insensitively. Used for the registration uniqueness check and for
// login, where a single identifier probes both columns.
func (a *accounts) FindByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.email) = ?", normalizeIdentifier(email)).
		WhereOr("LOWER(?TableAlias.username) = ?", normalizeIdentifier(username)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"email":    email,
				"username": username,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) FindByVerificationToken(ctx context.Context, code string) (*Account, error) {
	return a.FindByVerificationTokenTx(ctx, a.db, code)
}

func (a *accounts) FindByVerificationTokenTx(ctx context.Context, tx bun.IDB, code string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.verification_token = ?", code).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"verification_token": code,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) FindActiveVerifiedByUsername(ctx context.Context, username string) (*Account, error) {
	return a.FindActiveVerifiedByUsernameTx(ctx, a.db, username)
}

// FindActiveVerifiedByUsernameTx backs the public profile lookup:
// deactivated and unverified rows are invisible even though they exist.
func (a *accounts) FindActiveVerifiedByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.username) = ?", normalizeIdentifier(username)).
		Where("?TableAlias.is_verified = ?", true).
		Where("?TableAlias.is_active = ?", true).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"username": username,
			})
		}
		return nil, err
	}

	return record, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = normalizeIdentifier(record.Email)
	record.Username = normalizeIdentifier(record.Username)

	if len(record.Profiles) == 0 {
		record.Profiles = []ProfileName{DefaultProfile}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
