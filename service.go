package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IdentityService orchestrates the account lifecycle, token issuance, and
// the capability gate. Each public operation runs to completion on the
// calling goroutine inside a single transaction.
type IdentityService struct {
	repo     RepositoryManager
	hasher   PasswordAuthenticator
	tokens   TokenService
	notifier Notifier
	logger   Logger
}

// NewIdentityService wires the orchestrator. Hasher and token service are
// constructed once at process start and passed in; nothing is looked up
// from package state.
func NewIdentityService(repo RepositoryManager, hasher PasswordAuthenticator, tokens TokenService) *IdentityService {
	return &IdentityService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		notifier: NoopNotifier{},
		logger:   defLogger{},
	}
}

func (s *IdentityService) WithLogger(logger Logger) *IdentityService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithNotifier configures the verification email collaborator.
func (s *IdentityService) WithNotifier(notifier Notifier) *IdentityService {
	s.notifier = normalizeNotifier(notifier)
	return s
}

type RegisterAccountMessage struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (m RegisterAccountMessage) Type() string { return "account.register" }

// Validate will run validation rules
func (m RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(
			&m.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&m.Username,
			validation.Required,
			validation.Length(3, 60),
		),
		validation.Field(
			&m.Password,
			validation.Required,
			validation.Length(8, 72),
		),
	)
}

// Register creates an unverified, active account with the default profile
// and fires the verification email. Email and username uniqueness is
// checked case-insensitively inside the transaction.
func (s *IdentityService) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration data")
	}

	var account *Account
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.repo.Accounts().FindByEmailOrUsernameTx(ctx, tx, msg.Email, msg.Username)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}
		if existing != nil {
			return withMetadata(ErrDuplicateIdentity, map[string]any{
				"email":    msg.Email,
				"username": msg.Username,
			})
		}

		hash, err := s.hasher.Hash(msg.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		opts := []NewAccountOption{WithFullName(msg.FullName)}
		if msg.UseHashid {
			opts = append(opts, WithDeterministicID())
		}

		record, err := NewAccount(msg.Email, msg.Username, hash, opts...)
		if err != nil {
			return err
		}

		if account, err = s.repo.Accounts().RegisterTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		return nil, asRichError(err, "account registration transaction failed")
	}

	// best-effort side effect, never rolls back registration
	if err := s.notifier.SendVerificationEmail(ctx, account); err != nil {
		s.logger.Warn("failed to send verification email to %s: %v", account.Email, err)
	}

	return account, nil
}

// ConfirmVerification consumes a single-use verification code. An unknown
// or already consumed code fails as not found.
func (s *IdentityService) ConfirmVerification(ctx context.Context, code string) (*Account, error) {
	var account *Account

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Accounts().FindByVerificationTokenTx(ctx, tx, code)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return withMetadata(ErrAccountNotFound, map[string]any{
					"verification_token": code,
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account by verification code")
		}

		if err := record.MarkVerified(); err != nil {
			return err
		}

		if err := s.saveTx(ctx, tx, record); err != nil {
			return err
		}

		account = record
		return nil
	})

	if err != nil {
		return nil, asRichError(err, "account verification transaction failed")
	}

	return account, nil
}

// IssueSession mints the access+refresh pair for an identity an external
// authenticator already verified. Credential checking is not repeated here.
func (s *IdentityService) IssueSession(ctx context.Context, identity Identity) (TokenPair, error) {
	if identity == nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.tokens.IssuePair(identity.ID())
}

// RefreshSession verifies the refresh token, re-derives a fresh account
// snapshot from the store, and mints a new pair. Deactivation and
// verification state are re-checked here, not baked into the token.
func (s *IdentityService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, error) {
	subject, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	account, err := s.repo.Accounts().GetByID(ctx, subject)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return TokenPair{}, withMetadata(ErrAccountNotFound, map[string]any{
				"subject": subject,
			})
		}
		return TokenPair{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during refresh")
	}

	if err := ensureAuthenticatable(account); err != nil {
		return TokenPair{}, err
	}

	return s.tokens.IssuePair(account.ID.String())
}

type ChangePasswordMessage struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Confirmation    string `json:"confirmation"`
}

func (m ChangePasswordMessage) Type() string { return "account.change_password" }

// Validate will run validation rules
func (m ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(
			&m.CurrentPassword,
			validation.Required,
		),
		validation.Field(
			&m.NewPassword,
			validation.Required,
			validation.Length(8, 72),
		),
		validation.Field(
			&m.Confirmation,
			validation.Required,
		),
	)
}

// ChangePassword re-authenticates the actor and replaces their hash.
func (s *IdentityService) ChangePassword(ctx context.Context, actor *Account, msg ChangePasswordMessage) error {
	if actor == nil {
		return ErrAccountNotFound
	}

	if err := msg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password change data")
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := actor.ChangePassword(s.hasher, msg.CurrentPassword, msg.NewPassword, msg.Confirmation); err != nil {
			return err
		}

		return s.saveTx(ctx, tx, actor)
	})

	if err != nil {
		return asRichError(err, "password change transaction failed")
	}

	return nil
}

// Deactivate disables the target account. The actor must hold the
// account-management capability; the check runs before any mutation.
func (s *IdentityService) Deactivate(ctx context.Context, actor *Account, targetID uuid.UUID) error {
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target, err := s.getByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}

		if LacksPermission(actor, target, CapabilityManageAccounts) {
			return withMetadata(ErrPermissionDenied, map[string]any{
				"target_id": targetID.String(),
			})
		}

		target.Deactivate()
		return s.saveTx(ctx, tx, target)
	})

	if err != nil {
		return asRichError(err, "account deactivation transaction failed")
	}

	return nil
}

// Reactivate returns a deactivated account to active state.
func (s *IdentityService) Reactivate(ctx context.Context, targetID uuid.UUID) error {
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target, err := s.getByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}

		target.Reactivate()
		return s.saveTx(ctx, tx, target)
	})

	if err != nil {
		return asRichError(err, "account reactivation transaction failed")
	}

	return nil
}

// GrantProfile adds a profile to the target account's set.
func (s *IdentityService) GrantProfile(ctx context.Context, targetID uuid.UUID, profile ProfileName) (*Account, error) {
	return s.mutateProfiles(ctx, targetID, func(target *Account) error {
		return target.GrantProfile(profile)
	})
}

// RevokeProfile removes a profile from the target account's set.
func (s *IdentityService) RevokeProfile(ctx context.Context, targetID uuid.UUID, profile ProfileName) (*Account, error) {
	return s.mutateProfiles(ctx, targetID, func(target *Account) error {
		return target.RevokeProfile(profile)
	})
}

func (s *IdentityService) mutateProfiles(ctx context.Context, targetID uuid.UUID, mutate func(*Account) error) (*Account, error) {
	var account *Account

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target, err := s.getByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}

		if err := mutate(target); err != nil {
			return err
		}

		if err := s.saveTx(ctx, tx, target); err != nil {
			return err
		}

		account = target
		return nil
	})

	if err != nil {
		return nil, asRichError(err, "profile mutation transaction failed")
	}

	return account, nil
}

// EditProfile updates the actor's editable display fields.
func (s *IdentityService) EditProfile(ctx context.Context, actor *Account, edit ProfileEdit) (*Account, error) {
	if actor == nil {
		return nil, ErrAccountNotFound
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		actor.EditProfile(edit)
		return s.saveTx(ctx, tx, actor)
	})

	if err != nil {
		return nil, asRichError(err, "profile edit transaction failed")
	}

	return actor, nil
}

// LookupPublicProfile resolves a username for public display. Unverified
// and deactivated accounts fail as not found even though the row exists.
func (s *IdentityService) LookupPublicProfile(ctx context.Context, username string) (*Account, error) {
	account, err := s.repo.Accounts().FindActiveVerifiedByUsername(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, withMetadata(ErrAccountNotFound, map[string]any{
				"username": username,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve public profile")
	}

	return account, nil
}

func (s *IdentityService) getByIDTx(ctx context.Context, tx bun.Tx, id uuid.UUID) (*Account, error) {
	account, err := s.repo.Accounts().GetByIDTx(ctx, tx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, withMetadata(ErrAccountNotFound, map[string]any{
				"account_id": id.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}
	return account, nil
}

func (s *IdentityService) saveTx(ctx context.Context, tx bun.Tx, account *Account) error {
	if _, err := s.repo.Accounts().UpdateTx(ctx, tx, account, repository.UpdateByID(account.ID.String())); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account")
	}
	return nil
}

func asRichError(err error, msg string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
