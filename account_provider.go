package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccountLookup is the slice of the store the provider needs to resolve
// login identifiers.
type AccountLookup interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*Account, error)
}

// AccountProvider resolves and verifies identities against the account
// store. It is the external authenticator of the identity service: only
// after VerifyIdentity succeeds does the caller ask for a session.
type AccountProvider struct {
	store  AccountLookup
	hasher PasswordAuthenticator
	logger Logger
}

var _ IdentityProvider = (*AccountProvider)(nil)

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store AccountLookup, hasher PasswordAuthenticator) *AccountProvider {
	return &AccountProvider{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity will find the account, compare the password, and return
// the identity. A lookup miss and a hash mismatch are indistinguishable to
// the caller so login cannot be used to probe for registered emails.
func (p *AccountProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	account, err := p.store.FindByEmailOrUsername(ctx, identifier, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if err := ensureAuthenticatable(account); err != nil {
		return nil, err
	}

	if err := p.hasher.Compare(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return identityFromAccount(account), nil
}

func (p *AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := p.store.FindByEmailOrUsername(ctx, identifier, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account")
	}

	if err := ensureAuthenticatable(account); err != nil {
		return nil, err
	}

	return identityFromAccount(account), nil
}

// ensureAuthenticatable enforces the login-eligible set: verified and
// active accounts only.
func ensureAuthenticatable(account *Account) error {
	if account == nil {
		return ErrAccountNotFound
	}

	if !account.Verified {
		return ErrAccountNotVerified
	}

	if !account.Active {
		return ErrAccountDeactivated
	}

	return nil
}

type accountIdentity struct {
	id       string
	username string
	email    string
	profiles []ProfileName
}

var _ Identity = accountIdentity{}

func identityFromAccount(account *Account) accountIdentity {
	profiles := make([]ProfileName, len(account.Profiles))
	copy(profiles, account.Profiles)

	return accountIdentity{
		id:       account.ID.String(),
		username: account.Username,
		email:    account.Email,
		profiles: profiles,
	}
}

func (a accountIdentity) ID() string {
	return a.id
}

func (a accountIdentity) Username() string {
	return a.username
}

func (a accountIdentity) Email() string {
	return a.email
}

func (a accountIdentity) Profiles() []ProfileName {
	return a.profiles
}
