package identity

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// DefaultProfile is assigned at registration so the profile set is never
// empty for a fresh account.
const DefaultProfile = ProfileStudent

// NewAccountOption customizes account construction.
type NewAccountOption func(*Account)

// WithDeterministicID derives the account id from the normalized email, so
// re-registration attempts for the same address map to the same identity.
func WithDeterministicID() NewAccountOption {
	return func(a *Account) {
		if id, err := hashid.NewUUID(a.Email); err == nil {
			a.ID = id
		}
	}
}

// WithFullName sets the display name at registration.
func WithFullName(name string) NewAccountOption {
	return func(a *Account) {
		a.FullName = name
	}
}

// NewAccount builds an unverified, active account with the default profile,
// the given password hash, and a fresh single-use verification token.
func NewAccount(email, username, passwordHash string, opts ...NewAccountOption) (*Account, error) {
	if passwordHash == "" {
		return nil, ErrNoEmptyPassword
	}

	token := uuid.NewString()
	account := &Account{
		ID:                uuid.New(),
		Email:             normalizeIdentifier(email),
		Username:          normalizeIdentifier(username),
		PasswordHash:      passwordHash,
		Verified:          false,
		Active:            true,
		VerificationToken: &token,
		Profiles:          []ProfileName{DefaultProfile},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(account)
		}
	}

	return account, nil
}

// MarkVerified flips the verified flag exactly once and consumes the
// verification token. A second call fails: the code no longer exists.
func (a *Account) MarkVerified() error {
	if a.Verified || a.VerificationToken == nil {
		return withMetadata(ErrAlreadyVerified, map[string]any{
			"account_id": a.ID.String(),
		})
	}

	a.Verified = true
	a.VerificationToken = nil
	return nil
}

// RegenerateVerificationToken issues a new single-use code for accounts
// that never confirmed, e.g. to re-send the verification email.
func (a *Account) RegenerateVerificationToken() (string, error) {
	if a.Verified {
		return "", withMetadata(ErrAlreadyVerified, map[string]any{
			"account_id": a.ID.String(),
		})
	}

	token := uuid.NewString()
	a.VerificationToken = &token
	return token, nil
}

// ChangePassword re-authenticates the caller against the stored hash and
// replaces it. The stored hash is untouched on any failure.
func (a *Account) ChangePassword(hasher PasswordAuthenticator, current, newPassword, confirmation string) error {
	if err := hasher.Compare(current, a.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	if newPassword != confirmation {
		return ErrPasswordMismatch
	}

	hash, err := hasher.Hash(newPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	a.PasswordHash = hash
	return nil
}

// Deactivate soft-disables the account. Authorization is the caller's
// responsibility; see LacksPermission.
func (a *Account) Deactivate() {
	a.Active = false
}

// Reactivate returns a deactivated account to active state.
func (a *Account) Reactivate() {
	a.Active = true
}

// GrantProfile adds a profile to the set. Granting an already assigned
// profile is a no-op.
func (a *Account) GrantProfile(p ProfileName) error {
	if !p.IsValid() {
		return withMetadata(ErrUnknownProfile, map[string]any{
			"profile": string(p),
		})
	}

	if a.HasProfile(p) {
		return nil
	}

	a.Profiles = append(a.Profiles, p)
	return nil
}

// RevokeProfile removes a profile from the set. Revoking the last profile
// is permitted; the account simply holds no capabilities afterwards.
func (a *Account) RevokeProfile(p ProfileName) error {
	if !p.IsValid() {
		return withMetadata(ErrUnknownProfile, map[string]any{
			"profile": string(p),
		})
	}

	kept := a.Profiles[:0]
	for _, assigned := range a.Profiles {
		if assigned != p {
			kept = append(kept, assigned)
		}
	}
	a.Profiles = kept
	return nil
}

// ProfileEdit carries the editable display fields. Nil fields are left
// untouched; identity fields (email, username) are not editable here.
type ProfileEdit struct {
	FullName  *string `json:"full_name,omitempty"`
	MiniBio   *string `json:"mini_bio,omitempty"`
	Biography *string `json:"biography,omitempty"`
}

// EditProfile updates display fields only.
func (a *Account) EditProfile(edit ProfileEdit) {
	if edit.FullName != nil {
		a.FullName = *edit.FullName
	}
	if edit.MiniBio != nil {
		a.MiniBio = *edit.MiniBio
	}
	if edit.Biography != nil {
		a.Biography = *edit.Biography
	}
}
