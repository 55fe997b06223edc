package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileName is a role assignable to an account. The set is closed:
// operations reject names outside the enum instead of comparing strings.
type ProfileName string

const (
	// ProfileStudent is the default profile every account starts with
	ProfileStudent ProfileName = "student"
	// ProfileModerator can moderate forum content
	ProfileModerator ProfileName = "moderator"
	// ProfileAdmin can administer other accounts
	ProfileAdmin ProfileName = "admin"
)

// IsValid checks if the profile is one of the predefined valid profiles
func (p ProfileName) IsValid() bool {
	switch p {
	case ProfileStudent, ProfileModerator, ProfileAdmin:
		return true
	default:
		return false
	}
}

// AllProfiles returns all predefined profiles
func AllProfiles() []ProfileName {
	return []ProfileName{
		ProfileStudent,
		ProfileModerator,
		ProfileAdmin,
	}
}

// ParseProfile safely parses a string into a ProfileName
func ParseProfile(s string) (ProfileName, bool) {
	p := ProfileName(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// Capability is a named permission granted by one or more profiles.
type Capability string

const (
	// CapabilityManageAccounts authorizes administrative operations on
	// other accounts (deactivation, profile grants)
	CapabilityManageAccounts Capability = "accounts:manage"
	// CapabilityModerateContent authorizes forum moderation actions
	CapabilityModerateContent Capability = "content:moderate"
)

var profileCapabilities = map[ProfileName][]Capability{
	ProfileStudent:   nil,
	ProfileModerator: {CapabilityModerateContent},
	ProfileAdmin:     {CapabilityManageAccounts, CapabilityModerateContent},
}

// Grants checks if the profile carries the given capability
func (p ProfileName) Grants(c Capability) bool {
	for _, granted := range profileCapabilities[p] {
		if granted == c {
			return true
		}
	}
	return false
}

// Account is the identity aggregate. Email and username are unique
// case-insensitively; both are stored normalized to lower case.
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string        `bun:"email,notnull,unique" json:"email,omitempty"`
	Username          string        `bun:"username,notnull,unique" json:"username,omitempty"`
	FullName          string        `bun:"full_name" json:"full_name,omitempty"`
	MiniBio           string        `bun:"mini_bio" json:"mini_bio,omitempty"`
	Biography         string        `bun:"biography" json:"biography,omitempty"`
	PasswordHash      string        `bun:"password_hash,notnull" json:"-"`
	Verified          bool          `bun:"is_verified" json:"is_verified,omitempty"`
	Active            bool          `bun:"is_active" json:"is_active,omitempty"`
	VerificationToken *string       `bun:"verification_token,nullzero" json:"-"`
	Profiles          []ProfileName `bun:"profiles" json:"profiles,omitempty"`
	CreatedAt         *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasProfile checks set membership over the profile set
func (a *Account) HasProfile(p ProfileName) bool {
	for _, assigned := range a.Profiles {
		if assigned == p {
			return true
		}
	}
	return false
}

// HasCapability checks whether any assigned profile grants the capability
func (a *Account) HasCapability(c Capability) bool {
	for _, assigned := range a.Profiles {
		if assigned.Grants(c) {
			return true
		}
	}
	return false
}

func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
