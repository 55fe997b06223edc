package identity

import (
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestNewAccountDefaults(t *testing.T) {
	account, err := NewAccount("  User@Example.COM ", "Alice", "hashed-secret")
	if err != nil {
		t.Fatalf("NewAccount returned error: %v", err)
	}

	if account.Email != "user@example.com" {
		t.Fatalf("email not normalized, got %q", account.Email)
	}

	if account.Username != "alice" {
		t.Fatalf("username not normalized, got %q", account.Username)
	}

	if account.Verified {
		t.Fatal("fresh account must not be verified")
	}

	if !account.Active {
		t.Fatal("fresh account must be active")
	}

	if account.VerificationToken == nil || *account.VerificationToken == "" {
		t.Fatal("fresh account must carry a verification token")
	}

	if len(account.Profiles) != 1 || account.Profiles[0] != DefaultProfile {
		t.Fatalf("expected default profile set, got %v", account.Profiles)
	}

	if account.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
}

func TestNewAccountRejectsEmptyHash(t *testing.T) {
	if _, err := NewAccount("user@example.com", "alice", ""); err == nil {
		t.Fatal("expected error for empty password hash")
	}
}

func TestNewAccountDeterministicID(t *testing.T) {
	first, err := NewAccount("same@example.com", "alice", "hash", WithDeterministicID())
	if err != nil {
		t.Fatalf("NewAccount returned error: %v", err)
	}

	second, err := NewAccount("Same@Example.com", "other", "hash", WithDeterministicID())
	if err != nil {
		t.Fatalf("NewAccount returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected identical ids for the same email, got %s and %s", first.ID, second.ID)
	}
}

func TestMarkVerifiedConsumesToken(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash")

	if err := account.MarkVerified(); err != nil {
		t.Fatalf("first verification failed: %v", err)
	}

	if !account.Verified {
		t.Fatal("account should be verified")
	}

	if account.VerificationToken != nil {
		t.Fatal("verification token should be consumed")
	}

	if err := account.MarkVerified(); err == nil {
		t.Fatal("second verification must fail")
	}
}

func TestRegenerateVerificationToken(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash")
	before := *account.VerificationToken

	token, err := account.RegenerateVerificationToken()
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}

	if token == before {
		t.Fatal("expected a new token")
	}

	if err := account.MarkVerified(); err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	if _, err := account.RegenerateVerificationToken(); err == nil {
		t.Fatal("verified account must not get a new token")
	}
}

func TestChangePassword(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("original-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	account, _ := NewAccount("user@example.com", "alice", hash)

	t.Run("wrong current password", func(t *testing.T) {
		err := account.ChangePassword(hasher, "not-the-password", "new-password", "new-password")
		if err == nil {
			t.Fatal("expected failure for wrong current password")
		}
		if account.PasswordHash != hash {
			t.Fatal("stored hash must be untouched on failure")
		}
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := account.ChangePassword(hasher, "original-pass", "new-password", "different")
		if err == nil {
			t.Fatal("expected failure for confirmation mismatch")
		}
		if account.PasswordHash != hash {
			t.Fatal("stored hash must be untouched on failure")
		}
	})

	t.Run("success", func(t *testing.T) {
		if err := account.ChangePassword(hasher, "original-pass", "new-password", "new-password"); err != nil {
			t.Fatalf("change failed: %v", err)
		}
		if account.PasswordHash == hash {
			t.Fatal("stored hash should have been replaced")
		}
		if err := hasher.Compare("new-password", account.PasswordHash); err != nil {
			t.Fatalf("new password does not validate: %v", err)
		}
	})
}

func TestDeactivateReactivate(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash")

	account.Deactivate()
	if account.Active {
		t.Fatal("account should be inactive")
	}

	account.Reactivate()
	if !account.Active {
		t.Fatal("account should be active again")
	}
}

func TestGrantProfile(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash")

	if err := account.GrantProfile(ProfileName("ghost")); err == nil {
		t.Fatal("unknown profile must be rejected")
	}

	if err := account.GrantProfile(ProfileModerator); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	if err := account.GrantProfile(ProfileModerator); err != nil {
		t.Fatalf("re-grant should be a no-op, got: %v", err)
	}

	if len(account.Profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %v", account.Profiles)
	}
}

func TestUnknownProfileKeepsSharedErrorClean(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash")

	if err := account.GrantProfile(ProfileName("ghost")); err == nil {
		t.Fatal("unknown profile must be rejected")
	}

	if ErrUnknownProfile.Metadata != nil {
		t.Fatalf("shared error var picked up metadata: %v", ErrUnknownProfile.Metadata)
	}
}

func TestRevokeProfile(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash")
	_ = account.GrantProfile(ProfileModerator)

	if err := account.RevokeProfile(ProfileModerator); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if account.HasProfile(ProfileModerator) {
		t.Fatal("moderator profile should be gone")
	}

	// removing the last profile leaves an empty, capability-free set
	if err := account.RevokeProfile(ProfileStudent); err != nil {
		t.Fatalf("revoking last profile failed: %v", err)
	}

	if len(account.Profiles) != 0 {
		t.Fatalf("expected empty profile set, got %v", account.Profiles)
	}

	if err := account.RevokeProfile(ProfileName("ghost")); err == nil {
		t.Fatal("unknown profile must be rejected")
	}
}

func TestEditProfilePartialUpdate(t *testing.T) {
	account, _ := NewAccount("user@example.com", "alice", "hash", WithFullName("Alice A."))
	account.MiniBio = "short bio"

	name := "Alice B."
	account.EditProfile(ProfileEdit{FullName: &name})

	if account.FullName != "Alice B." {
		t.Fatalf("full name not updated, got %q", account.FullName)
	}

	if account.MiniBio != "short bio" {
		t.Fatalf("mini bio should be untouched, got %q", account.MiniBio)
	}

	bio := "long form biography"
	empty := ""
	account.EditProfile(ProfileEdit{Biography: &bio, MiniBio: &empty})

	if account.Biography != bio || account.MiniBio != "" {
		t.Fatalf("unexpected edit result: %+v", account)
	}
}
