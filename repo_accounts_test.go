package identity_test

import (
	"context"
	"testing"

	identity "github.com/forumhub/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountsCreateAppliesDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, &identity.Account{
		Email:        "  Mixed.Case@Example.COM ",
		Username:     "MixedCase",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	assert.Equal(t, "mixed.case@example.com", created.Email)
	assert.Equal(t, "mixedcase", created.Username)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, []identity.ProfileName{identity.DefaultProfile}, created.Profiles)
}

func TestAccountsFindByEmailOrUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account, err := identity.NewAccount("user@example.com", "alice", "hash")
	require.NoError(t, err)

	_, err = repo.Register(ctx, account)
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
	}{
		{"by email", "user@example.com"},
		{"by email mixed case", "User@Example.COM"},
		{"by username", "alice"},
		{"by username mixed case", "ALICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByEmailOrUsername(ctx, tt.identifier, tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, account.ID, found.ID)
		})
	}

	_, err = repo.FindByEmailOrUsername(ctx, "ghost@example.com", "ghost")
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsFindByVerificationToken(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account, err := identity.NewAccount("user@example.com", "alice", "hash")
	require.NoError(t, err)
	code := *account.VerificationToken

	_, err = repo.Register(ctx, account)
	require.NoError(t, err)

	found, err := repo.FindByVerificationToken(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = repo.FindByVerificationToken(ctx, uuid.NewString())
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsFindActiveVerifiedByUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account, err := identity.NewAccount("user@example.com", "alice", "hash")
	require.NoError(t, err)

	_, err = repo.Register(ctx, account)
	require.NoError(t, err)

	// not verified yet
	_, err = repo.FindActiveVerifiedByUsername(ctx, "alice")
	assert.True(t, repository.IsRecordNotFound(err))

	require.NoError(t, account.MarkVerified())
	_, err = repo.Update(ctx, account, repository.UpdateByID(account.ID.String()))
	require.NoError(t, err)

	found, err := repo.FindActiveVerifiedByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
}
