package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
)

func TestResolveUserCreatesOnFirstSight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.identity.ResolveUser(ctx, models.ExternalIdentity{
		ProviderID: "google-123",
		Email:      "  Ada@Example.com ",
		Name:       "Ada",
		AvatarURL:  "https://img.example.com/ada.png",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "google-123", user.ProviderID)

	again, err := env.identity.ResolveUser(ctx, models.ExternalIdentity{ProviderID: "google-123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	fetched, err := env.identity.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", fetched.Name)
}

func TestResolveUserLinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	existing := env.user(t, "grace@example.com")

	user, err := env.identity.ResolveUser(ctx, models.ExternalIdentity{
		ProviderID: "google-456",
		Email:      "Grace@example.com",
		AvatarURL:  "https://img.example.com/grace.png",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "google-456", user.ProviderID)
	assert.Equal(t, "https://img.example.com/grace.png", user.AvatarURL)
}

func TestResolveUserDefaultsNameToMailbox(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.identity.ResolveUser(context.Background(), models.ExternalIdentity{Email: "linus@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "linus", user.Name)
}

func TestResolveUserWithoutEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.identity.ResolveUser(context.Background(), models.ExternalIdentity{ProviderID: "google-789", Name: "Nobody"})
	assert.ErrorIs(t, err, errs.ErrMissingEmail)

	_, err = env.identity.GetUser(context.Background(), 1)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
