package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
)

func TestMarkReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "a@example.com")

	n, err := env.notifications.Notify(ctx, user.ID, "hello", models.NotificationStatusUpdate)
	require.NoError(t, err)
	require.Len(t, env.unread(t, user.ID), 1)

	require.NoError(t, env.notifications.MarkRead(ctx, user.ID, n.ID))
	assert.Empty(t, env.unread(t, user.ID))

	require.NoError(t, env.notifications.MarkRead(ctx, user.ID, n.ID))
	assert.Empty(t, env.unread(t, user.ID))
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "a@example.com")
	other := env.user(t, "b@example.com")

	n, err := env.notifications.Notify(ctx, owner.ID, "hello", models.NotificationReward)
	require.NoError(t, err)

	err = env.notifications.MarkRead(ctx, other.ID, n.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Len(t, env.unread(t, owner.ID), 1)
}
