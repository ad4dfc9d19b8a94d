package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/aquawatch/db"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
)

func TestClaimAndResolveScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")

	report := env.report(t, reporter.ID)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Nil(t, report.CollectorID)

	claimed, err := env.collection.ClaimReport(ctx, report.ID, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInProgress, claimed.Status)
	require.NotNil(t, claimed.CollectorID)
	assert.Equal(t, collector.ID, *claimed.CollectorID)

	reporterInbox := env.unread(t, reporter.ID)
	require.Len(t, reporterInbox, 1)
	assert.Equal(t, models.NotificationStatusUpdate, reporterInbox[0].Type)
	assert.Contains(t, reporterInbox[0].Message, "water conservation specialist")

	before, err := env.rewards.GetBalance(ctx, collector.ID)
	require.NoError(t, err)

	payload := json.RawMessage(`{"notes":"debris removed","photos":2}`)
	resolved, err := env.collection.ResolveReport(ctx, report.ID, collector.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.CollectorID)
	assert.Equal(t, collector.ID, *resolved.CollectorID)
	assert.JSONEq(t, string(payload), string(resolved.VerificationResult))

	after, err := env.rewards.GetBalance(ctx, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, before+20, after)

	collectorInbox := env.unread(t, collector.ID)
	require.Len(t, collectorInbox, 1)
	assert.Equal(t, models.NotificationReward, collectorInbox[0].Type)
	assert.Equal(t, "You've earned 20 points for resolving water issue!", collectorInbox[0].Message)

	ledger := env.transactions(t, collector.ID)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.TransactionEarnedCollect, ledger[0].Kind)
	assert.Equal(t, 20, ledger[0].Amount)

	assert.Len(t, env.unread(t, reporter.ID), 1, "reporter gets only the claim notification")

	issues, err := env.collection.ListCollected(ctx, collector.ID)
	require.NoError(t, err)
	assert.Len(t, issues, 2)
}

func TestClaimRequiresPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	report := env.report(t, reporter.ID)

	_, err := env.collection.ClaimReport(ctx, report.ID, collector.ID)
	require.NoError(t, err)
	_, err = env.collection.ResolveReport(ctx, report.ID, collector.ID, nil)
	require.NoError(t, err)

	_, err = env.collection.ClaimReport(ctx, report.ID, collector.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	got, err := db.NewReportRepo(env.store).GetReportByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, got.Status, "a failed claim must not regress the report")

	_, err = env.collection.ClaimReport(ctx, 9999, collector.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestResolveTwiceAwardsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	report := env.report(t, reporter.ID)

	_, err := env.collection.ClaimReport(ctx, report.ID, collector.ID)
	require.NoError(t, err)
	_, err = env.collection.ResolveReport(ctx, report.ID, collector.ID, nil)
	require.NoError(t, err)

	_, err = env.collection.ResolveReport(ctx, report.ID, collector.ID, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	balance, err := env.rewards.GetBalance(ctx, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, balance)
	assert.Len(t, env.transactions(t, collector.ID), 1)
}

func TestResolveByAnotherCollectorWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	intruder := env.user(t, "c@example.com")
	report := env.report(t, reporter.ID)

	_, err := env.collection.ClaimReport(ctx, report.ID, collector.ID)
	require.NoError(t, err)

	_, err = env.collection.ResolveReport(ctx, report.ID, intruder.ID, nil)
	assert.ErrorIs(t, err, errs.ErrCollectorMismatch)
	assert.Empty(t, env.transactions(t, intruder.ID))
	assert.Empty(t, env.unread(t, intruder.ID))

	got, err := db.NewReportRepo(env.store).GetReportByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInProgress, got.Status)
}

func TestResolvePendingReportFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	report := env.report(t, reporter.ID)

	_, err := env.collection.ResolveReport(ctx, report.ID, collector.ID, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Empty(t, env.transactions(t, collector.ID))
}

func TestResolveRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	report := env.report(t, reporter.ID)
	_, err := env.collection.ClaimReport(ctx, report.ID, collector.ID)
	require.NoError(t, err)

	_, err = env.collection.ResolveReport(ctx, report.ID, collector.ID, json.RawMessage(`{"broken"`))
	require.Error(t, err)
	assert.Equal(t, 400, errs.StatusOf(err))
}

func TestNotificationFailureDoesNotUndoWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	report := env.report(t, reporter.ID)

	collection := NewCollectionService(env.store, failingNotifications{env.notifications}, env.conf, zap.NewNop())

	claimed, err := collection.ClaimReport(ctx, report.ID, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInProgress, claimed.Status)

	resolved, err := collection.ResolveReport(ctx, report.ID, collector.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)

	balance, err := env.rewards.GetBalance(ctx, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, balance)
}

func TestListAvailableTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.user(t, "a@example.com")
	collector := env.user(t, "b@example.com")
	first := env.report(t, reporter.ID)
	env.report(t, reporter.ID)

	tasks, err := env.collection.ListAvailableTasks(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = env.collection.ClaimReport(ctx, first.ID, collector.ID)
	require.NoError(t, err)

	tasks, err = env.collection.ListAvailableTasks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.NotEqual(t, first.ID, tasks[0].ID)
}
