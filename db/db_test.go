package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/aquawatch/models"
)

func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	g, err := NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := g.DB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return g
}

func createUser(t *testing.T, g *GormDB, email string) *models.User {
	t.Helper()
	user, err := NewAuthRepo(g).CreateUser(context.Background(), &models.User{Email: email, Name: email})
	require.NoError(t, err)
	return user
}

func createReport(t *testing.T, g *GormDB, userID uint) *models.Report {
	t.Helper()
	report, err := NewReportRepo(g).CreateReport(context.Background(), &models.Report{
		UserID:         userID,
		Location:       "Don River",
		WaterIssueType: "Pollution",
		Severity:       models.SeverityMedium,
		Description:    "Plastic waste along the bank",
	})
	require.NoError(t, err)
	return report
}
