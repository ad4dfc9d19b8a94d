package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/models"
	"github.com/techagentng/aquawatch/services"
	"github.com/techagentng/aquawatch/services/jwt"
	"go.uber.org/zap"
)

const testSecret = "server-test-secret"

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  string          `json:"errors"`
	Status  string          `json:"status"`
}

type testServer struct {
	*Server
	router *gin.Engine
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	t.Setenv("GIN_MODE", "test")
	gin.SetMode(gin.TestMode)

	store, err := db.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := store.DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	conf := &config.Config{
		JWTSecret:     testSecret,
		UploadDir:     t.TempDir(),
		BaseUrl:       "http://localhost:8080",
		ReportReward:  10,
		CollectReward: 20,
	}
	if mutate != nil {
		mutate(conf)
	}

	logger := zap.NewNop()
	authRepo := db.NewAuthRepo(store)
	notifications := services.NewNotificationService(db.NewNotificationRepo(store), logger)
	s := &Server{
		Config:              conf,
		DB:                  store,
		Logger:              logger,
		AuthRepository:      authRepo,
		IdentityService:     services.NewIdentityService(authRepo, conf, logger),
		ReportService:       services.NewReportService(store, services.NewLocalImageStore(conf.UploadDir, conf.BaseUrl), conf, logger),
		AnalysisService:     mustAnalyzer(t, conf),
		CollectionService:   services.NewCollectionService(store, notifications, conf, logger),
		RewardService:       services.NewRewardService(store, notifications, conf, logger),
		NotificationService: notifications,
		OAuthConfig:         NewGoogleOAuthConfig(conf),
	}
	return &testServer{Server: s, router: s.setupRouter()}
}

func mustAnalyzer(t *testing.T, conf *config.Config) services.AnalysisService {
	t.Helper()
	analyzer, err := services.NewAnalysisService(context.Background(), conf, zap.NewNop())
	require.NoError(t, err)
	return analyzer
}

func (ts *testServer) user(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	user, err := ts.AuthRepository.CreateUser(context.Background(), &models.User{Email: email, Name: email})
	require.NoError(t, err)
	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, testSecret, 0)
	require.NoError(t, err)
	return user, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body []byte, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
