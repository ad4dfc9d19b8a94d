package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/services"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Server holds the HTTP layer's dependencies.
type Server struct {
	Config              *config.Config
	DB                  *db.GormDB
	Logger              *zap.Logger
	AuthRepository      db.AuthRepository
	IdentityService     services.IdentityService
	ReportService       services.ReportService
	AnalysisService     services.AnalysisService
	CollectionService   services.CollectionService
	RewardService       services.RewardService
	NotificationService services.NotificationService
	OAuthConfig         *oauth2.Config
	Redis               *redis.Client
}

// Start serves the API until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      s.setupRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
