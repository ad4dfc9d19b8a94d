package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/server"
	"github.com/techagentng/aquawatch/services"
	"go.uber.org/zap"
)

var (
	conf   *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aquawatch",
	Short: "AquaWatch water issue reporting API",
	Long: `AquaWatch collects citizen reports of water issues, lets collectors claim
and resolve them, and rewards both with conservation points.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if conf.Debug {
			logger, err = zap.NewDevelopment()
		} else {
			zapConfig := zap.NewProductionConfig()
			logger, err = zapConfig.Build()
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  serve,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db.GetDB(conf)
		logger.Info("migrations applied", zap.String("driver", conf.DBDriver))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demonstration fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := db.SeedFixtures(cmd.Context(), db.GetDB(conf))
		if err != nil {
			return err
		}
		logger.Info("database seeded",
			zap.Int("users", summary.Users),
			zap.Int("reports", summary.Reports),
			zap.Int("offers", summary.Offers),
			zap.Int("transactions", summary.Transactions),
			zap.Int("notifications", summary.Notifications))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	gormDB := db.GetDB(conf)

	authRepo := db.NewAuthRepo(gormDB)
	notificationRepo := db.NewNotificationRepo(gormDB)

	imageStore, err := services.NewImageStore(ctx, conf)
	if err != nil {
		return err
	}
	analysisService, err := services.NewAnalysisService(ctx, conf, logger)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if conf.RedisURL != "" {
		opts, err := redis.ParseURL(conf.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	notificationService := services.NewNotificationService(notificationRepo, logger)

	s := &server.Server{
		Config:              conf,
		DB:                  gormDB,
		Logger:              logger,
		AuthRepository:      authRepo,
		IdentityService:     services.NewIdentityService(authRepo, conf, logger),
		ReportService:       services.NewReportService(gormDB, imageStore, conf, logger),
		AnalysisService:     analysisService,
		CollectionService:   services.NewCollectionService(gormDB, notificationService, conf, logger),
		RewardService:       services.NewRewardService(gormDB, notificationService, conf, logger),
		NotificationService: notificationService,
		OAuthConfig:         server.NewGoogleOAuthConfig(conf),
		Redis:               redisClient,
	}
	return s.Start(ctx)
}
