package db

import (
	"context"
	"fmt"
	"log"

	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	var err error
	switch c.DBDriver {
	case "sqlite":
		g.DB, err = openSQLite(c.SQLitePath, gormConfig(c))
	default:
		g.DB, err = getPostgresDB(c)
	}
	if err != nil {
		log.Fatalf("unable to connect to %s: %v", c.DBDriver, err)
	}

	if err := Migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

func gormConfig(c *config.Config) *gorm.Config {
	gormConfig := &gorm.Config{}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	return gormConfig
}

func getPostgresDB(c *config.Config) (*gorm.DB, error) {
	log.Printf("Connecting to postgres: host=%s db=%s", c.PostgresHost, c.PostgresDB)
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)

	return gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig(c))
}

func openSQLite(dsn string, conf *gorm.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(dsn), conf)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	return gormDB, nil
}

// NewSQLiteDB opens and migrates a sqlite database, e.g. "file::memory:".
func NewSQLiteDB(dsn string) (*GormDB, error) {
	gormDB, err := openSQLite(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(gormDB); err != nil {
		return nil, err
	}
	return &GormDB{DB: gormDB}, nil
}

// Transaction runs fn inside a database transaction bound to ctx. fn receives
// a GormDB scoped to the transaction so repositories built from it share it.
func (g *GormDB) Transaction(ctx context.Context, fn func(tx *GormDB) error) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormDB{DB: tx})
	})
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.RewardProfile{},
		&models.RewardOffer{},
		&models.Transaction{},
		&models.Notification{},
		&models.CollectedIssue{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}
	return nil
}
