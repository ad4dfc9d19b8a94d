package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug            bool          `envconfig:"debug"`
	Port             int           `envconfig:"port" default:"8080"`
	Env              string        `envconfig:"env" default:"dev"`
	BaseUrl          string        `envconfig:"base_url"`
	DBDriver         string        `envconfig:"db_driver" default:"postgres"`
	PostgresHost     string        `envconfig:"postgres_host"`
	PostgresUser     string        `envconfig:"postgres_user"`
	PostgresDB       string        `envconfig:"postgres_db"`
	PostgresPort     int           `envconfig:"postgres_port" default:"5432"`
	PostgresPassword string        `envconfig:"postgres_password"`
	PostgresSSLMode  string        `envconfig:"postgres_sslmode" default:"disable"`
	SQLitePath       string        `envconfig:"sqlite_path" default:"aquawatch.db"`
	JWTSecret        string        `envconfig:"jwt_secret"`
	TokenTTL         time.Duration `envconfig:"token_ttl" default:"24h"`

	GoogleClientID     string `envconfig:"google_client_id"`
	GoogleClientSecret string `envconfig:"google_client_secret"`
	GoogleRedirectURL  string `envconfig:"google_redirect_url"`

	GeminiApiKey string `envconfig:"gemini_api_key"`
	GeminiModel  string `envconfig:"gemini_model" default:"gemini-2.0-flash"`

	AWSRegion          string `envconfig:"aws_region"`
	AWSBucket          string `envconfig:"aws_bucket"`
	AWSAccessKeyID     string `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey string `envconfig:"aws_secret_access_key"`
	UploadDir          string `envconfig:"upload_dir" default:"uploads"`

	ReportReward  int `envconfig:"report_reward" default:"10"`
	CollectReward int `envconfig:"collect_reward" default:"20"`

	SeedEnabled  bool     `envconfig:"seed_enabled"`
	AllowOrigins []string `envconfig:"allow_origins"`
	RedisURL     string   `envconfig:"redis_url"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("aquawatch", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UsesS3 reports whether report images go to S3 rather than the local upload dir.
func (c *Config) UsesS3() bool {
	return c.AWSBucket != "" && c.AWSRegion != ""
}
