package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/yourusername/shipledger/models"
	"github.com/yourusername/shipledger/repository"
	"github.com/yourusername/shipledger/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Port             string
	DatabaseURL      string
	Env              string
	LogLevel         string
	JWTSecret        string
	JWTRefreshSecret string
	Username         string
	Password         string
	Issuer           models.Client
	S3               utils.S3Config
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	issuerName := getEnvOrDefault("ISSUER_CLIENT", string(models.ClientATaPorte))
	issuer, ok := models.ParseClient(issuerName)
	if !ok {
		return nil, fmt.Errorf("ISSUER_CLIENT %q is not a known client", issuerName)
	}

	useSSL, err := strconv.ParseBool(getEnvOrDefault("S3_USE_SSL", "true"))
	if err != nil {
		return nil, fmt.Errorf("S3_USE_SSL: %w", err)
	}

	return &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Env:              getEnvOrDefault("APP_ENV", "production"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		Username:         os.Getenv("APP_USERNAME"),
		Password:         os.Getenv("APP_PASSWORD"),
		Issuer:           issuer,
		S3: utils.S3Config{
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:          os.Getenv("S3_BUCKET"),
			UseSSL:          useSSL,
			Region:          os.Getenv("S3_REGION"),
			Prefix:          getEnvOrDefault("S3_PREFIX", "invoices"),
		},
	}, nil
}

// Validate reports every setting the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	} else if c.JWTRefreshSecret == c.JWTSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}
	if c.Username == "" || c.Password == "" {
		errs = append(errs, errors.New("APP_USERNAME and APP_PASSWORD are required"))
	}
	return errors.Join(errs...)
}

// ArchiveEnabled reports whether invoice PDFs should be uploaded.
func (c *Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.S3.Endpoint) != "" && strings.TrimSpace(c.S3.Bucket) != ""
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
