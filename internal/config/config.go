package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage provider names
const (
	StorageProviderDrive = "drive"
	StorageProviderMinio = "minio"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout     string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	App struct {
		BaseURL string `yaml:"base_url" env:"APP_BASE_URL"`
	} `yaml:"app"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
	} `yaml:"redis"`

	Auth struct {
		JWKSURL          string `yaml:"jwks_url" env:"CLERK_JWKS_URL"`
		Issuer           string `yaml:"issuer" env:"CLERK_ISSUER"`
		Leeway           string `yaml:"leeway" env:"CLERK_JWT_LEEWAY"`
		JWKSRefresh      string `yaml:"jwks_refresh" env:"CLERK_JWKS_REFRESH"`
		StateSecret      string `yaml:"state_secret" env:"OAUTH_STATE_SECRET"`
		StateTTL         string `yaml:"state_ttl" env:"OAUTH_STATE_TTL"`
		SchedulerToken   string `yaml:"scheduler_token_hash" env:"SCHEDULER_TOKEN_HASH"`
		AdminBootstrapID string `yaml:"admin_bootstrap_id" env:"ADMIN_BOOTSTRAP_CLERK_ID"`
	} `yaml:"auth"`

	Storage struct {
		Provider string `yaml:"provider" env:"STORAGE_PROVIDER"`
		Timeout  string `yaml:"timeout" env:"STORAGE_TIMEOUT"`
	} `yaml:"storage"`

	Google struct {
		ClientID            string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
		ClientSecret        string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
		RedirectURI         string `yaml:"redirect_uri" env:"GOOGLE_REDIRECT_URI"`
		RefreshToken        string `yaml:"refresh_token" env:"GOOGLE_REFRESH_TOKEN"`
		AccessToken         string `yaml:"access_token" env:"GOOGLE_ACCESS_TOKEN"`
		ServiceAccountEmail string `yaml:"service_account_email" env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
		PrivateKey          string `yaml:"private_key" env:"GOOGLE_PRIVATE_KEY"`
		FolderID            string `yaml:"folder_id" env:"GOOGLE_DRIVE_FOLDER_ID"`
		ShareWithLink       bool   `yaml:"share_with_link" env:"GOOGLE_DRIVE_SHARE_WITH_LINK"`
		APIBaseURL          string `yaml:"api_base_url" env:"GOOGLE_DRIVE_API_BASE_URL"`
		UploadBaseURL       string `yaml:"upload_base_url" env:"GOOGLE_DRIVE_UPLOAD_BASE_URL"`
	} `yaml:"google"`

	Minio struct {
		Endpoint      string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey     string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
		SecretKey     string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
		Bucket        string `yaml:"bucket" env:"MINIO_BUCKET"`
		Region        string `yaml:"region" env:"MINIO_REGION"`
		UseSSL        bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
		PresignExpiry string `yaml:"presign_expiry" env:"MINIO_PRESIGN_EXPIRY"`
	} `yaml:"minio"`

	Sweeper struct {
		RejectedTTL         string `yaml:"rejected_ttl" env:"SWEEPER_REJECTED_TTL"`
		LockTTL             string `yaml:"lock_ttl" env:"SWEEPER_LOCK_TTL"`
		RemoteDeleteTimeout string `yaml:"remote_delete_timeout" env:"SWEEPER_REMOTE_DELETE_TIMEOUT"`
	} `yaml:"sweeper"`

	RateLimit struct {
		LikesPerWindow int    `yaml:"likes_per_window" env:"RATE_LIMIT_LIKES"`
		Window         string `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	} `yaml:"rate_limit"`

	Cache struct {
		CatalogSize int    `yaml:"catalog_size" env:"CACHE_CATALOG_SIZE"`
		CatalogTTL  string `yaml:"catalog_ttl" env:"CACHE_CATALOG_TTL"`
		UserSize    int    `yaml:"user_size" env:"CACHE_USER_SIZE"`
		UserTTL     string `yaml:"user_ttl" env:"CACHE_USER_TTL"`
	} `yaml:"cache"`

	Seed struct {
		DefaultCatalog bool `yaml:"default_catalog" env:"SEED_DEFAULT_CATALOG"`
	} `yaml:"seed"`

	Health struct {
		ServiceID     string `yaml:"service_id" env:"DEPHEALTH_SERVICE_ID"`
		Group         string `yaml:"group" env:"DEPHEALTH_GROUP"`
		CheckInterval string `yaml:"check_interval" env:"DEPHEALTH_CHECK_INTERVAL"`
		Enabled       bool   `yaml:"enabled" env:"DEPHEALTH_ENABLED"`
	} `yaml:"health"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// PEM keys arrive from env files with literal \n sequences.
	config.Google.PrivateKey = strings.ReplaceAll(config.Google.PrivateKey, `\n`, "\n")

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "10s"
	config.Server.WriteTimeout = "60s"
	config.Server.ShutdownTimeout = "10s"

	config.App.BaseURL = "http://localhost:3000"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "notesphere"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.AutoMigrate = true

	config.Redis.Prefix = "notesphere"

	config.Auth.Leeway = "30s"
	config.Auth.JWKSRefresh = "1h"
	config.Auth.StateTTL = "10m"

	config.Storage.Provider = StorageProviderDrive
	config.Storage.Timeout = "30s"

	config.Minio.Bucket = "notes"
	config.Minio.Region = "us-east-1"
	config.Minio.PresignExpiry = "15m"

	config.Sweeper.RejectedTTL = "48h"
	config.Sweeper.LockTTL = "10m"
	config.Sweeper.RemoteDeleteTimeout = "10s"

	config.RateLimit.LikesPerWindow = 30
	config.RateLimit.Window = "1m"

	config.Cache.CatalogSize = 64
	config.Cache.CatalogTTL = "5m"
	config.Cache.UserSize = 1024
	config.Cache.UserTTL = "1m"

	config.Health.ServiceID = "notesphere-api"
	config.Health.Group = "notesphere"
	config.Health.CheckInterval = "15s"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.Auth.JWKSURL == "" {
		return fmt.Errorf("identity provider JWKS URL is required")
	}

	if config.Auth.StateSecret == "" {
		return fmt.Errorf("OAuth state secret is required")
	}

	switch config.Storage.Provider {
	case StorageProviderDrive:
	case StorageProviderMinio:
		if config.Minio.Endpoint == "" {
			return fmt.Errorf("minio endpoint is required when storage provider is minio")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", config.Storage.Provider)
	}

	if _, err := url.Parse(config.App.BaseURL); err != nil {
		return fmt.Errorf("invalid app base URL: %w", err)
	}

	durations := map[string]string{
		"server read timeout":     config.Server.ReadTimeout,
		"server write timeout":    config.Server.WriteTimeout,
		"server shutdown timeout": config.Server.ShutdownTimeout,
		"database conn lifetime":  config.Database.ConnMaxLifetime,
		"jwt leeway":              config.Auth.Leeway,
		"jwks refresh":            config.Auth.JWKSRefresh,
		"oauth state ttl":         config.Auth.StateTTL,
		"storage timeout":         config.Storage.Timeout,
		"minio presign expiry":    config.Minio.PresignExpiry,
		"sweeper rejected ttl":    config.Sweeper.RejectedTTL,
		"sweeper lock ttl":        config.Sweeper.LockTTL,
		"sweeper remote delete":   config.Sweeper.RemoteDeleteTimeout,
		"rate limit window":       config.RateLimit.Window,
		"catalog cache ttl":       config.Cache.CatalogTTL,
		"user cache ttl":          config.Cache.UserTTL,
		"dephealth interval":      config.Health.CheckInterval,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	return c.postgresURL("postgres")
}

// GetMigrationURL returns the connection string in the form golang-migrate's pgx5 driver expects
func (c *Config) GetMigrationURL() string {
	return c.postgresURL("pgx5")
}

func (c *Config) postgresURL(scheme string) string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
