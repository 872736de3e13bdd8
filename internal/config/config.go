package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	HRIS    HRISConfig
	DB      DBConfig
	S3      S3Config
	Archive ArchiveConfig
	Log     LogConfig
	CORS    CORSConfig
	Batch   BatchConfig
	Intake  IntakeConfig
	Notify  NotifyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// HRISConfig holds the SQL Server connection used for the employee directory
// and the address parse procedure.
type HRISConfig struct {
	Host                   string        `mapstructure:"host"`
	Port                   int           `mapstructure:"port"`
	User                   string        `mapstructure:"user"`
	Password               string        `mapstructure:"password"`
	Database               string        `mapstructure:"database"`
	Encrypt                bool          `mapstructure:"encrypt"`
	TrustServerCertificate bool          `mapstructure:"trust_server_certificate"`
	ConnectionTimeout      time.Duration `mapstructure:"connection_timeout"`
	MaxOpen                int           `mapstructure:"max_open"`
	MaxIdle                int           `mapstructure:"max_idle"`
}

// DSN returns the sqlserver:// connection string.
func (h *HRISConfig) DSN() string {
	q := url.Values{}
	q.Set("database", h.Database)
	if h.Encrypt {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	q.Set("TrustServerCertificate", fmt.Sprintf("%t", h.TrustServerCertificate))
	q.Set("connection timeout", fmt.Sprintf("%d", int(h.ConnectionTimeout.Seconds())))

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(h.User, h.Password),
		Host:     fmt.Sprintf("%s:%d", h.Host, h.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// DBConfig holds PostgreSQL connection settings for the application database.
// The application database only stores export audit records.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// ArchiveConfig controls whether exports are kept in S3 with an audit row.
// Archiving requires both the app database and S3.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BatchConfig holds settings for batch sessions and the sequential parse driver.
type BatchConfig struct {
	PaceDelay       time.Duration `mapstructure:"pace_delay"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	MaxItems        int           `mapstructure:"max_items"`
}

// IntakeConfig holds limits for imported files.
type IntakeConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxFileBytes returns the upload limit in bytes.
func (i *IntakeConfig) MaxFileBytes() int64 {
	return i.MaxFileSizeMB * 1024 * 1024
}

// NotifyConfig holds batch completion notification settings.
type NotifyConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// Load reads configuration from environment variables with the ADDRPARSER_
// prefix. A .env file (or the file named by ADDRPARSER_ENV_FILE) is loaded
// first when present; variables already set in the environment win.
func Load() (*Config, error) {
	envFile := os.Getenv("ADDRPARSER_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix("ADDRPARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// HRIS defaults
	v.SetDefault("hris.host", "localhost")
	v.SetDefault("hris.port", 1433)
	v.SetDefault("hris.user", "sa")
	v.SetDefault("hris.password", "")
	v.SetDefault("hris.database", "HRIS")
	v.SetDefault("hris.encrypt", false)
	v.SetDefault("hris.trust_server_certificate", true)
	v.SetDefault("hris.connection_timeout", "30s")
	v.SetDefault("hris.max_open", 10)
	v.SetDefault("hris.max_idle", 5)

	// App DB defaults
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "addrparser")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "addrparser")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.region", "ap-southeast-1")
	v.SetDefault("s3.bucket", "addrparser-exports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.key_prefix", "exports")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Batch defaults
	v.SetDefault("batch.pace_delay", "100ms")
	v.SetDefault("batch.call_timeout", "30s")
	v.SetDefault("batch.session_ttl", "2h")
	v.SetDefault("batch.janitor_interval", "5m")
	v.SetDefault("batch.max_items", 5000)

	// Intake defaults
	v.SetDefault("intake.max_file_size_mb", 10)

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "ap-southeast-1")
	v.SetDefault("notify.from_address", "noreply@example.com")
	v.SetDefault("notify.from_name", "Address Parser")
	v.SetDefault("notify.recipients", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "ADDRPARSER_SERVER_PORT",
		"server.read_timeout":           "ADDRPARSER_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "ADDRPARSER_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":       "ADDRPARSER_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":            "ADDRPARSER_SERVER_ENVIRONMENT",
		"hris.host":                     "ADDRPARSER_HRIS_HOST",
		"hris.port":                     "ADDRPARSER_HRIS_PORT",
		"hris.user":                     "ADDRPARSER_HRIS_USER",
		"hris.password":                 "ADDRPARSER_HRIS_PASSWORD",
		"hris.database":                 "ADDRPARSER_HRIS_DATABASE",
		"hris.encrypt":                  "ADDRPARSER_HRIS_ENCRYPT",
		"hris.trust_server_certificate": "ADDRPARSER_HRIS_TRUST_SERVER_CERTIFICATE",
		"hris.connection_timeout":       "ADDRPARSER_HRIS_CONNECTION_TIMEOUT",
		"hris.max_open":                 "ADDRPARSER_HRIS_MAX_OPEN",
		"hris.max_idle":                 "ADDRPARSER_HRIS_MAX_IDLE",
		"db.enabled":                    "ADDRPARSER_DB_ENABLED",
		"db.host":                       "ADDRPARSER_DB_HOST",
		"db.port":                       "ADDRPARSER_DB_PORT",
		"db.user":                       "ADDRPARSER_DB_USER",
		"db.password":                   "ADDRPARSER_DB_PASSWORD",
		"db.name":                       "ADDRPARSER_DB_NAME",
		"db.sslmode":                    "ADDRPARSER_DB_SSLMODE",
		"db.max_open":                   "ADDRPARSER_DB_MAX_OPEN",
		"db.max_idle":                   "ADDRPARSER_DB_MAX_IDLE",
		"s3.region":                     "ADDRPARSER_S3_REGION",
		"s3.bucket":                     "ADDRPARSER_S3_BUCKET",
		"s3.endpoint":                   "ADDRPARSER_S3_ENDPOINT",
		"s3.access_key":                 "ADDRPARSER_S3_ACCESS_KEY",
		"s3.secret_key":                 "ADDRPARSER_S3_SECRET_KEY",
		"s3.presign_expiry":             "ADDRPARSER_S3_PRESIGN_EXPIRY",
		"archive.enabled":               "ADDRPARSER_ARCHIVE_ENABLED",
		"archive.key_prefix":            "ADDRPARSER_ARCHIVE_KEY_PREFIX",
		"log.level":                     "ADDRPARSER_LOG_LEVEL",
		"log.format":                    "ADDRPARSER_LOG_FORMAT",
		"log.file":                      "ADDRPARSER_LOG_FILE",
		"log.max_size_mb":               "ADDRPARSER_LOG_MAX_SIZE_MB",
		"log.max_backups":               "ADDRPARSER_LOG_MAX_BACKUPS",
		"log.max_age_days":              "ADDRPARSER_LOG_MAX_AGE_DAYS",
		"log.compress":                  "ADDRPARSER_LOG_COMPRESS",
		"cors.allowed_origins":          "ADDRPARSER_CORS_ALLOWED_ORIGINS",
		"batch.pace_delay":              "ADDRPARSER_BATCH_PACE_DELAY",
		"batch.call_timeout":            "ADDRPARSER_BATCH_CALL_TIMEOUT",
		"batch.session_ttl":             "ADDRPARSER_BATCH_SESSION_TTL",
		"batch.janitor_interval":        "ADDRPARSER_BATCH_JANITOR_INTERVAL",
		"batch.max_items":               "ADDRPARSER_BATCH_MAX_ITEMS",
		"intake.max_file_size_mb":       "ADDRPARSER_INTAKE_MAX_FILE_SIZE_MB",
		"notify.provider":               "ADDRPARSER_NOTIFY_PROVIDER",
		"notify.region":                 "ADDRPARSER_NOTIFY_REGION",
		"notify.from_address":           "ADDRPARSER_NOTIFY_FROM_ADDRESS",
		"notify.from_name":              "ADDRPARSER_NOTIFY_FROM_NAME",
		"notify.recipients":             "ADDRPARSER_NOTIFY_RECIPIENTS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if ADDRPARSER_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ADDRPARSER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.HRIS = HRISConfig{
		Host:                   v.GetString("hris.host"),
		Port:                   v.GetInt("hris.port"),
		User:                   v.GetString("hris.user"),
		Password:               v.GetString("hris.password"),
		Database:               v.GetString("hris.database"),
		Encrypt:                v.GetBool("hris.encrypt"),
		TrustServerCertificate: v.GetBool("hris.trust_server_certificate"),
		ConnectionTimeout:      v.GetDuration("hris.connection_timeout"),
		MaxOpen:                v.GetInt("hris.max_open"),
		MaxIdle:                v.GetInt("hris.max_idle"),
	}
	cfg.DB = DBConfig{
		Enabled:  v.GetBool("db.enabled"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Archive = ArchiveConfig{
		Enabled:   v.GetBool("archive.enabled"),
		KeyPrefix: v.GetString("archive.key_prefix"),
	}
	cfg.Log = LogConfig{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAgeDays: v.GetInt("log.max_age_days"),
		Compress:   v.GetBool("log.compress"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Batch = BatchConfig{
		PaceDelay:       v.GetDuration("batch.pace_delay"),
		CallTimeout:     v.GetDuration("batch.call_timeout"),
		SessionTTL:      v.GetDuration("batch.session_ttl"),
		JanitorInterval: v.GetDuration("batch.janitor_interval"),
		MaxItems:        v.GetInt("batch.max_items"),
	}
	cfg.Intake = IntakeConfig{
		MaxFileSizeMB: v.GetInt64("intake.max_file_size_mb"),
	}
	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		Recipients:  splitList(v.GetString("notify.recipients")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Archive.Enabled && !c.DB.Enabled {
		return errors.New("archive.enabled requires db.enabled")
	}
	if c.Batch.PaceDelay < 0 {
		return fmt.Errorf("batch.pace_delay must not be negative, got %s", c.Batch.PaceDelay)
	}
	if c.Batch.MaxItems <= 0 {
		return fmt.Errorf("batch.max_items must be positive, got %d", c.Batch.MaxItems)
	}
	switch c.Notify.Provider {
	case "noop", "ses":
	default:
		return fmt.Errorf("notify.provider must be noop or ses, got %q", c.Notify.Provider)
	}
	return nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
