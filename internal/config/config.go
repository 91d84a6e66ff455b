package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Email     EmailConfig     `yaml:"email"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	Log       LogConfig       `yaml:"log"`
	Rentals   RentalsConfig   `yaml:"rentals"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// StorageConfig selects the entity store backing. Notifications may live in a
// different store; empty means the same driver as everything else.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Notifications string `yaml:"notifications"`
	AutoMigrate   bool   `yaml:"auto_migrate"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type EmailConfig struct {
	Provider string `yaml:"provider"` // "log", "smtp" or "sendgrid"
	FromName string `yaml:"from_name"`
	// AdminAlerts receives integrity alerts from the nightly jobs. Empty disables them.
	AdminAlerts string `yaml:"admin_alerts"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// AdminConfig is the single back-office account. PasswordHash is bcrypt.
type AdminConfig struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RentalsConfig holds the calendar rules of the rental engine.
type RentalsConfig struct {
	Timezone           string `yaml:"timezone"`
	OverdueGraceDays   int    `yaml:"overdue_grace_days"`
	ReturnReminderDays int    `yaml:"return_reminder_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	InProcess            bool   `yaml:"in_process"`
	SendPaymentReminders string `yaml:"send_payment_reminders"`
	SendReturnReminders  string `yaml:"send_return_reminders"`
	AuditBookings        string `yaml:"audit_bookings"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory is applied first when present; real environment variables win
// over both. An empty configPath builds the config from defaults and the
// environment alone.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	// Storage
	envString("STORAGE_DRIVER", &c.Storage.Driver)
	envString("NOTIFICATION_STORE", &c.Storage.Notifications)
	envBool("AUTO_MIGRATE", &c.Storage.AutoMigrate)

	// Database
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	// Mongo
	envString("MONGO_URI", &c.Mongo.URI)
	envString("MONGO_DATABASE", &c.Mongo.Database)

	// Email
	envString("EMAIL_PROVIDER", &c.Email.Provider)
	envString("ADMIN_ALERT_EMAIL", &c.Email.AdminAlerts)
	envString("SMTP_HOST", &c.SMTP.Host)
	envInt("SMTP_PORT", &c.SMTP.Port)
	envString("SMTP_USER", &c.SMTP.User)
	envString("SMTP_PASSWORD", &c.SMTP.Password)
	envString("SMTP_FROM", &c.SMTP.From)
	envString("SENDGRID_API_KEY", &c.SendGrid.APIKey)
	envString("SENDGRID_FROM_EMAIL", &c.SendGrid.FromEmail)

	// JWT and admin login
	envString("JWT_SECRET", &c.JWT.Secret)
	envString("ADMIN_EMAIL", &c.Admin.Email)
	envString("ADMIN_PASSWORD_HASH", &c.Admin.PasswordHash)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	// Rentals
	envString("RENTALS_TIMEZONE", &c.Rentals.Timezone)
	envInt("OVERDUE_GRACE_DAYS", &c.Rentals.OverdueGraceDays)

	// Scheduler
	envBool("SCHEDULER_IN_PROCESS", &c.Scheduler.InProcess)
}

// Validate applies defaults and checks if the configuration is valid
func (c *Config) Validate() error {
	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Storage
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Driver != DriverMemory && c.Storage.Driver != DriverPostgres {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	c.Storage.Notifications = strings.ToLower(c.Storage.Notifications)
	if c.Storage.Notifications == "" {
		c.Storage.Notifications = c.Storage.Driver
	}
	switch c.Storage.Notifications {
	case DriverMemory, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unknown notification store %q", c.Storage.Notifications)
	}

	// Database
	if c.usesPostgres() {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}

	// Mongo
	if c.Storage.Notifications == DriverMongo {
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is required for the mongo notification store")
		}
		if c.Mongo.Database == "" {
			c.Mongo.Database = "velorent"
		}
		if c.Mongo.Collection == "" {
			c.Mongo.Collection = "notifications"
		}
	}

	// Email
	c.Email.Provider = strings.ToLower(c.Email.Provider)
	if c.Email.Provider == "" {
		c.Email.Provider = "log"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Velorent"
	}
	switch c.Email.Provider {
	case "log":
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	case "sendgrid":
		if c.SendGrid.APIKey == "" {
			return fmt.Errorf("SendGrid API key is required")
		}
		if c.SendGrid.FromEmail == "" {
			return fmt.Errorf("SendGrid sender address is required")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}

	// JWT
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Admin
	if c.Admin.Email == "" {
		return fmt.Errorf("admin email is required")
	}
	if c.Admin.PasswordHash == "" {
		return fmt.Errorf("admin password hash is required")
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Rentals
	if c.Rentals.Timezone == "" {
		c.Rentals.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Rentals.Timezone); err != nil {
		return fmt.Errorf("invalid rentals timezone %q: %w", c.Rentals.Timezone, err)
	}
	if c.Rentals.OverdueGraceDays < 0 {
		return fmt.Errorf("overdue grace days cannot be negative")
	}
	if c.Rentals.ReturnReminderDays <= 0 {
		c.Rentals.ReturnReminderDays = 1
	}

	// Scheduler defaults
	if c.Scheduler.SendPaymentReminders == "" {
		c.Scheduler.SendPaymentReminders = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 8 * * *" // Daily at 8 AM
	}
	if c.Scheduler.AuditBookings == "" {
		c.Scheduler.AuditBookings = "0 30 2 * * *" // Daily at 2:30 AM
	}

	return nil
}

func (c *Config) usesPostgres() bool {
	return c.Storage.Driver == DriverPostgres || c.Storage.Notifications == DriverPostgres
}

// Location is the time zone that decides which calendar day "today" is.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Rentals.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SenderAddress is the From address of the configured email provider.
func (c *Config) SenderAddress() string {
	if c.Email.Provider == "sendgrid" {
		return c.SendGrid.FromEmail
	}
	return c.SMTP.From
}
