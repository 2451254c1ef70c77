package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Cache backends.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config holds all configuration options for the bot
type Config struct {
	Database    DatabaseConfig
	Cache       CacheConfig
	Validation  ValidationConfig
	Display     DisplayConfig
	Server      ServerConfig
	Application ApplicationConfig
}

// DatabaseConfig holds durable store configuration
type DatabaseConfig struct {
	Driver         string        `env:"TASKBOT_DB_DRIVER" validate:"oneof=postgres sqlite"`
	URL            string        `env:"TASKBOT_DATABASE_URL" validate:"required_if=Driver postgres"`
	Dir            string        `env:"TASKBOT_DB_DIR" validate:"required_if=Driver sqlite"`
	Filename       string        `env:"TASKBOT_DB_FILENAME" validate:"required_if=Driver sqlite"`
	DirPermissions uint32        `env:"TASKBOT_DB_DIR_PERMISSIONS"`
	MaxConns       int32         `env:"TASKBOT_DB_MAX_CONNS" validate:"gte=0"`
	QueryTimeout   time.Duration `env:"TASKBOT_DB_QUERY_TIMEOUT" validate:"gt=0"`
	WriteTimeout   time.Duration `env:"TASKBOT_DB_WRITE_TIMEOUT" validate:"gt=0"`
	ConnectTimeout time.Duration `env:"TASKBOT_DB_CONNECT_TIMEOUT" validate:"gt=0"`
}

// CacheConfig holds task list cache configuration
type CacheConfig struct {
	Backend     string        `env:"TASKBOT_CACHE_BACKEND" validate:"oneof=redis memory none"`
	Addr        string        `env:"TASKBOT_REDIS_ADDR" validate:"required_if=Backend redis"`
	Password    string        `env:"TASKBOT_REDIS_PASSWORD"`
	DB          int           `env:"TASKBOT_REDIS_DB" validate:"gte=0"`
	KeyPrefix   string        `env:"TASKBOT_CACHE_PREFIX" validate:"required"`
	DialTimeout time.Duration `env:"TASKBOT_CACHE_DIAL_TIMEOUT" validate:"gt=0"`
	OpTimeout   time.Duration `env:"TASKBOT_CACHE_OP_TIMEOUT" validate:"gt=0"`
	TTL         time.Duration `env:"TASKBOT_CACHE_TTL" validate:"gte=0"`
}

// ValidationConfig holds input validation rules
type ValidationConfig struct {
	TaskTextMaxLength int `env:"TASKBOT_TASK_MAX_LENGTH" validate:"gte=1"`
}

// DisplayConfig holds reply formatting configuration
type DisplayConfig struct {
	ListTimeFormat   string `env:"TASKBOT_LIST_TIME_FORMAT" validate:"required"`
	ExportTimeFormat string `env:"TASKBOT_EXPORT_TIME_FORMAT" validate:"required"`
	Timezone         string `env:"TASKBOT_TIMEZONE" validate:"required"`
	DoneMark         string `env:"TASKBOT_DONE_MARK" validate:"required"`
	PendingMark      string `env:"TASKBOT_PENDING_MARK" validate:"required"`
	DoneLabel        string `env:"TASKBOT_DONE_LABEL" validate:"required"`
	PendingLabel     string `env:"TASKBOT_PENDING_LABEL" validate:"required"`
	ExportFilename   string `env:"TASKBOT_EXPORT_FILENAME" validate:"required"`
}

// ServerConfig holds webhook listener configuration
type ServerConfig struct {
	Addr            string        `env:"TASKBOT_LISTEN_ADDR" validate:"required"`
	ReadTimeout     time.Duration `env:"TASKBOT_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"TASKBOT_WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"TASKBOT_SHUTDOWN_TIMEOUT" validate:"gt=0"`
	// CORSOrigins lists browser origins allowed to call the webhook; empty disables CORS.
	CORSOrigins []string `env:"TASKBOT_CORS_ORIGINS" validate:"dive,required"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	LogLevel  string `env:"TASKBOT_LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"TASKBOT_LOG_FORMAT" validate:"oneof=text json"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			Dir:            filepath.Join(homeDir, ".taskbot"),
			Filename:       "taskbot.db",
			DirPermissions: 0755,
			MaxConns:       10,
			QueryTimeout:   10 * time.Second,
			WriteTimeout:   5 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:     CacheMemory,
			Addr:        "localhost:6379",
			KeyPrefix:   "tasks:",
			DialTimeout: 5 * time.Second,
			OpTimeout:   5 * time.Second,
		},
		Validation: ValidationConfig{
			TaskTextMaxLength: 4096,
		},
		Display: DisplayConfig{
			ListTimeFormat:   "2006-01-02 15:04",
			ExportTimeFormat: "2006-01-02 15:04:05",
			Timezone:         "Local",
			DoneMark:         "✅",
			PendingMark:      "✳️",
			DoneLabel:        "Done",
			PendingLabel:     "Not done",
			ExportFilename:   "tasks_export.csv",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Application: ApplicationConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// GetDatabasePath returns the full path to the SQLite database file
func (c *Config) GetDatabasePath() string {
	if c.Database.Filename == ":memory:" {
		return c.Database.Filename
	}
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// GetQueryTimeout returns the database query timeout
func (c *Config) GetQueryTimeout() time.Duration {
	return c.Database.QueryTimeout
}

// GetWriteTimeout returns the database write timeout
func (c *Config) GetWriteTimeout() time.Duration {
	return c.Database.WriteTimeout
}

// Location returns the display timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadFromEnvironment loads configuration from environment variables.
//
// The connection variables of the original deployment (DB_HOST, DB_PORT,
// DB_NAME, DB_USER, DB_PASS, REDIS_HOST, REDIS_PORT, REDIS_DB) are honoured
// and switch the defaults to postgres and redis. TASKBOT_* variables win.
func (c *Config) LoadFromEnvironment() error {
	c.loadLegacyEnvironment()

	// Database configuration
	if driver := os.Getenv("TASKBOT_DB_DRIVER"); driver != "" {
		c.Database.Driver = strings.ToLower(driver)
	}
	if dbURL := os.Getenv("TASKBOT_DATABASE_URL"); dbURL != "" {
		c.Database.URL = dbURL
		if os.Getenv("TASKBOT_DB_DRIVER") == "" {
			c.Database.Driver = DriverPostgres
		}
	}
	if dir := os.Getenv("TASKBOT_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TASKBOT_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if perms := os.Getenv("TASKBOT_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}
	if conns := os.Getenv("TASKBOT_DB_MAX_CONNS"); conns != "" {
		c.Database.MaxConns = int32(ParseIntWithFallback(conns, int(c.Database.MaxConns)))
	}
	if timeout := os.Getenv("TASKBOT_DB_QUERY_TIMEOUT"); timeout != "" {
		c.Database.QueryTimeout = ParseDurationWithFallback(timeout, c.Database.QueryTimeout)
	}
	if timeout := os.Getenv("TASKBOT_DB_WRITE_TIMEOUT"); timeout != "" {
		c.Database.WriteTimeout = ParseDurationWithFallback(timeout, c.Database.WriteTimeout)
	}
	if timeout := os.Getenv("TASKBOT_DB_CONNECT_TIMEOUT"); timeout != "" {
		c.Database.ConnectTimeout = ParseDurationWithFallback(timeout, c.Database.ConnectTimeout)
	}

	// Cache configuration
	if backend := os.Getenv("TASKBOT_CACHE_BACKEND"); backend != "" {
		c.Cache.Backend = strings.ToLower(backend)
	}
	if addr := os.Getenv("TASKBOT_REDIS_ADDR"); addr != "" {
		c.Cache.Addr = addr
	}
	if password := os.Getenv("TASKBOT_REDIS_PASSWORD"); password != "" {
		c.Cache.Password = password
	}
	if db := os.Getenv("TASKBOT_REDIS_DB"); db != "" {
		c.Cache.DB = ParseIntWithFallback(db, c.Cache.DB)
	}
	if prefix := os.Getenv("TASKBOT_CACHE_PREFIX"); prefix != "" {
		c.Cache.KeyPrefix = prefix
	}
	if timeout := os.Getenv("TASKBOT_CACHE_DIAL_TIMEOUT"); timeout != "" {
		c.Cache.DialTimeout = ParseDurationWithFallback(timeout, c.Cache.DialTimeout)
	}
	if timeout := os.Getenv("TASKBOT_CACHE_OP_TIMEOUT"); timeout != "" {
		c.Cache.OpTimeout = ParseDurationWithFallback(timeout, c.Cache.OpTimeout)
	}
	if ttl := os.Getenv("TASKBOT_CACHE_TTL"); ttl != "" {
		c.Cache.TTL = ParseDurationWithFallback(ttl, c.Cache.TTL)
	}

	// Validation configuration
	if maxLen := os.Getenv("TASKBOT_TASK_MAX_LENGTH"); maxLen != "" {
		c.Validation.TaskTextMaxLength = ParseIntWithFallback(maxLen, c.Validation.TaskTextMaxLength)
	}

	// Display configuration
	setString(&c.Display.ListTimeFormat, "TASKBOT_LIST_TIME_FORMAT")
	setString(&c.Display.ExportTimeFormat, "TASKBOT_EXPORT_TIME_FORMAT")
	setString(&c.Display.Timezone, "TASKBOT_TIMEZONE")
	setString(&c.Display.DoneMark, "TASKBOT_DONE_MARK")
	setString(&c.Display.PendingMark, "TASKBOT_PENDING_MARK")
	setString(&c.Display.DoneLabel, "TASKBOT_DONE_LABEL")
	setString(&c.Display.PendingLabel, "TASKBOT_PENDING_LABEL")
	setString(&c.Display.ExportFilename, "TASKBOT_EXPORT_FILENAME")

	// Server configuration
	setString(&c.Server.Addr, "TASKBOT_LISTEN_ADDR")
	if timeout := os.Getenv("TASKBOT_READ_TIMEOUT"); timeout != "" {
		c.Server.ReadTimeout = ParseDurationWithFallback(timeout, c.Server.ReadTimeout)
	}
	if timeout := os.Getenv("TASKBOT_WRITE_TIMEOUT"); timeout != "" {
		c.Server.WriteTimeout = ParseDurationWithFallback(timeout, c.Server.WriteTimeout)
	}
	if timeout := os.Getenv("TASKBOT_SHUTDOWN_TIMEOUT"); timeout != "" {
		c.Server.ShutdownTimeout = ParseDurationWithFallback(timeout, c.Server.ShutdownTimeout)
	}
	if origins := os.Getenv("TASKBOT_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = SplitList(origins)
	}

	// Application configuration
	if level := os.Getenv("TASKBOT_LOG_LEVEL"); level != "" {
		c.Application.LogLevel = strings.ToLower(level)
	}
	if format := os.Getenv("TASKBOT_LOG_FORMAT"); format != "" {
		c.Application.LogFormat = strings.ToLower(format)
	}

	return nil
}

// SplitList splits a comma separated value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) loadLegacyEnvironment() {
	if host := os.Getenv("DB_HOST"); host != "" {
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		dsn := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(host, port),
			Path:   "/" + os.Getenv("DB_NAME"),
		}
		if user := os.Getenv("DB_USER"); user != "" {
			if pass, ok := os.LookupEnv("DB_PASS"); ok {
				dsn.User = url.UserPassword(user, pass)
			} else {
				dsn.User = url.User(user)
			}
		}
		c.Database.Driver = DriverPostgres
		c.Database.URL = dsn.String()
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		c.Cache.Backend = CacheRedis
		c.Cache.Addr = net.JoinHostPort(host, port)
		if db := os.Getenv("REDIS_DB"); db != "" {
			c.Cache.DB = ParseIntWithFallback(db, c.Cache.DB)
		}
	}
}

// validate caches struct metadata between calls.
var validate = validator.New()

// Validate validates the configuration and returns the first problem as a *ConfigError
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigError{
				Field:   fieldName(fe.Namespace()),
				Message: describe(fe),
			}
		}
		return &ConfigError{Field: "config", Message: err.Error()}
	}

	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return &ConfigError{Field: "display.timezone", Message: "unknown timezone " + strconv.Quote(c.Display.Timezone)}
	}
	if c.Database.Driver == DriverPostgres {
		if _, err := url.Parse(c.Database.URL); err != nil {
			return &ConfigError{Field: "database.url", Message: "database url is not a valid URL"}
		}
	}
	return nil
}

// fieldName turns "Config.Database.QueryTimeout" into "database.querytimeout".
func fieldName(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "value is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gt":
		return "must be positive"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
