package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when required settings are missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultEnvFile is the env file read when no explicit path is given.
const DefaultEnvFile = ".env"

// Supported values for the enumerated settings.
var (
	ValidSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}
	ValidDrivers  = []string{DriverPGX, DriverPostgres, DriverSQLX}
	ValidFormats  = []string{"text", "json", "yaml", "table"}
)

// libpqSSLModes lists the modes lib/pq implements; it has no fallback modes.
var libpqSSLModes = []string{"disable", "require", "verify-ca", "verify-full"}

// Driver names accepted in DB_DRIVER.
const (
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLX     = "sqlx"
)

// Config represents the root configuration structure
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Format     string           `mapstructure:"format"`
	LogFile    string           `mapstructure:"log_file"`
	Debug      bool             `mapstructure:"debug"`
	Quiet      bool             `mapstructure:"quiet"`
}

// ConnectionConfig holds database connection parameters
type ConnectionConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Driver   string `mapstructure:"driver"`
}

// binding ties a viper key to the environment variable that feeds it.
type binding struct {
	key      string
	env      string
	required bool
}

var bindings = []binding{
	{key: "connection.host", env: "DB_HOST", required: true},
	{key: "connection.port", env: "DB_PORT", required: true},
	{key: "connection.database", env: "DB_NAME", required: true},
	{key: "connection.user", env: "DB_USER", required: true},
	{key: "connection.password", env: "DB_PASSWORD", required: true},
	{key: "connection.sslmode", env: "DB_SSLMODE"},
	{key: "connection.driver", env: "DB_DRIVER"},
	{key: "format", env: "PGREAD_FORMAT"},
	{key: "log_file", env: "PGREAD_LOG_FILE"},
}

// Load loads configuration from the environment and ./.env.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from the process environment and the given env file.
// If envFile is empty, DefaultEnvFile is used and may be absent. An explicitly named file
// must exist. Process environment values take precedence over file values.
func LoadFromPath(envFile string) (*Config, error) {
	v := viper.New()

	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}

	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("binding %s: %w", b.env, err))
		}
	}

	// Apply defaults
	applyDefaults(v)

	// Env file values sit between defaults and the real environment
	if err := readEnvFile(v, envFile, explicit); err != nil {
		return nil, err
	}

	var missing []string
	for _, b := range bindings {
		if b.required && isBlank(v.GetString(b.key)) {
			missing = append(missing, b.env)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required settings: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if port := v.GetString("connection.port"); !isNumber(port) {
		return nil, fmt.Errorf("%w: DB_PORT must be a number, got %q", ErrInvalidConfig, port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %w", ErrInvalidConfig, err)
	}

	cfg.LogFile = expandPath(cfg.LogFile)
	cfg.Connection.SSLMode = defaultSSLMode(cfg.Connection.SSLMode, cfg.Connection.Driver)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readEnvFile copies recognized keys from an env file into viper as defaults,
// so that real environment variables keep precedence.
func readEnvFile(v *viper.Viper, path string, mustExist bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}
		return fmt.Errorf("%w: env file %s: %w", ErrInvalidConfig, path, err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("%w: error reading env file %s: %w", ErrInvalidConfig, path, err)
	}

	for _, b := range bindings {
		if val, ok := values[b.env]; ok && val != "" {
			v.SetDefault(b.key, val)
		}
	}

	return nil
}

// applyDefaults sets default configuration values
func applyDefaults(v *viper.Viper) {
	v.SetDefault("connection.driver", DriverPGX)
	v.SetDefault("format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if err := c.Connection.Validate(); err != nil {
		return err
	}
	if !slices.Contains(ValidFormats, c.Format) {
		return fmt.Errorf("%w: format must be one of: %v, got %q", ErrInvalidConfig, ValidFormats, c.Format)
	}
	return nil
}

// Validate checks that every required connection field is populated and in range.
func (c ConnectionConfig) Validate() error {
	var missing []string
	if isBlank(c.Host) {
		missing = append(missing, "DB_HOST")
	}
	if c.Port == 0 {
		missing = append(missing, "DB_PORT")
	}
	if isBlank(c.Database) {
		missing = append(missing, "DB_NAME")
	}
	if isBlank(c.User) {
		missing = append(missing, "DB_USER")
	}
	if isBlank(c.Password) {
		missing = append(missing, "DB_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required settings: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: DB_PORT must be between 1 and 65535, got %d", ErrInvalidConfig, c.Port)
	}
	if !slices.Contains(ValidSSLModes, c.SSLMode) {
		return fmt.Errorf("%w: DB_SSLMODE must be one of: %v, got %q", ErrInvalidConfig, ValidSSLModes, c.SSLMode)
	}
	if !slices.Contains(ValidDrivers, c.Driver) {
		return fmt.Errorf("%w: DB_DRIVER must be one of: %v, got %q", ErrInvalidConfig, ValidDrivers, c.Driver)
	}
	if c.Driver != DriverPGX && !slices.Contains(libpqSSLModes, c.SSLMode) {
		return fmt.Errorf("%w: DB_SSLMODE %q is not supported by the %s driver, use one of: %v",
			ErrInvalidConfig, c.SSLMode, c.Driver, libpqSSLModes)
	}

	return nil
}

// isBlank reports whether a setting counts as unset. Whitespace-only values are unset.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// defaultSSLMode fills an unset sslmode with the chosen client library's own default.
func defaultSSLMode(mode, driver string) string {
	if mode != "" {
		return mode
	}
	if driver == DriverPGX {
		return "prefer"
	}
	return "require"
}

// DefaultLogPath returns the log file used when none is configured.
func DefaultLogPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".config", "pgread", "pgread.log")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
