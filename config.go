// FILE: lixenwraith/logship/config.go
package logship

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/lixenwraith/config"
)

// configPrefix is the TOML table holding logship settings
const configPrefix = "logship."

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level           string `toml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal"`
	Format          string `toml:"format" env:"LOG_FORMAT" validate:"oneof=json txt"` // Console line format
	ConsoleTarget   string `toml:"console_target" env:"LOG_CONSOLE_TARGET" validate:"oneof=stdout stderr"`
	TimestampFormat string `toml:"timestamp_format" validate:"required"`

	// Identity, attached as base fields and mandatory labels
	Service     string `toml:"service" env:"SERVICE_NAME" validate:"required"`
	Environment string `toml:"environment" env:"APP_ENV" validate:"required"`

	// Remote destination, enabled only when url, user and secret are all set
	RemoteURL     string `toml:"remote_url" env:"LOKI_URL"`
	RemoteUser    string `toml:"remote_user" env:"LOKI_USER"`
	RemoteSecret  string `toml:"remote_secret" env:"LOKI_TOKEN"`
	RemoteTenant  string `toml:"remote_tenant" env:"LOKI_TENANT"` // Defaults to RemoteUser
	RemoteAuth    string `toml:"remote_auth" env:"LOKI_AUTH_MODE" validate:"oneof=basic bearer"`
	RemoteLabels  string `toml:"remote_labels" env:"LOKI_LABELS"`   // Map syntax or key=value,key=value
	RemoteHeaders string `toml:"remote_headers" env:"LOKI_HEADERS"` // key=value,key=value
	RemoteGzip    bool   `toml:"remote_gzip" env:"LOKI_GZIP"`

	// Batching
	BatchMaxEntries  int64 `toml:"batch_max_entries" env:"LOKI_BATCH_MAX_ENTRIES" validate:"gt=0"`
	FlushIntervalMs  int64 `toml:"flush_interval_ms" env:"LOKI_FLUSH_INTERVAL_MS" validate:"gt=0"`
	RequestTimeoutMs int64 `toml:"request_timeout_ms" env:"LOKI_REQUEST_TIMEOUT_MS" validate:"gt=0"`
	BufferLimit      int64 `toml:"buffer_limit" env:"LOKI_BUFFER_LIMIT" validate:"gtefield=BatchMaxEntries"`

	// Lifecycle
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s" env:"LOG_HEARTBEAT_INTERVAL_S" validate:"gte=0"` // 0=disabled
	ShutdownTimeoutMs  int64 `toml:"shutdown_timeout_ms" env:"LOG_SHUTDOWN_TIMEOUT_MS" validate:"gt=0"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level:           "info",
	Format:          "json",
	ConsoleTarget:   "stdout",
	TimestampFormat: time.RFC3339Nano,

	// Identity
	Service:     "backend",
	Environment: "production",

	// Remote
	RemoteAuth: string(AuthBasic),
	RemoteGzip: false,

	// Batching
	BatchMaxEntries:  100,
	FlushIntervalMs:  2000,
	RequestTimeoutMs: 5000,
	BufferLimit:      10000,

	// Lifecycle
	HeartbeatIntervalS: 0,
	ShutdownTimeoutMs:  500,
}

// validate is shared, validator caches struct metadata
var validate = validator.New()

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// Settings live under the [logship] table.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromEnv creates a Config from defaults overlaid with environment variables
func NewConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmtErrorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfig layers defaults, an optional TOML file and the environment, in that order.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmtErrorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile merges the file's [logship] table into cfg
func loadFile(cfg *Config, path string) error {
	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return fmtErrorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return fmtErrorf("failed to load config from %s: %w", path, err)
	}

	// Extract values into our Config struct
	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return fmtErrorf("failed to extract config values: %w", err)
	}

	return nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Get the toml tag to determine the config key
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		key := prefix + tomlTag

		// Get value from loader
		val, found := loader.Get(key)
		if !found {
			continue // Use default value
		}

		// Set the field value with type conversion
		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// remoteFields only affect the remote destination. A bad value there disables
// shipping at resolution time instead of failing startup.
var remoteFields = []string{
	"RemoteAuth",
	"BatchMaxEntries",
	"FlushIntervalMs",
	"RequestTimeoutMs",
	"BufferLimit",
	"HeartbeatIntervalS",
}

// Validate checks the core settings. Remote settings are checked by ValidateRemote.
func (c *Config) Validate() error {
	c.normalize()
	return validationError(validate.StructExcept(c, remoteFields...))
}

// ValidateRemote checks the settings used only by the remote destination
func (c *Config) ValidateRemote() error {
	c.normalize()
	return validationError(validate.StructPartial(c, remoteFields...))
}

// normalize lowercases case-insensitive enums before tag checks
func (c *Config) normalize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	c.RemoteAuth = strings.ToLower(strings.TrimSpace(c.RemoteAuth))
}

// validationError reports the first failing field
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmtErrorf("invalid %s: '%v' fails '%s'", fe.Field(), fe.Value(), fe.Tag())
	}
	return fmtErrorf("invalid configuration: %w", err)
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// MinLevel returns the numeric minimum level
func (c *Config) MinLevel() int64 {
	lvl, err := Level(c.Level)
	if err != nil {
		return LevelInfo
	}
	return lvl
}
