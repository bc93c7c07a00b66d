package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SCRY_SERVER_PORT.
const EnvPrefix = "SCRY"

// Default values applied before any other configuration source.
const (
	DefaultPort            = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultStorageDriver   = "memory"
	DefaultKeyPrefix       = "flashcards"
	DefaultBatchSize       = 20
	DefaultTimezone        = "Local"
	DefaultBackupKeep      = 5
)

// flagBindings maps command-line flag names to configuration keys.
var flagBindings = map[string]string{
	"port":           "server.port",
	"log-level":      "server.log_level",
	"storage-driver": "storage.driver",
	"storage-dsn":    "storage.dsn",
	"batch-size":     "study.batch_size",
	"timezone":       "study.timezone",
}

// RegisterFlags declares the command-line flags understood by LoadWithFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("env-file", ".env", "path to a dotenv file")
	fs.Int("port", DefaultPort, "HTTP listen port")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("storage-driver", DefaultStorageDriver, "storage backend (memory, sqlite, postgres, redis)")
	fs.String("storage-dsn", "", "storage DSN: file path for sqlite, URL for postgres and redis")
	fs.Int("batch-size", DefaultBatchSize, "maximum cards in a due-review session")
	fs.String("timezone", DefaultTimezone, "IANA timezone used for study streaks")
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags behaves like Load and additionally applies command-line flags
// that were explicitly set. Flags take precedence over every other source.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	envFile := ".env"
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagBindings {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a configuration against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Study.Location(); err != nil {
		return fmt.Errorf("config validation failed: unknown timezone %q: %w", cfg.Study.Timezone, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.log_level", DefaultLogLevel)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("storage.driver", DefaultStorageDriver)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.key_prefix", DefaultKeyPrefix)
	v.SetDefault("study.batch_size", DefaultBatchSize)
	v.SetDefault("study.timezone", DefaultTimezone)
	v.SetDefault("backup.keep", DefaultBackupKeep)
}

// loadDotEnv populates the process environment from a dotenv file.
// Variables already present in the environment are not overridden.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// readConfigFile reads an explicit config file, or looks for config.yaml in the
// working directory when none is given. Only the implicit lookup tolerates a
// missing file.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
