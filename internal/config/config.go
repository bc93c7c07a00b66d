package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Study   StudyConfig   `mapstructure:"study" validate:"required"`
	Backup  BackupConfig  `mapstructure:"backup" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres or redis.
	Driver string `mapstructure:"driver" validate:"required,oneof=memory sqlite postgres redis"`

	// DSN is a file path for sqlite, a connection URL for postgres and redis.
	DSN string `mapstructure:"dsn" validate:"required_unless=Driver memory"`

	// KeyPrefix namespaces every record key, e.g. "flashcards:cards".
	KeyPrefix string `mapstructure:"key_prefix" validate:"required"`
}

// StudyConfig contains study session tuning.
type StudyConfig struct {
	BatchSize int    `mapstructure:"batch_size" validate:"required,min=1,max=500"`
	Timezone  string `mapstructure:"timezone" validate:"required"`
}

// BackupConfig contains backup retention settings.
type BackupConfig struct {
	Keep int `mapstructure:"keep" validate:"required,min=1,max=100"`
}

// Location resolves the configured study timezone.
// "Local" maps to the process local zone.
func (c StudyConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
