// Package config defines the process configuration for the carecal binaries.
// Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any invalid value causes LoadConfig to fail and the binary to exit.
package config

import "time"

// Config is the top-level configuration struct. Sub-components receive only
// the subset they need.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"carecal"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server      ServerConfig
	Database    DatabaseConfig
	Schedule    ScheduleConfig
	RollForward RollForwardConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
}

// DatabaseConfig selects the store and tunes its connection pool. URL is a
// pgx connection string for postgres and a file path or ":memory:" for
// sqlite. The memory driver needs no URL.
type DatabaseConfig struct {
	Driver string       `envconfig:"DATABASE_DRIVER" default:"postgres" validate:"oneof=postgres sqlite memory"`
	URL    SecretString `envconfig:"DATABASE_URL" validate:"required_unless=Driver memory"`

	// Tuning Parameters (postgres only)
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// ScheduleConfig controls the engine. Timezone is the IANA zone in which
// calendar days and times of day are interpreted.
type ScheduleConfig struct {
	Timezone        string `envconfig:"SCHEDULE_TIMEZONE" default:"UTC" validate:"required"`
	DefaultWeeks    int    `envconfig:"SCHEDULE_DEFAULT_WEEKS" default:"8" validate:"min=1,ltefield=MaxWeeks"`
	MaxWeeks        int    `envconfig:"SCHEDULE_MAX_WEEKS" default:"26" validate:"min=1,max=26"`
	InsertBatchSize int    `envconfig:"SCHEDULE_INSERT_BATCH_SIZE" default:"1000" validate:"min=1,max=2000"`
}

// RollForwardConfig drives the background generation job in cmd/scheduler.
type RollForwardConfig struct {
	Cron        string `envconfig:"ROLLFORWARD_CRON" default:"0 2 * * *" validate:"required"`
	Days        int    `envconfig:"ROLLFORWARD_DAYS" default:"14" validate:"min=1,max=366"`
	Concurrency int    `envconfig:"ROLLFORWARD_CONCURRENCY" default:"4" validate:"min=1,max=64"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Location returns the engine time zone. LoadConfig has already checked that
// it resolves, so the error is only possible for hand-built configs.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
