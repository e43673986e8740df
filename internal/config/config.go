package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Environment variables read by Load.
const (
	EnvStore          = "CIRCULATION_STORE"
	EnvPostgresDSN    = "CIRCULATION_POSTGRES_DSN"
	EnvSQLitePath     = "CIRCULATION_SQLITE_PATH"
	EnvAdapterType    = "ADAPTER_TYPE"
	EnvHTTPAddr       = "CIRCULATION_HTTP_ADDR"
	EnvMaxOpenIssues  = "CIRCULATION_MAX_OPEN_ISSUES"
	EnvAdminUsername  = "CIRCULATION_ADMIN_USERNAME"
	EnvAdminPassword  = "CIRCULATION_ADMIN_PASSWORD"
	EnvAuditSchedule  = "CIRCULATION_AUDIT_SCHEDULE"
	EnvOTelEndpoint   = "CIRCULATION_OTEL_ENDPOINT"
	EnvLogLevel       = "CIRCULATION_LOG_LEVEL"
	EnvLogFormat      = "CIRCULATION_LOG_FORMAT"
	EnvServiceVersion = "CIRCULATION_VERSION"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Adapter types for StorePostgres.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLXDB  = "sqlx.db"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Defaults.
const (
	DefaultStore         = StoreSQLite
	DefaultSQLitePath    = "circulation.db"
	DefaultAdapterType   = AdapterPGXPool
	DefaultHTTPAddr      = ":8080"
	DefaultMaxOpenIssues = 5
	DefaultAuditSchedule = "0 0 * * *"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = LogFormatText
)

// ErrInvalidConfig is returned by Load and Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete process configuration.
type Config struct {
	Store          string
	PostgresDSN    string
	SQLitePath     string
	AdapterType    string
	HTTPAddr       string
	MaxOpenIssues  int
	AdminUsername  string
	AdminPassword  string
	AuditSchedule  string
	OTelEndpoint   string
	LogLevel       string
	LogFormat      string
	ServiceVersion string
}

// Load reads the configuration from the environment.
// If envFile is set, it must exist and is loaded first; otherwise a .env file in the working
// directory is loaded when present. Variables already set in the environment always win.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("%w: loading %s: %w", ErrInvalidConfig, envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: loading .env: %w", ErrInvalidConfig, err)
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}

		return fallback
	}

	cfg := Config{
		Store:          strings.ToLower(get(EnvStore, DefaultStore)),
		PostgresDSN:    get(EnvPostgresDSN, ""),
		SQLitePath:     get(EnvSQLitePath, DefaultSQLitePath),
		AdapterType:    strings.ToLower(get(EnvAdapterType, DefaultAdapterType)),
		HTTPAddr:       get(EnvHTTPAddr, DefaultHTTPAddr),
		MaxOpenIssues:  DefaultMaxOpenIssues,
		AdminUsername:  get(EnvAdminUsername, ""),
		AdminPassword:  get(EnvAdminPassword, ""),
		AuditSchedule:  get(EnvAuditSchedule, DefaultAuditSchedule),
		OTelEndpoint:   get(EnvOTelEndpoint, ""),
		LogLevel:       strings.ToLower(get(EnvLogLevel, DefaultLogLevel)),
		LogFormat:      strings.ToLower(get(EnvLogFormat, DefaultLogFormat)),
		ServiceVersion: get(EnvServiceVersion, "dev"),
	}

	if raw := get(EnvMaxOpenIssues, ""); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvMaxOpenIssues, raw)
		}

		cfg.MaxOpenIssues = limit
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for store %q", EnvPostgresDSN, StorePostgres))
		}

		switch c.AdapterType {
		case AdapterPGXPool, AdapterSQLDB, AdapterSQLXDB:
		default:
			errs = append(errs, fmt.Errorf("unsupported %s %q", EnvAdapterType, c.AdapterType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q", EnvStore, c.Store))
	}

	if c.MaxOpenIssues < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", EnvMaxOpenIssues))
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, fmt.Errorf("%s and %s must be set together", EnvAdminUsername, EnvAdminPassword))
	}

	if _, err := cron.ParseStandard(c.AuditSchedule); err != nil {
		errs = append(errs, fmt.Errorf("%s %q: %w", EnvAuditSchedule, c.AuditSchedule, err))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q", EnvLogFormat, c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return nil
}

// HasBootstrapAdmin reports whether an admin account should be created on startup.
func (c Config) HasBootstrapAdmin() bool {
	return c.AdminUsername != ""
}
