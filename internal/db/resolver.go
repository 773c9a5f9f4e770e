package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vvka-141/reviewseed/internal/config"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use $PGPASSWORD or a connection string instead.
type GranularConnFlags struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database and Driver are excluded: both may refine a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects a cloud IAM authentication method.
// At most one of AWS, Azure and Google may be enabled.
type CloudFlags struct {
	AWS       bool
	AWSRegion string

	Azure         bool
	AzureTenantID string // Overrides AZURE_TENANT_ID
	AzureClientID string // Overrides AZURE_CLIENT_ID

	Google         bool
	GoogleInstance string
}

// EnvVars represents the environment variables consulted during resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	REVIEWSEED_CONNECTION_STRING string
	REVIEWSEED_DRIVER            string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
	AWS_REGION          string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                       os.Getenv("PGHOST"),
		PGPORT:                       os.Getenv("PGPORT"),
		PGUSER:                       os.Getenv("PGUSER"),
		PGPASSWORD:                   os.Getenv("PGPASSWORD"),
		PGDATABASE:                   os.Getenv("PGDATABASE"),
		PGSSLMODE:                    os.Getenv("PGSSLMODE"),
		DATABASE_URL:                 os.Getenv("DATABASE_URL"),
		REVIEWSEED_CONNECTION_STRING: os.Getenv("REVIEWSEED_CONNECTION_STRING"),
		REVIEWSEED_DRIVER:            os.Getenv("REVIEWSEED_DRIVER"),
		AZURE_TENANT_ID:              os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:              os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:          os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:                   os.Getenv("AWS_REGION"),
	}
}

// ConnectionString returns the first non-empty of REVIEWSEED_CONNECTION_STRING and DATABASE_URL.
func (e *EnvVars) ConnectionString() string {
	if e.REVIEWSEED_CONNECTION_STRING != "" {
		return e.REVIEWSEED_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. Connection string flag (--connection)
//  2. Granular flags (-h, -p, -U, -d, --sslmode, --driver)
//  3. Connection string from the environment, if no granular flags were given
//  4. PG* environment variables
//  5. reviewseed.yaml
//  6. Defaults (localhost, driver default port, sslmode prefer, OS user)
//
// -d always overrides the database of a connection string. Cloud flags are
// applied last and switch the AuthMethod.
//
// Returns an error if both --connection and granular flags are provided.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*reviewseed.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/reviews\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U bank_reviews -d reviews\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=bank_reviews: %w",
			reviewseed.ErrInvalidConfig,
		)
	}

	var cfg *reviewseed.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.ConnectionString() != "":
		cfg, err = resolveFromConnectionString(envVars.ConnectionString(), envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if granularFlags.Driver != "" && reviewseed.Driver(granularFlags.Driver) != cfg.Driver {
		return nil, fmt.Errorf("--driver %s conflicts with %s connection string: %w",
			granularFlags.Driver, cfg.Driver, reviewseed.ErrInvalidConfig)
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag\n"+
			"  2. Connection string: --connection \"postgresql://user@host/reviews\"\n"+
			"  3. Environment variable: export PGDATABASE=reviews: %w", reviewseed.ErrInvalidConfig)
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}
	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolveFromConnectionString(connStr string, envVars *EnvVars) (*reviewseed.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	// PGPASSWORD and PGSSLMODE fill gaps the URI leaves, as libpq does.
	if cfg.Password == "" && envVars.PGPASSWORD != "" {
		cfg.Password = envVars.PGPASSWORD
	}
	if cfg.Driver == reviewseed.DriverPostgres && !strings.Contains(connStr, "sslmode=") && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig field by field:
// flag > environment variable > reviewseed.yaml > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*reviewseed.ConnectionConfig, error) {
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	driver := reviewseed.Driver(firstNonEmpty(flags.Driver, envVars.REVIEWSEED_DRIVER, pc.Driver, string(reviewseed.DriverPostgres)))
	if !driver.IsValid() {
		return nil, fmt.Errorf("driver %q: %w", driver, reviewseed.ErrUnsupportedDriver)
	}

	cfg := &reviewseed.ConnectionConfig{
		Driver:           driver,
		AuthMethod:       reviewseed.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, reviewseed.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = driver.DefaultPort()
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

// applyCloudAuth switches the AuthMethod when a cloud flag, a config entry,
// or Azure environment credentials ask for it. Azure environment variables
// only imply Entra ID for postgres; other drivers ignore them.
func applyCloudAuth(cfg *reviewseed.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method := strings.ToLower(pc.AuthMethod)
	enabled := 0
	for _, on := range []bool{flags.AWS, flags.Azure, flags.Google} {
		if on {
			enabled++
		}
	}
	if enabled > 1 {
		return fmt.Errorf("only one of --aws, --azure, --google may be used: %w", reviewseed.ErrInvalidConfig)
	}

	switch {
	case flags.AWS || (enabled == 0 && method == "aws"):
		cfg.AuthMethod = reviewseed.AuthMethodAWSIAM
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case flags.Google || (enabled == 0 && method == "google"):
		cfg.AuthMethod = reviewseed.AuthMethodGoogleIAM
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	case flags.Azure || (enabled == 0 && method == "azure") ||
		(enabled == 0 && method == "" && cfg.Driver == reviewseed.DriverPostgres &&
			(env.AZURE_TENANT_ID != "" || env.AZURE_CLIENT_ID != "")):
		cfg.AuthMethod = reviewseed.AuthMethodAzureEntraID
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}

	if cfg.AuthMethod != reviewseed.AuthMethodStandard && cfg.Driver != reviewseed.DriverPostgres {
		return fmt.Errorf("%s authentication requires the postgres driver: %w", cfg.AuthMethod, reviewseed.ErrUnsupportedAuthMethod)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
