// Package config loads server configuration from defaults, an optional
// jugtracker.yaml file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverCSV      = "csv"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config is the resolved server configuration.
type Config struct {
	Port          int
	TLSPort       int
	TLSCertFile   string
	TLSKeyFile    string
	CORSOrigins   []string
	RateLimitRPS  int
	LedgerPath    string
	StorageDriver string
	DatabaseURL   string
	CheckInterval time.Duration
	FailThreshold int

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string
}

// TLSEnabled reports whether both certificate and key files are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Load resolves the configuration. cfgFile overrides the search for
// jugtracker.yaml in configs/ and the working directory. ledgerArg, when
// non-empty, takes precedence over ledger.path from any other source.
func Load(cfgFile, ledgerArg string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("jugtracker")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.tls_port", 5443)
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("ledger.path", "jugs.csv")
	v.SetDefault("storage.driver", DriverCSV)
	v.SetDefault("database.url", "")
	v.SetDefault("health.check_interval", "1m")
	v.SetDefault("health.fail_threshold", 3)

	if err := v.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &cfgNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:          v.GetInt("server.port"),
		TLSPort:       v.GetInt("server.tls_port"),
		TLSCertFile:   v.GetString("server.tls_cert_file"),
		TLSKeyFile:    v.GetString("server.tls_key_file"),
		CORSOrigins:   v.GetStringSlice("server.cors_origins"),
		RateLimitRPS:  v.GetInt("server.rate_limit_rps"),
		LedgerPath:    v.GetString("ledger.path"),
		StorageDriver: strings.ToLower(v.GetString("storage.driver")),
		DatabaseURL:   v.GetString("database.url"),
		CheckInterval: v.GetDuration("health.check_interval"),
		FailThreshold: v.GetInt("health.fail_threshold"),
		ConfigFile:    v.ConfigFileUsed(),
	}
	if ledgerArg != "" {
		cfg.LedgerPath = ledgerArg
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverCSV:
		if c.LedgerPath == "" {
			return errors.New("ledger.path is required for the csv driver")
		}
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.StorageDriver)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("server.tls_cert_file and server.tls_key_file must be set together")
	}
	return nil
}
