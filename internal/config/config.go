package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted in STORE_DRIVER.
const (
	DriverFile     = "file"
	DriverLevelDB  = "leveldb"
	DriverPostgres = "postgres"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFilePath        string        `mapstructure:"LOG_FILE_PATH"`
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	PatientFilePath    string        `mapstructure:"PATIENT_FILE_PATH"`
	LevelDBPath        string        `mapstructure:"LEVELDB_PATH"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	CodeServiceURL     string        `mapstructure:"CODE_SERVICE_URL"`
	CodeServiceTimeout time.Duration `mapstructure:"CODE_SERVICE_TIMEOUT"`
	CodePrefix         string        `mapstructure:"CODE_PREFIX"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"LOG_FILE_PATH",
	"STORE_DRIVER",
	"PATIENT_FILE_PATH",
	"LEVELDB_PATH",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"CODE_SERVICE_URL",
	"CODE_SERVICE_TIMEOUT",
	"CODE_PREFIX",
	"CORS_ORIGINS",
	"BODY_LIMIT",
}

// Load reads configuration from the environment and an optional .env file,
// then validates it.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadForMigrate reads the same sources as Load but only checks what the
// migrate commands use, so STORE_DRIVER and its paths are ignored.
func LoadForMigrate() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for migrations")
	}
	if err := cfg.validatePool(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverFile)
	v.SetDefault("LEVELDB_PATH", "./data/patients.ldb")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("CODE_SERVICE_TIMEOUT", "0s")
	v.SetDefault("CODE_PREFIX", "PAT")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// A missing .env file is not an error.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CodeAssignmentEnabled reports whether new patients get a code from a peer
// code service before they are stored.
func (c *Config) CodeAssignmentEnabled() bool {
	return c.CodeServiceURL != ""
}

// Validate checks the settings required by the selected storage driver.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFile:
		if c.PatientFilePath == "" {
			return fmt.Errorf("PATIENT_FILE_PATH is required when STORE_DRIVER is %q", DriverFile)
		}
	case DriverLevelDB:
		if c.LevelDBPath == "" {
			return fmt.Errorf("LEVELDB_PATH is required when STORE_DRIVER is %q", DriverLevelDB)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", DriverPostgres)
		}
		if err := c.validatePool(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q, %q, or %q, got %q", DriverFile, DriverLevelDB, DriverPostgres, c.StoreDriver)
	}

	if c.CodeServiceTimeout < 0 {
		return fmt.Errorf("CODE_SERVICE_TIMEOUT must not be negative, got %s", c.CodeServiceTimeout)
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
