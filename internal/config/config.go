package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `hisab init`.
const FileName = "hisab.yaml"

// EnvPrefix prefixes the environment variables that override the file.
const EnvPrefix = "HISAB"

// Config represents the top-level hisab.yaml configuration.
type Config struct {
	Company CompanyConfig `yaml:"company"`
	Fiscal  FiscalConfig  `yaml:"fiscal"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Report  ReportConfig  `yaml:"report"`
}

// CompanyConfig identifies the company whose books the CLI works on.
type CompanyConfig struct {
	ID    string `yaml:"id" validate:"required"`
	Name  string `yaml:"name" validate:"required"`
	Owner string `yaml:"owner" validate:"required"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start" validate:"required,datetime=01-02"` // "MM-DD"
}

// StorageConfig locates the database.
type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Format string `yaml:"format" validate:"oneof=text json"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
}

// ServerConfig controls the read-only report API.
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	RequestsPerMin int           `yaml:"requests_per_minute" validate:"gte=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// ReportConfig controls rendered report output.
type ReportConfig struct {
	Locale string `yaml:"locale" validate:"required,bcp47_language_tag"`
}

// env lists the settings that can be overridden from the environment, e.g.
// HISAB_DB_PATH. Unset variables leave the file's value in place.
type env struct {
	DBPath    string `envconfig:"DB_PATH"`
	LogFormat string `envconfig:"LOG_FORMAT"`
	LogLevel  string `envconfig:"LOG_LEVEL"`
	Addr      string `envconfig:"ADDR"`
	Locale    string `envconfig:"LOCALE"`
	Owner     string `envconfig:"OWNER"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a hisab.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnv reads path, applies HISAB_* overrides and validates the
// result.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HISAB_* environment variables.
func (c *Config) ApplyEnv() error {
	var e env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.Storage.Path, e.DBPath)
	override(&c.Log.Format, e.LogFormat)
	override(&c.Log.Level, e.LogLevel)
	override(&c.Server.Addr, e.Addr)
	override(&c.Report.Locale, e.Locale)
	override(&c.Company.Owner, e.Owner)
	return nil
}

// Validate checks every field and returns one error naming each invalid
// field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

// FiscalYearStart returns the fiscal year start as a date in year 2000,
// only its month and day are meaningful.
func (c *Config) FiscalYearStart() (time.Time, error) {
	t, err := time.Parse("01-02", c.Fiscal.YearStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing fiscal year start %q: %w", c.Fiscal.YearStart, err)
	}
	return time.Date(2000, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new company.
func Default(companyID, companyName, owner string) *Config {
	return &Config{
		Company: CompanyConfig{
			ID:    companyID,
			Name:  companyName,
			Owner: owner,
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Storage: StorageConfig{
			Path: "hisab.db",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			RequestsPerMin: 120,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
		},
		Report: ReportConfig{
			Locale: "en",
		},
	}
}
