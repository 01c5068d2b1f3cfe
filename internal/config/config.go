// Package config loads the console configuration from a YAML file, a .env
// file and environment variables, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // calendar time zones must resolve without a system zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/paycms/console/internal/calendar"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Logging  Logging  `yaml:"logging"`
	Calendar Calendar `yaml:"calendar"`
	Mock     Mock     `yaml:"mock"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	SeedFile   string `yaml:"seed_file"`

	// SeedServiceID is the service the seed members are registered under.
	SeedServiceID string `yaml:"seed_service_id"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Calendar configures the settlement calendar.
type Calendar struct {
	Timezone             string `yaml:"timezone"`
	HolidaysFile         string `yaml:"holidays_file"`
	SettlementMode       string `yaml:"settlement_mode"`
	WithdrawalCutoffHour int    `yaml:"withdrawal_cutoff_hour"`
	MemberCutoffHour     int    `yaml:"member_cutoff_hour"`
	ResultTime           string `yaml:"result_time"`
}

// Mock tunes the simulated CMS provider.
type Mock struct {
	ProcessingDelay  time.Duration `yaml:"processing_delay"`
	MaxEvidenceBytes int           `yaml:"max_evidence_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	rules := calendar.DefaultRules()
	return &Config{
		Server:  Server{Port: 7080},
		Storage: Storage{SQLitePath: "cms.db", SeedServiceID: "demo"},
		Logging: Logging{Level: "info", Format: "json"},
		Calendar: Calendar{
			Timezone:             "Asia/Seoul",
			SettlementMode:       "standard",
			WithdrawalCutoffHour: rules.WithdrawalCutoffHour,
			MemberCutoffHour:     rules.MemberCutoffHour,
			ResultTime:           rules.ResultTime,
		},
		Mock: Mock{
			ProcessingDelay:  20 * time.Minute,
			MaxEvidenceBytes: 300 * 1024,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load starts from Default, overlays the YAML file at path (skipped when
// path is empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotenv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("SEED_FILE"); v != "" {
		cfg.Storage.SeedFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("HOLIDAYS_FILE"); v != "" {
		cfg.Calendar.HolidaysFile = v
	}

	if v := os.Getenv("CALENDAR_TZ"); v != "" {
		cfg.Calendar.Timezone = v
	}

	// MOCK_MODE=test is what the provider's sandbox tooling sets; an explicit
	// SETTLEMENT_MODE wins over it.
	if strings.EqualFold(os.Getenv("MOCK_MODE"), "test") {
		cfg.Calendar.SettlementMode = "accelerated"
	}
	if v := os.Getenv("SETTLEMENT_MODE"); v != "" {
		cfg.Calendar.SettlementMode = v
	}

	if v := os.Getenv("MOCK_PROCESSING_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOCK_PROCESSING_DELAY: %w", err)
		}
		cfg.Mock.ProcessingDelay = d
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation and derived values
// ---------------------------------------------------------------------------

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Storage.SQLitePath == "" {
		return errors.New("storage.sqlite_path is required")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if _, err := c.Calendar.Location(); err != nil {
		return err
	}
	if _, err := calendar.PolicyFor(c.Calendar.SettlementMode); err != nil {
		return fmt.Errorf("calendar.settlement_mode: %w", err)
	}
	if !validHour(c.Calendar.WithdrawalCutoffHour) {
		return fmt.Errorf("calendar.withdrawal_cutoff_hour out of range: %d", c.Calendar.WithdrawalCutoffHour)
	}
	if !validHour(c.Calendar.MemberCutoffHour) {
		return fmt.Errorf("calendar.member_cutoff_hour out of range: %d", c.Calendar.MemberCutoffHour)
	}
	if _, err := time.Parse("15:04", c.Calendar.ResultTime); err != nil {
		return fmt.Errorf("calendar.result_time: %w", err)
	}
	if c.Mock.ProcessingDelay < 0 {
		return fmt.Errorf("mock.processing_delay must not be negative: %s", c.Mock.ProcessingDelay)
	}
	if c.Mock.MaxEvidenceBytes <= 0 {
		return fmt.Errorf("mock.max_evidence_bytes must be positive: %d", c.Mock.MaxEvidenceBytes)
	}
	return nil
}

func validHour(h int) bool { return h >= 0 && h <= 23 }

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Location resolves the calendar time zone.
func (c Calendar) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar.timezone: %w", err)
	}
	return loc, nil
}

// Rules returns the cut-off rules for the calendar.
func (c Calendar) Rules() calendar.Rules {
	return calendar.Rules{
		WithdrawalCutoffHour: c.WithdrawalCutoffHour,
		MemberCutoffHour:     c.MemberCutoffHour,
		ResultTime:           c.ResultTime,
	}
}

// Holidays loads the configured holiday table, or the built-in one when no
// file is configured.
func (c Calendar) Holidays() (calendar.HolidaySet, error) {
	if c.HolidaysFile == "" {
		return calendar.DefaultHolidays(), nil
	}
	return calendar.LoadHolidaysFile(c.HolidaysFile)
}

// Policy returns the settlement policy for the configured mode.
func (c Calendar) Policy() (calendar.SettlementPolicy, error) {
	return calendar.PolicyFor(c.SettlementMode)
}
