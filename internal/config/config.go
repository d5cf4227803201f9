// Package config provides Viper-based configuration loading for the rogue engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output away from the terminal the map is drawn on.
	// Empty writes to stderr.
	File string `mapstructure:"file"`
}

// EngineConfig holds simulation settings.
type EngineConfig struct {
	// Pacing is the real time slept per simulated time unit when the view
	// changed. 0 disables pacing.
	Pacing time.Duration `mapstructure:"pacing"`
	// MaxTurns stops the run after this many committed actions. 0 means unlimited.
	MaxTurns uint64 `mapstructure:"max_turns"`
	// Seed makes runs reproducible. 0 draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// PlayerSpeed is the time between player turns when the level sets none.
	PlayerSpeed uint64 `mapstructure:"player_speed"`
	// BulletSpeed is the time between projectile steps.
	BulletSpeed uint64 `mapstructure:"bullet_speed"`
}

// ContentConfig locates game content on disk.
type ContentConfig struct {
	// LevelFile is the YAML file describing the levels.
	LevelFile string `mapstructure:"level_file"`
	// GraphsDir holds the behaviour graph YAML files.
	GraphsDir string `mapstructure:"graphs_dir"`
	// ScriptDir holds Lua scripts loaded into the global VM. Empty = no scripts.
	ScriptDir string `mapstructure:"script_dir"`
	// ScriptInstructionLimit bounds each Lua hook call. 0 = scripting default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// JournalConfig selects where committed actions are recorded.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Driver is "memory" or "postgres".
	Driver string `mapstructure:"driver"`
	// WriteTimeout bounds each journal write.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// ConnectTimeout bounds how long startup waits for the database to answer.
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Addr is the listen address of the /metrics endpoint.
	Addr string `mapstructure:"addr"`
}

// TracingConfig controls turn spans. Finished spans are written to the logger.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SampleRatio is the fraction of resolved actions traced, in [0, 1].
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Content  ContentConfig  `mapstructure:"content"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the journal writes to postgres.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(validateLogging(c.Logging))
	add(validateEngine(c.Engine))
	add(validateContent(c.Content))
	add(validateJournal(c.Journal))
	if c.Journal.Enabled && c.Journal.Driver == "postgres" {
		add(validateDatabase(c.Database))
	}
	add(validateMetrics(c.Metrics))
	add(validateTracing(c.Tracing))

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	return joined(errs)
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.Pacing < 0 {
		errs = append(errs, "engine.pacing must not be negative")
	}
	if e.PlayerSpeed == 0 {
		errs = append(errs, "engine.player_speed must be >= 1")
	}
	if e.BulletSpeed == 0 {
		errs = append(errs, "engine.bullet_speed must be >= 1")
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.LevelFile == "" {
		errs = append(errs, "content.level_file must not be empty")
	}
	if c.GraphsDir == "" {
		errs = append(errs, "content.graphs_dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	return joined(errs)
}

func validateJournal(j JournalConfig) error {
	var errs []string
	validDrivers := map[string]bool{"memory": true, "postgres": true}
	if j.Enabled && !validDrivers[j.Driver] {
		errs = append(errs, fmt.Sprintf("journal.driver must be one of [memory, postgres], got %q", j.Driver))
	}
	if j.WriteTimeout < 0 {
		errs = append(errs, "journal.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if d.ConnectTimeout < 0 {
		errs = append(errs, fmt.Sprintf("database.connect_timeout must be >= 0, got %s", d.ConnectTimeout))
	}
	return joined(errs)
}

func validateMetrics(m MetricsConfig) error {
	if m.Enabled && m.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}
	return nil
}

func validateTracing(t TracingConfig) error {
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", t.SampleRatio)
	}
	return nil
}

// Load reads configuration from the given file path, applies ROGUE_
// environment variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ROGUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	v.SetDefault("engine.pacing", "30ms")
	v.SetDefault("engine.max_turns", 0)
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.player_speed", 10)
	v.SetDefault("engine.bullet_speed", 2)

	v.SetDefault("content.level_file", "content/levels/crypt.yaml")
	v.SetDefault("content.graphs_dir", "content/graphs")
	v.SetDefault("content.script_dir", "content/scripts")
	v.SetDefault("content.script_instruction_limit", 0)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.driver", "memory")
	v.SetDefault("journal.write_timeout", "2s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rogue")
	v.SetDefault("database.password", "rogue")
	v.SetDefault("database.name", "rogue")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", "127.0.0.1:9464")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 1.0)
}
