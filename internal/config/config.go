// Package config provides configuration management for the pricer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/logging"
	"strategy-pricer/internal/models"
	"strategy-pricer/internal/pricing"
)

// Config holds all application configuration.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Greeks GreeksConfig `mapstructure:"greeks"`
	Solver SolverConfig `mapstructure:"solver"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// EngineConfig holds Monte-Carlo and convention settings.
type EngineConfig struct {
	Model            string `mapstructure:"model"` // closed-form, black-scholes, monte-carlo
	Simulations      int    `mapstructure:"simulations"`
	Steps            int    `mapstructure:"steps"`
	Seed             uint64 `mapstructure:"seed"`
	Workers          int    `mapstructure:"workers"` // 0 = number of CPUs
	ChunkSize        int    `mapstructure:"chunk_size"`
	Antithetic       bool   `mapstructure:"antithetic"`
	BridgeCorrection bool   `mapstructure:"bridge_correction"`
	DayCount         string `mapstructure:"day_count"`
}

// GreeksConfig holds finite-difference bump sizes.
type GreeksConfig struct {
	SpotBumpPct  float64 `mapstructure:"spot_bump_pct"`
	VolBump      float64 `mapstructure:"vol_bump"`  // decimal, 0.01 = one vol point
	RateBump     float64 `mapstructure:"rate_bump"` // decimal, 0.0001 = one basis point
	TimeBumpDays float64 `mapstructure:"time_bump_days"`
}

// SolverConfig bounds the zero-cost strike search.
type SolverConfig struct {
	MinPct        float64 `mapstructure:"min_pct"`
	MaxPct        float64 `mapstructure:"max_pct"`
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
}

// CacheConfig holds quote cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/strategy-pricer"
	}
	return filepath.Join(home, ".config", "strategy-pricer")
}

// Default returns the built-in configuration for configDir.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v, configDir)
	cfg := &Config{}
	// Defaults are plain values; decoding them cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and the defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	def := pricing.DefaultEngineOptions()

	v.SetDefault("engine.model", "closed-form")
	v.SetDefault("engine.simulations", def.Simulations)
	v.SetDefault("engine.steps", def.Steps)
	v.SetDefault("engine.seed", 0) // 0 selects the engine's built-in seed
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.chunk_size", def.ChunkSize)
	v.SetDefault("engine.antithetic", def.Antithetic)
	v.SetDefault("engine.bridge_correction", def.BridgeCorrection)
	v.SetDefault("engine.day_count", string(def.DayCount))

	v.SetDefault("greeks.spot_bump_pct", def.Bumps.SpotPct)
	v.SetDefault("greeks.vol_bump", def.Bumps.Vol)
	v.SetDefault("greeks.rate_bump", def.Bumps.Rate)
	v.SetDefault("greeks.time_bump_days", def.Bumps.TimeDays)

	v.SetDefault("solver.min_pct", def.Solver.MinPct)
	v.SetDefault("solver.max_pct", def.Solver.MaxPct)
	v.SetDefault("solver.tolerance", def.Solver.Tolerance)
	v.SetDefault("solver.max_iterations", def.Solver.MaxIterations)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", filepath.Join(configDir, "quotes.db"))

	logDef := logging.DefaultLogConfig()
	v.SetDefault("log.level", logDef.Level)
	v.SetDefault("log.console", logDef.Console)
	v.SetDefault("log.file", logDef.File)
	v.SetDefault("log.path", filepath.Join(configDir, "logs", "pricer.log"))
	v.SetDefault("log.max_size_mb", logDef.MaxSize)
	v.SetDefault("log.max_backups", logDef.MaxBackups)
	v.SetDefault("log.max_age_days", logDef.MaxAge)
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PRICER_SIMULATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PRICER_SIMULATIONS=%q is not an integer", errors.ErrConfigInvalid, v)
		}
		cfg.Engine.Simulations = n
	}
	if v := os.Getenv("PRICER_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: PRICER_SEED=%q is not an unsigned integer", errors.ErrConfigInvalid, v)
		}
		cfg.Engine.Seed = n
	}
	if v := os.Getenv("PRICER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRICER_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
		cfg.Cache.Enabled = true
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", errors.ErrConfigInvalid, fmt.Sprintf(format, args...))
	}

	if c.Engine.Model != "" {
		if _, ok := models.ParseModel(c.Engine.Model); !ok {
			return invalid("unknown engine.model %q", c.Engine.Model)
		}
	}
	if c.Engine.Simulations <= 0 {
		return invalid("engine.simulations must be positive")
	}
	if c.Engine.Steps <= 0 {
		return invalid("engine.steps must be positive")
	}
	if c.Engine.Workers < 0 || c.Engine.ChunkSize < 0 {
		return invalid("engine.workers and engine.chunk_size must not be negative")
	}
	if _, err := pricing.ParseDayCount(c.Engine.DayCount); err != nil {
		return invalid("engine.day_count: %v", err)
	}

	if c.Greeks.SpotBumpPct <= 0 || c.Greeks.SpotBumpPct >= 50 {
		return invalid("greeks.spot_bump_pct must be between 0 and 50")
	}
	if c.Greeks.VolBump <= 0 || c.Greeks.RateBump <= 0 || c.Greeks.TimeBumpDays <= 0 {
		return invalid("greeks bumps must be positive")
	}

	if c.Solver.MinPct <= 0 || c.Solver.MaxPct <= c.Solver.MinPct {
		return invalid("solver range must satisfy 0 < min_pct < max_pct")
	}
	if c.Solver.Tolerance <= 0 {
		return invalid("solver.tolerance must be positive")
	}
	if c.Solver.MaxIterations <= 0 {
		return invalid("solver.max_iterations must be positive")
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return invalid("cache.path is required when the cache is enabled")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return invalid("unknown log.level %q", c.Log.Level)
	}

	return nil
}

// EngineOptions converts the configuration into pricing engine options.
func (c *Config) EngineOptions() pricing.EngineOptions {
	dc, _ := pricing.ParseDayCount(c.Engine.DayCount)
	return pricing.EngineOptions{
		Simulations:      c.Engine.Simulations,
		Steps:            c.Engine.Steps,
		Seed:             c.Engine.Seed,
		Workers:          c.Engine.Workers,
		ChunkSize:        c.Engine.ChunkSize,
		Antithetic:       c.Engine.Antithetic,
		BridgeCorrection: c.Engine.BridgeCorrection,
		DayCount:         dc,
		Bumps: pricing.BumpSizes{
			SpotPct:  c.Greeks.SpotBumpPct,
			Vol:      c.Greeks.VolBump,
			Rate:     c.Greeks.RateBump,
			TimeDays: c.Greeks.TimeBumpDays,
		},
		Solver: pricing.SolverOptions{
			MinPct:        c.Solver.MinPct,
			MaxPct:        c.Solver.MaxPct,
			Tolerance:     c.Solver.Tolerance,
			MaxIterations: c.Solver.MaxIterations,
		},
	}
}

// LoggingOptions converts the log section into logging options.
func (c *Config) LoggingOptions() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Log.Level,
		Console:    c.Log.Console,
		File:       c.Log.File,
		FilePath:   c.Log.Path,
		MaxSize:    c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAgeDays,
	}
}
