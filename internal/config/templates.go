package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Strategy Pricer Configuration

[engine]
# Default model: "closed-form", "black-scholes" or "monte-carlo"
model = "closed-form"
# Monte-Carlo paths per valuation
simulations = 10000
# Monitoring dates per path for barrier and touch contracts
steps = 252
# Random seed; 0 selects the built-in seed
seed = 0
# Parallel workers; 0 uses every CPU
workers = 0
# Paths per work unit
chunk_size = 2048
# Antithetic variates for terminal sampling
antithetic = true
# Brownian-bridge crossing test between monitoring dates
bridge_correction = true
# Year fraction convention: ACT/365F, ACT/360, 30E/360
day_count = "ACT/365F"

[greeks]
# Relative spot bump in percent
spot_bump_pct = 1.0
# Absolute volatility bump (0.01 = one vol point)
vol_bump = 0.01
# Absolute rate bump (0.0001 = one basis point)
rate_bump = 0.0001
# Time step for theta in calendar days
time_bump_days = 1.0

[solver]
# Strike search range in percent of spot
min_pct = 50.0
max_pct = 150.0
# Premium tolerance in price units
tolerance = 0.001
max_iterations = 200

[cache]
# Cache quotes in a local SQLite database
enabled = false
# path = "~/.config/strategy-pricer/quotes.db"

[log]
# debug, info, warn, error
level = "info"
console = true
file = false
# path = "~/.config/strategy-pricer/logs/pricer.log"
max_size_mb = 50
max_backups = 5
max_age_days = 30
`

const strategyTemplate = `# Example zero-cost collar
model = "closed-form"

[market]
spot = 100.0
volatility = 20.0
domestic_rate = 5.0
foreign_rate = 0.0
valuation_date = "2024-01-02"
maturity_date = "2025-01-01"

[[legs]]
kind = "put"
strike = 90.0
strike_mode = "percent"
quantity = 1.0

[[legs]]
kind = "call"
strike = 110.0
strike_mode = "percent"
quantity = -1.0

[[legs]]
kind = "call-knockout"
strike = 100.0
strike_mode = "percent"
barrier = 125.0
barrier_mode = "percent"
quantity = 0.5
`

// createTemplateConfig writes a commented config.toml. An existing file is left alone.
func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

// WriteStrategyTemplate writes an example strategy file to path.
func WriteStrategyTemplate(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating strategy directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("strategy file %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(strategyTemplate), 0644); err != nil {
		return fmt.Errorf("writing strategy template: %w", err)
	}
	return nil
}
