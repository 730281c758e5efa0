// Package cli provides the command-line interface for the pricer.
package cli

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"strategy-pricer/internal/config"
	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/logging"
	"strategy-pricer/internal/models"
	"strategy-pricer/internal/pricing"
	"strategy-pricer/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies. They are built once the flags are
// parsed, since --config and --debug change them.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Engine    *pricing.Engine
	Cache     store.QuoteStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "pricer",
		Short: "Option strategy pricer",
		Long: `Strategy Pricer values vanilla, barrier and digital options and the
multi-leg strategies built from them.

Closed-form prices are used where they exist; Monte-Carlo simulation covers the
rest. Greeks are bumped finite differences and zero-cost strikes are found by
bisection.

Use 'pricer help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/strategy-pricer)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newSolveCmd(app))
	rootCmd.AddCommand(newStrategyCmd(app))
	rootCmd.AddCommand(newCurveCmd(app))
	rootCmd.AddCommand(newCacheCmd(app))
	rootCmd.AddCommand(newExamplesCmd())

	return rootCmd
}

// init loads the configuration and wires the engine, logger and cache.
func (a *App) init(cmd *cobra.Command) error {
	a.ConfigDir, _ = cmd.Flags().GetString("config")
	if a.ConfigDir == "" {
		a.ConfigDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(a.ConfigDir)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	a.Config = cfg
	// Every invocation appends to the same rotated file; tag its lines.
	a.Logger = logging.NewLoggerWithConfig(cfg.LoggingOptions()).With().
		Str("run", uuid.New().String()).
		Logger()
	a.Engine = pricing.NewEngine(cfg.EngineOptions(), a.Logger)

	if cfg.Cache.Enabled {
		cache, err := store.NewSQLiteQuoteCache(cfg.Cache.Path)
		if err != nil {
			a.Logger.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("Quote cache unavailable, pricing without it")
		} else {
			a.Cache = cache
			a.Logger.Debug().Str("path", cfg.Cache.Path).Msg("Quote cache opened")
		}
	}

	cmd.SetContext(logging.WithLogger(cmd.Context(), a.Logger))
	return nil
}

func (a *App) close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close quote cache")
		}
		a.Cache = nil
	}
}

// model returns the model named on the command line, falling back to the
// configured default.
func (a *App) model(name string) (models.Model, error) {
	if name == "" {
		name = a.Config.Engine.Model
	}
	m, ok := models.ParseModel(name)
	if !ok {
		return "", errors.NewValidationError("model", name, "expected closed-form, black-scholes or monte-carlo")
	}
	return m, nil
}

// price values req through the quote cache when one is configured. The bool
// reports a cache hit.
func (a *App) price(ctx context.Context, req models.PricingRequest) (models.PricingResult, bool, error) {
	if a.Cache == nil {
		res, err := a.Engine.Price(ctx, req)
		return res, false, err
	}

	key := store.Key(req, a.Engine.Options())
	q, err := a.Cache.Get(ctx, key)
	if err == nil {
		logging.LogCache(a.Logger, key, true)
		return q.Result, true, nil
	}
	if !errors.Is(err, errors.ErrDataNotFound) {
		a.Logger.Warn().Err(err).Msg("Quote cache lookup failed")
	}
	logging.LogCache(a.Logger, key, false)

	res, err := a.Engine.Price(ctx, req)
	if err != nil {
		return res, false, err
	}
	if err := a.Cache.Put(ctx, key, req, res); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to store quote")
	}
	return res, false, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Strategy Pricer v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the pricer configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := filepath.Join(app.ConfigDir, "config.toml")
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			// Load already validated; report it.
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Engine")
	output.Printf("  Model:             %s\n", cfg.Engine.Model)
	output.Printf("  Simulations:       %d\n", cfg.Engine.Simulations)
	output.Printf("  Steps:             %d\n", cfg.Engine.Steps)
	output.Printf("  Seed:              %d\n", cfg.Engine.Seed)
	output.Printf("  Workers:           %d\n", cfg.Engine.Workers)
	output.Printf("  Chunk size:        %d\n", cfg.Engine.ChunkSize)
	output.Printf("  Antithetic:        %v\n", cfg.Engine.Antithetic)
	output.Printf("  Bridge correction: %v\n", cfg.Engine.BridgeCorrection)
	output.Printf("  Day count:         %s\n", cfg.Engine.DayCount)
	output.Println()

	output.Bold("Greeks")
	output.Printf("  Spot bump:         %.2f%%\n", cfg.Greeks.SpotBumpPct)
	output.Printf("  Vol bump:          %g\n", cfg.Greeks.VolBump)
	output.Printf("  Rate bump:         %g\n", cfg.Greeks.RateBump)
	output.Printf("  Time bump:         %g days\n", cfg.Greeks.TimeBumpDays)
	output.Println()

	output.Bold("Solver")
	output.Printf("  Range:             %.0f%% - %.0f%%\n", cfg.Solver.MinPct, cfg.Solver.MaxPct)
	output.Printf("  Tolerance:         %g\n", cfg.Solver.Tolerance)
	output.Printf("  Max iterations:    %d\n", cfg.Solver.MaxIterations)
	output.Println()

	output.Bold("Cache")
	output.Printf("  Enabled:           %v\n", cfg.Cache.Enabled)
	output.Printf("  Path:              %s\n", cfg.Cache.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Log.Level)
	output.Printf("  Console:           %v\n", cfg.Log.Console)
	output.Printf("  File:              %v (%s)\n", cfg.Log.File, cfg.Log.Path)
}
