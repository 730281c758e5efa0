// Package pricing values strategy legs: vanilla, barrier and digital options,
// forwards and swaps, under closed-form or Monte-Carlo models.
package pricing

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/logging"
	"strategy-pricer/internal/models"
)

// defaultSeed replaces a zero seed so that unseeded runs are still reproducible.
const defaultSeed uint64 = 0x5EED

// BumpSizes are the finite-difference steps used for Greeks.
type BumpSizes struct {
	SpotPct  float64 // relative spot bump, percent of spot
	Vol      float64 // absolute volatility bump, decimal
	Rate     float64 // absolute rate bump, decimal
	TimeDays float64 // calendar days
}

// SolverOptions bound the zero-cost strike search.
type SolverOptions struct {
	MinPct        float64
	MaxPct        float64
	Tolerance     float64
	MaxIterations int
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Simulations      int
	Steps            int
	Seed             uint64
	Workers          int
	ChunkSize        int
	Antithetic       bool
	BridgeCorrection bool
	DayCount         DayCount
	Bumps            BumpSizes
	Solver           SolverOptions
}

// DefaultEngineOptions returns the engine defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Simulations:      10000,
		Steps:            252,
		Seed:             defaultSeed,
		Workers:          runtime.NumCPU(),
		ChunkSize:        2048,
		Antithetic:       true,
		BridgeCorrection: true,
		DayCount:         Act365F,
		Bumps: BumpSizes{
			SpotPct:  1,
			Vol:      0.01,
			Rate:     0.0001,
			TimeDays: 1,
		},
		Solver: SolverOptions{
			MinPct:        50,
			MaxPct:        150,
			Tolerance:     0.001,
			MaxIterations: 200,
		},
	}
}

// Engine prices legs. It holds configuration only and is safe for concurrent use.
type Engine struct {
	opts   EngineOptions
	logger zerolog.Logger
}

// NewEngine creates an engine. Zero-valued options fall back to the defaults.
func NewEngine(opts EngineOptions, logger zerolog.Logger) *Engine {
	def := DefaultEngineOptions()
	if opts.Simulations <= 0 {
		opts.Simulations = def.Simulations
	}
	if opts.Steps <= 0 {
		opts.Steps = def.Steps
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.DayCount == "" {
		opts.DayCount = def.DayCount
	}
	if opts.Bumps.SpotPct <= 0 {
		opts.Bumps.SpotPct = def.Bumps.SpotPct
	}
	if opts.Bumps.Vol <= 0 {
		opts.Bumps.Vol = def.Bumps.Vol
	}
	if opts.Bumps.Rate <= 0 {
		opts.Bumps.Rate = def.Bumps.Rate
	}
	if opts.Bumps.TimeDays <= 0 {
		opts.Bumps.TimeDays = def.Bumps.TimeDays
	}
	if opts.Solver.MaxPct <= opts.Solver.MinPct || opts.Solver.MinPct <= 0 {
		opts.Solver.MinPct, opts.Solver.MaxPct = def.Solver.MinPct, def.Solver.MaxPct
	}
	if opts.Solver.Tolerance <= 0 {
		opts.Solver.Tolerance = def.Solver.Tolerance
	}
	if opts.Solver.MaxIterations <= 0 {
		opts.Solver.MaxIterations = def.Solver.MaxIterations
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the effective engine options.
func (e *Engine) Options() EngineOptions {
	return e.opts
}

// Price values a single leg per unit of quantity. Greeks, when requested, are
// scaled by the leg's signed quantity.
func (e *Engine) Price(ctx context.Context, req models.PricingRequest) (models.PricingResult, error) {
	model, sim, err := e.prepare(req)
	if err != nil {
		return models.PricingResult{}, err
	}
	c, err := resolve(req.Leg, req.Market, e.opts.DayCount)
	if err != nil {
		return models.PricingResult{}, err
	}

	start := time.Now()
	est, method, err := e.value(ctx, c, model, sim)
	if err != nil {
		return models.PricingResult{}, errors.NewPricingError(string(c.kind), "price", err)
	}
	if c.t <= 0 && !c.kind.IsLinear() {
		method = models.MethodIntrinsic
	}
	paths := 0
	if est.stdErr > 0 {
		paths = sim.paths
	}
	logging.LogPricing(e.logger, string(c.kind), method, paths, est.mean, est.stdErr, time.Since(start))

	result := models.PricingResult{
		Price:    math.Max(est.mean, 0),
		Method:   method,
		StdError: est.stdErr,
	}
	if req.WithGreeks {
		g, err := e.greeks(ctx, c, model, sim, est.mean)
		if err != nil {
			return models.PricingResult{}, errors.NewPricingError(string(c.kind), "greeks", err)
		}
		g = g.Scale(req.Leg.Quantity)
		result.Greeks = &g
	}
	return result, nil
}

// prepare validates the request-level settings and builds the simulation settings.
func (e *Engine) prepare(req models.PricingRequest) (models.Model, simSettings, error) {
	model, ok := models.ParseModel(string(req.Model))
	if !ok {
		return "", simSettings{}, &errors.ValidationError{
			Field:   "model",
			Value:   req.Model,
			Message: "must be closed-form, black-scholes or monte-carlo",
			Err:     errors.ErrInvalidModel,
		}
	}
	if req.Simulations < 0 {
		return "", simSettings{}, errors.NewValidationError("simulations", req.Simulations, "must not be negative")
	}
	if req.Steps < 0 {
		return "", simSettings{}, errors.NewValidationError("steps", req.Steps, "must not be negative")
	}

	sim := simSettings{
		paths:      e.opts.Simulations,
		steps:      e.opts.Steps,
		seed:       e.opts.Seed,
		workers:    e.opts.Workers,
		chunkSize:  e.opts.ChunkSize,
		antithetic: e.opts.Antithetic,
		bridge:     e.opts.BridgeCorrection,
	}
	if req.Simulations > 0 {
		sim.paths = req.Simulations
	}
	if req.Steps > 0 {
		sim.steps = req.Steps
	}
	if req.Seed != 0 {
		sim.seed = req.Seed
	}
	if sim.seed == 0 {
		sim.seed = defaultSeed
	}
	return model, sim, nil
}

// value dispatches a resolved contract to its pricer.
func (e *Engine) value(ctx context.Context, c contract, model models.Model, sim simSettings) (estimate, string, error) {
	mc := model.IsMonteCarlo()
	switch {
	case c.kind == models.KindForward:
		return estimate{}, models.MethodForward, nil
	case c.kind == models.KindSwap:
		return estimate{}, models.MethodSwap, nil
	case c.kind.IsVanilla():
		if mc {
			est, err := vanillaMonteCarlo(ctx, c, sim)
			return est, models.MethodMonteCarlo, err
		}
		return estimate{mean: c.blackScholes()}, models.MethodBlackScholes, nil
	case c.kind.IsBarrier():
		if mc {
			est, err := barrierMonteCarlo(ctx, c, sim)
			return est, models.MethodBarrierMonteCarlo, err
		}
		v, method := barrierAnalytic(c)
		return estimate{mean: v}, method, nil
	case c.kind.IsDigital():
		if !mc && (c.kind == models.KindDoubleNoTouch || c.kind == models.KindDoubleTouch || c.kind == models.KindRangeBinary) {
			return estimate{mean: doubleTouchAnalytic(c)}, models.MethodDoubleBarrierSeries, nil
		}
		est, err := digitalMonteCarlo(ctx, c, sim)
		return est, models.MethodDigitalMonteCarlo, err
	}
	return estimate{}, "", errors.ErrUnsupportedKind
}
