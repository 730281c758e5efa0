package pricing

import (
	"context"
	"math"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/logging"
	"strategy-pricer/internal/models"
)

// collapseWidth is the strike-percent interval below which bisection stops.
const collapseWidth = 1e-9

// SolveRequest asks for the strike of Solve that makes its premium offset Fixed.
// Solve's own strike is ignored; it is searched as a percent of spot.
type SolveRequest struct {
	Fixed       models.Leg
	Solve       models.Leg
	Market      models.MarketSnapshot
	Model       models.Model
	Simulations int
	Steps       int
	Seed        uint64
}

// SolveZeroCost bisects the strike of req.Solve until its premium times its
// quantity matches the premium of req.Fixed. A search that runs out of iterations
// returns the closest strike seen with Converged set to false.
func (e *Engine) SolveZeroCost(ctx context.Context, req SolveRequest) (models.SolverResult, error) {
	typ := req.Solve.Kind.OptionType()
	if typ == models.OptionTypeNone {
		return models.SolverResult{}, errors.NewLegError("kind", req.Solve.Kind, "solved leg must be a call or put family option")
	}
	if req.Fixed.Kind.IsLinear() {
		return models.SolverResult{}, errors.NewLegError("kind", req.Fixed.Kind, "fixed leg must carry a premium")
	}

	priceOf := func(leg models.Leg) (float64, error) {
		res, err := e.Price(ctx, models.PricingRequest{
			Leg:         leg,
			Market:      req.Market,
			Model:       req.Model,
			Simulations: req.Simulations,
			Steps:       req.Steps,
			Seed:        req.Seed,
		})
		return res.Price, err
	}

	fixed, err := priceOf(req.Fixed)
	if err != nil {
		return models.SolverResult{}, err
	}
	target := fixed
	if req.Fixed.Quantity != 0 && req.Solve.Quantity != 0 {
		target *= math.Abs(req.Fixed.Quantity / req.Solve.Quantity)
	}

	opts := e.opts.Solver
	leg := req.Solve
	leg.StrikeMode = models.ModePercent
	lo, hi := opts.MinPct, opts.MaxPct

	result := models.SolverResult{Target: target}
	bestGap := math.Inf(1)
	for i := 1; i <= opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return models.SolverResult{}, err
		}
		mid := 0.5 * (lo + hi)
		leg.Strike = mid
		p, err := priceOf(leg)
		if err != nil {
			return models.SolverResult{}, err
		}
		result.Iterations = i

		gap := math.Abs(p - target)
		if gap < bestGap {
			bestGap = gap
			result.StrikePct, result.Price = mid, p
		}
		if gap < opts.Tolerance {
			result.Converged = true
			break
		}

		// Calls cheapen as the strike rises, puts get dearer.
		tooRich := p > target
		if (typ == models.OptionTypeCall) == tooRich {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < collapseWidth {
			break
		}
	}
	result.Strike = req.Market.Spot * result.StrikePct / 100

	logging.LogSolve(e.logger, string(leg.Kind), result.StrikePct, result.Price, target, result.Iterations, result.Converged)
	return result, nil
}
