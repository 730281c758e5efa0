package pricing

import (
	"context"
	"math"

	"strategy-pricer/internal/models"
)

// digitalWatch returns the levels a touch contract is monitored against. The side
// of a single one-touch or no-touch barrier is fixed when the leg is resolved, so a
// bumped spot past an upper barrier counts as a touch rather than a new lower one.
func (c contract) digitalWatch() barrierWatch {
	w := watchNone()
	switch c.kind {
	case models.KindOneTouch, models.KindNoTouch:
		if c.watchUp {
			w.upper = c.barrier
		} else {
			w.lower = c.barrier
		}
	default:
		w.lower, w.upper = c.lower, c.upper
	}
	return w
}

// digitalPays reports whether a digital pays its rebate for the given outcome.
func digitalPays(kind models.InstrumentKind, o pathOutcome, lower, upper float64) bool {
	switch kind {
	case models.KindOneTouch, models.KindDoubleTouch:
		return o.touched()
	case models.KindNoTouch, models.KindDoubleNoTouch, models.KindRangeBinary:
		return !o.touched()
	case models.KindOutsideBinary:
		return o.terminal < lower || o.terminal > upper
	}
	return false
}

// isTerminalDigital reports whether the payout depends on the terminal spot only.
// A range binary must stay inside its corridor and is monitored like a double
// no-touch; an outside binary only has to end outside it.
func isTerminalDigital(kind models.InstrumentKind) bool {
	return kind == models.KindOutsideBinary
}

// digitalProbability estimates the probability that the digital pays.
func digitalProbability(ctx context.Context, c contract, sim simSettings) (estimate, error) {
	w := c.digitalWatch()
	if c.t <= 0 || c.stdDev() < minStdDev {
		// The path is the deterministic forward curve, so only the endpoints matter.
		end := c.spot * math.Exp(c.carry*math.Max(c.t, 0))
		o := pathOutcome{terminal: end}
		lo, hi := math.Min(c.spot, end), math.Max(c.spot, end)
		o.hitLower = w.hasLower() && lo <= w.lower
		o.hitUpper = w.hasUpper() && hi >= w.upper
		if digitalPays(c.kind, o, c.lower, c.upper) {
			return estimate{mean: 1}, nil
		}
		return estimate{}, nil
	}

	kind, lower, upper := c.kind, c.lower, c.upper
	if isTerminalDigital(kind) {
		return sim.terminal(ctx, c.process(), func(st float64) float64 {
			if digitalPays(kind, pathOutcome{terminal: st}, lower, upper) {
				return 1
			}
			return 0
		})
	}
	return sim.walk(ctx, c.process(), w, func(o pathOutcome) float64 {
		if digitalPays(kind, o, lower, upper) {
			return 1
		}
		return 0
	})
}

// digitalMonteCarlo prices a digital as rebate·e^{-rT}·P̂(event).
func digitalMonteCarlo(ctx context.Context, c contract, sim simSettings) (estimate, error) {
	p, err := digitalProbability(ctx, c, sim)
	if err != nil {
		return estimate{}, err
	}
	scale := c.rebate * math.Exp(-c.rate*c.discountTime())
	return estimate{mean: scale * p.mean, stdErr: scale * p.stdErr}, nil
}

// doubleTouchAnalytic prices double-touch, double-no-touch and range binary
// contracts from the closed-form survival probability of the corridor.
func doubleTouchAnalytic(c contract) float64 {
	p := survivalProbability(c)
	if c.kind == models.KindDoubleTouch {
		p = 1 - p
	}
	return c.rebate * math.Exp(-c.rate*c.discountTime()) * p
}
