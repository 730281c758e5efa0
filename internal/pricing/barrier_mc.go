package pricing

import (
	"context"
	"math"
)

// watch returns the levels that knock a barrier contract in or out.
func (c contract) watch() barrierWatch {
	w := watchNone()
	switch {
	case c.kind.IsDouble():
		w.lower, w.upper = c.lower, c.upper
	case watchesUp(c.kind):
		w.upper = c.barrier
	default:
		w.lower = c.barrier
	}
	return w
}

// barrierMonteCarlo simulates monitored paths and pays the vanilla payoff when the
// knock condition holds at maturity.
func barrierMonteCarlo(ctx context.Context, c contract, sim simSettings) (estimate, error) {
	if v, ok := c.resolvedBarrier(); ok {
		return estimate{mean: v}, nil
	}

	typ, k := c.optionType(), c.strike
	knockIn := c.kind.IsKnockIn()
	est, err := sim.walk(ctx, c.process(), c.watch(), func(o pathOutcome) float64 {
		if o.touched() != knockIn {
			return 0
		}
		return intrinsic(typ, o.terminal, k)
	})
	if err != nil {
		return estimate{}, err
	}
	disc := math.Exp(-c.rate * c.t)
	return estimate{mean: disc * est.mean, stdErr: disc * est.stdErr}, nil
}
