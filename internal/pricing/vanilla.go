package pricing

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"strategy-pricer/internal/models"
)

// minStdDev is the total volatility below which a contract is treated as deterministic.
const minStdDev = 1e-10

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// intrinsic is the exercise value of a vanilla payoff at spot s.
func intrinsic(typ models.OptionType, s, k float64) float64 {
	switch typ {
	case models.OptionTypeCall:
		return math.Max(s-k, 0)
	case models.OptionTypePut:
		return math.Max(k-s, 0)
	}
	return 0
}

// ForwardPrice returns S·e^{(r-q)t} for decimal rates.
func ForwardPrice(spot, rate, foreignRate, t float64) float64 {
	return spot * math.Exp((rate-foreignRate)*t)
}

// BlackScholes prices a European option with cost of carry b (b = r for a
// non-paying underlying, b = r - q for a dividend or foreign-rate carry).
// Expired options return intrinsic value; a vanishing σ√t returns the
// discounted intrinsic value of the forward.
func BlackScholes(typ models.OptionType, s, k, r, b, vol, t float64) float64 {
	if t <= 0 {
		return intrinsic(typ, s, k)
	}
	sd := vol * math.Sqrt(t)
	if sd < minStdDev {
		return math.Exp(-r*t) * intrinsic(typ, s*math.Exp(b*t), k)
	}

	d1 := (math.Log(s/k) + (b+0.5*vol*vol)*t) / sd
	d2 := d1 - sd
	carryDisc := math.Exp((b - r) * t)
	disc := math.Exp(-r * t)

	var price float64
	switch typ {
	case models.OptionTypeCall:
		price = s*carryDisc*normCDF(d1) - k*disc*normCDF(d2)
	case models.OptionTypePut:
		price = k*disc*normCDF(-d2) - s*carryDisc*normCDF(-d1)
	}
	return math.Max(price, 0)
}

func (c contract) blackScholes() float64 {
	return BlackScholes(c.optionType(), c.spot, c.strike, c.rate, c.carry, c.vol, c.t)
}

// vanillaMonteCarlo estimates the discounted expected payoff by sampling S_T.
func vanillaMonteCarlo(ctx context.Context, c contract, sim simSettings) (estimate, error) {
	if c.t <= 0 {
		return estimate{mean: intrinsic(c.optionType(), c.spot, c.strike)}, nil
	}
	if c.stdDev() < minStdDev {
		return estimate{mean: c.blackScholes()}, nil
	}
	typ, k := c.optionType(), c.strike
	est, err := sim.terminal(ctx, c.process(), func(st float64) float64 {
		return intrinsic(typ, st, k)
	})
	if err != nil {
		return estimate{}, err
	}
	disc := math.Exp(-c.rate * c.t)
	return estimate{mean: disc * est.mean, stdErr: disc * est.stdErr}, nil
}
