package pricing

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/models"
)

// IntrinsicPayoff is the per-unit payoff of leg if the spot ended at s. Levels
// quoted in percent are resolved against originalSpot.
//
// Barrier and touch legs use a static test against s alone, as if the spot had
// jumped straight there. This is a charting approximation and does not agree with
// the path-dependent prices.
func IntrinsicPayoff(leg models.Leg, s, originalSpot float64) (float64, error) {
	c, err := resolve(leg, models.MarketSnapshot{Spot: originalSpot}, Act365F)
	if err != nil {
		return 0, err
	}
	switch {
	case c.kind.IsLinear():
		return s - c.strike, nil
	case c.kind.IsVanilla():
		return intrinsic(c.optionType(), s, c.strike), nil
	case c.kind.IsBarrier():
		if c.knocked(s) != c.kind.IsKnockIn() {
			return 0, nil
		}
		return intrinsic(c.optionType(), s, c.strike), nil
	case c.kind.IsDigital():
		w := c.digitalWatch()
		o := pathOutcome{
			terminal: s,
			hitLower: w.hasLower() && s <= w.lower,
			hitUpper: w.hasUpper() && s >= w.upper,
		}
		if digitalPays(c.kind, o, c.lower, c.upper) {
			return c.rebate, nil
		}
		return 0, nil
	}
	return 0, errors.NewPricingError(string(leg.Kind), "payoff", errors.ErrUnsupportedKind)
}

// PayoffAtPrice sums the signed intrinsic payoffs of legs at hypotheticalSpot.
func PayoffAtPrice(legs []models.Leg, hypotheticalSpot, originalSpot float64) (float64, error) {
	var total float64
	for _, leg := range legs {
		p, err := IntrinsicPayoff(leg, hypotheticalSpot, originalSpot)
		if err != nil {
			return 0, err
		}
		total += leg.Quantity * p
	}
	return total, nil
}

// PayoffCurve samples PayoffAtPrice at points evenly spaced spots between lowPct
// and highPct of originalSpot, inclusive.
func PayoffCurve(legs []models.Leg, originalSpot, lowPct, highPct float64, points int) ([]models.PayoffPoint, error) {
	if lowPct <= 0 {
		return nil, errors.NewValidationError("range", [2]float64{lowPct, highPct}, "must start above 0")
	}
	spots, err := linspace(originalSpot*lowPct/100, originalSpot*highPct/100, points)
	if err != nil {
		return nil, err
	}
	curve := make([]models.PayoffPoint, len(spots))
	for i, s := range spots {
		p, err := PayoffAtPrice(legs, s, originalSpot)
		if err != nil {
			return nil, err
		}
		curve[i] = models.PayoffPoint{Spot: s, Payoff: p}
	}
	return curve, nil
}

// EvaluateStrategy prices every leg and aggregates the signed premium and Greeks.
func (e *Engine) EvaluateStrategy(ctx context.Context, legs []models.Leg, market models.MarketSnapshot, model models.Model) (models.StrategyValuation, error) {
	out := models.StrategyValuation{Legs: make([]models.LegValuation, 0, len(legs))}
	for i, leg := range legs {
		res, err := e.Price(ctx, models.PricingRequest{
			Leg:        leg,
			Market:     market,
			Model:      model,
			WithGreeks: true,
		})
		if err != nil {
			return models.StrategyValuation{}, errors.Wrapf(err, "leg %d", i+1)
		}
		out.Legs = append(out.Legs, models.LegValuation{Leg: leg, Result: res})
		out.NetPremium += leg.Quantity * res.Price
		out.Greeks = out.Greeks.Add(*res.Greeks)
	}
	return out, nil
}

// SensitivityPoint is one point of a price sensitivity curve.
type SensitivityPoint struct {
	X     float64 `json:"x"`
	Price float64 `json:"price"`
}

// SpotCurve reprices req across spots from lowPct to highPct of the market spot.
// Strike and barrier levels stay fixed in price units.
func (e *Engine) SpotCurve(ctx context.Context, req models.PricingRequest, lowPct, highPct float64, points int) ([]SensitivityPoint, error) {
	if lowPct <= 0 {
		return nil, errors.NewValidationError("range", [2]float64{lowPct, highPct}, "must start above 0")
	}
	xs, err := linspace(req.Market.Spot*lowPct/100, req.Market.Spot*highPct/100, points)
	if err != nil {
		return nil, err
	}
	return e.curve(ctx, req, xs, func(c *contract, x float64) { c.spot = x })
}

// VolCurve reprices req across volatilities from low to high, in percent.
func (e *Engine) VolCurve(ctx context.Context, req models.PricingRequest, low, high float64, points int) ([]SensitivityPoint, error) {
	if low < 0 {
		return nil, errors.NewValidationError("range", [2]float64{low, high}, "must not be negative")
	}
	xs, err := linspace(low, high, points)
	if err != nil {
		return nil, err
	}
	return e.curve(ctx, req, xs, func(c *contract, x float64) { c.vol = x / 100 })
}

func linspace(low, high float64, points int) ([]float64, error) {
	if points < 2 {
		return nil, errors.NewValidationError("points", points, "must be at least 2")
	}
	if high <= low {
		return nil, errors.NewValidationError("range", [2]float64{low, high}, "high must exceed low")
	}
	xs := make([]float64, points)
	floats.Span(xs, low, high)
	return xs, nil
}

func (e *Engine) curve(ctx context.Context, req models.PricingRequest, xs []float64, set func(*contract, float64)) ([]SensitivityPoint, error) {
	model, sim, err := e.prepare(req)
	if err != nil {
		return nil, err
	}
	base, err := resolve(req.Leg, req.Market, e.opts.DayCount)
	if err != nil {
		return nil, err
	}
	out := make([]SensitivityPoint, len(xs))
	for i, x := range xs {
		c := base
		set(&c, x)
		est, _, err := e.value(ctx, c, model, sim)
		if err != nil {
			return nil, errors.NewPricingError(string(c.kind), "curve", err)
		}
		out[i] = SensitivityPoint{X: x, Price: math.Max(est.mean, 0)}
	}
	return out, nil
}
