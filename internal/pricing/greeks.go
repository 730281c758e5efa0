package pricing

import (
	"context"
	"math"

	"strategy-pricer/internal/models"
)

// Greeks returns the sensitivities of a leg scaled by its signed quantity.
func (e *Engine) Greeks(ctx context.Context, req models.PricingRequest) (models.Greeks, error) {
	req.WithGreeks = true
	res, err := e.Price(ctx, req)
	if err != nil {
		return models.Greeks{}, err
	}
	return *res.Greeks, nil
}

// greeks bumps the resolved contract and reprices it with the same simulation
// settings, so Monte-Carlo bumps share their random numbers with the base price.
// Strike and barrier levels stay fixed in price units. base is the unfloored
// value of c.
func (e *Engine) greeks(ctx context.Context, c contract, model models.Model, sim simSettings, base float64) (models.Greeks, error) {
	switch c.kind {
	case models.KindForward:
		return models.Greeks{Delta: 1}, nil
	case models.KindSwap:
		return models.Greeks{}, nil
	}

	price := func(b contract) (float64, error) {
		est, _, err := e.value(ctx, b, model, sim)
		return est.mean, err
	}
	bumps := e.opts.Bumps
	var g models.Greeks

	// Spot
	dS := c.spot * bumps.SpotPct / 100
	up, down := c, c
	up.spot += dS
	down.spot -= dS
	pUp, err := price(up)
	if err != nil {
		return g, err
	}
	pDown, err := price(down)
	if err != nil {
		return g, err
	}
	g.Delta = (pUp - pDown) / (2 * dS)
	g.Gamma = (pUp - 2*base + pDown) / (dS * dS)

	// Volatility, one-sided when the down bump would go negative.
	dv := bumps.Vol
	up, down = c, c
	up.vol += dv
	pUp, err = price(up)
	if err != nil {
		return g, err
	}
	if c.vol-dv >= 0 {
		down.vol -= dv
		pDown, err = price(down)
		if err != nil {
			return g, err
		}
		g.Vega = (pUp - pDown) / (2 * dv)
	} else {
		g.Vega = (pUp - base) / dv
	}

	// Domestic rate; the carry moves with it.
	dr := bumps.Rate
	up, down = c, c
	up.rate += dr
	up.carry += dr
	down.rate -= dr
	down.carry -= dr
	pUp, err = price(up)
	if err != nil {
		return g, err
	}
	pDown, err = price(down)
	if err != nil {
		return g, err
	}
	g.Rho = (pUp - pDown) / (2 * dr)

	// Time: one step closer to maturity, capped at the time left.
	dt := math.Min(bumps.TimeDays/365, c.t)
	if dt > 0 {
		later := c
		later.t -= dt
		if later.tPay >= 0 {
			later.tPay = math.Max(later.tPay-dt, 0)
		}
		pLater, err := price(later)
		if err != nil {
			return g, err
		}
		g.Theta = (pLater - base) / dt
	}
	return g, nil
}
