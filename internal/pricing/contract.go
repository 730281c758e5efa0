package pricing

import (
	"math"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/models"
)

// contract is a leg resolved against a market snapshot: every level is in price
// units and every rate is a decimal. Greeks bump these fields directly, so the
// strike and barriers stay where they were fixed at the original spot.
type contract struct {
	kind    models.InstrumentKind
	spot    float64
	strike  float64
	barrier float64 // single barrier level
	watchUp bool    // a single touch barrier fixed at or above the market spot
	lower   float64 // min(barrier, secondBarrier) for double kinds
	upper   float64 // max(barrier, secondBarrier) for double kinds
	rebate  float64
	vol     float64
	rate    float64
	carry   float64
	t       float64
	tPay    float64 // time to payoff, negative when not given
}

// resolve validates leg and market and converts them into a contract. Barriers are
// rescaled to price units before lower/upper are derived.
func resolve(leg models.Leg, mkt models.MarketSnapshot, dc DayCount) (contract, error) {
	if !leg.Kind.Valid() {
		return contract{}, errors.NewPricingError(string(leg.Kind), "resolve", errors.ErrUnsupportedKind)
	}
	if mkt.Spot <= 0 || math.IsNaN(mkt.Spot) || math.IsInf(mkt.Spot, 0) {
		return contract{}, errors.NewMarketError("spot", mkt.Spot, "must be a positive number")
	}
	if mkt.Volatility < 0 {
		return contract{}, errors.NewMarketError("volatility", mkt.Volatility, "must not be negative")
	}
	if leg.Volatility < 0 {
		return contract{}, errors.NewLegError("volatility", leg.Volatility, "must not be negative")
	}
	if leg.Rebate < 0 {
		return contract{}, errors.NewLegError("rebate", leg.Rebate, "must not be negative")
	}

	c := contract{
		kind:  leg.Kind,
		spot:  mkt.Spot,
		vol:   mkt.VolatilityFor(leg),
		rate:  mkt.Rate(),
		carry: mkt.Carry(),
		t:     YearFraction(mkt.ValuationDate, mkt.MaturityDate, dc),
		tPay:  -1,
	}

	c.strike = leg.StrikeMode.Resolve(leg.Strike, mkt.Spot)
	switch {
	case leg.Kind.IsLinear():
		if c.strike < 0 {
			return contract{}, errors.NewLegError("strike", leg.Strike, "must not be negative")
		}
	case !leg.Kind.IsDigital():
		if c.strike <= 0 {
			return contract{}, errors.NewLegError("strike", leg.Strike, "must be positive")
		}
	}

	if leg.Kind.NeedsBarrier() {
		c.barrier = leg.BarrierMode.Resolve(leg.Barrier, mkt.Spot)
		if c.barrier <= 0 {
			return contract{}, errors.NewLegError("barrier", leg.Barrier, "must be positive")
		}
		c.lower, c.upper = c.barrier, c.barrier
		c.watchUp = c.barrier >= mkt.Spot
		if leg.Kind.IsDouble() {
			second := leg.BarrierMode.Resolve(leg.SecondBarrier, mkt.Spot)
			if second <= 0 {
				return contract{}, errors.NewLegError("second_barrier", leg.SecondBarrier, "must be positive")
			}
			if second == c.barrier {
				return contract{}, errors.NewLegError("second_barrier", leg.SecondBarrier, "must differ from barrier")
			}
			c.lower = math.Min(c.barrier, second)
			c.upper = math.Max(c.barrier, second)
		}
	}

	if leg.Kind.IsDigital() {
		c.rebate = mkt.Spot * leg.Rebate / 100
	}
	if leg.TimeToPayoff != nil {
		if *leg.TimeToPayoff < 0 {
			return contract{}, errors.NewLegError("time_to_payoff", *leg.TimeToPayoff, "must not be negative")
		}
		c.tPay = *leg.TimeToPayoff
	}
	return c, nil
}

func (c contract) optionType() models.OptionType { return c.kind.OptionType() }

// discountTime is the time the rebate of a digital is discounted over.
func (c contract) discountTime() float64 {
	if c.kind == models.KindOneTouch && c.tPay >= 0 {
		return c.tPay
	}
	return c.t
}

func (c contract) process() gbm {
	return gbm{spot: c.spot, drift: c.carry, vol: c.vol, t: c.t}
}

// stdDev is the total volatility over the life of the contract.
func (c contract) stdDev() float64 {
	if c.t <= 0 {
		return 0
	}
	return c.vol * math.Sqrt(c.t)
}
