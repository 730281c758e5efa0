package pricing

import (
	"math"

	"strategy-pricer/internal/models"
)

// doubleBarrierTerms is the number of reflections summed on each side of n = 0.
// Terms decay like exp(-n²), so ten is far below 1e-6 for any sane corridor.
const doubleBarrierTerms = 10

// watchesUp reports whether a single-barrier kind is knocked by the spot rising
// through its barrier. Calls watch upwards and puts downwards; reverse kinds flip it.
func watchesUp(kind models.InstrumentKind) bool {
	call := kind.OptionType() == models.OptionTypeCall
	return call != kind.IsReverse()
}

// knocked reports whether spot s has already breached the contract's barrier.
func (c contract) knocked(s float64) bool {
	if c.kind.IsDouble() {
		return s <= c.lower || s >= c.upper
	}
	if watchesUp(c.kind) {
		return s >= c.barrier
	}
	return s <= c.barrier
}

// resolvedBarrier prices a barrier option whose outcome no longer depends on the
// path: an expired contract, a spot that already sits beyond the barrier, or a
// deterministic underlying.
func (c contract) resolvedBarrier() (float64, bool) {
	hit := c.knocked(c.spot)
	switch {
	case c.t <= 0:
		if hit == c.kind.IsKnockIn() {
			return intrinsic(c.optionType(), c.spot, c.strike), true
		}
		return 0, true
	case hit:
		if c.kind.IsKnockIn() {
			return c.blackScholes(), true
		}
		return 0, true
	case c.stdDev() < minStdDev:
		// The spot follows its forward, so it is knocked iff the forward ends beyond the barrier.
		if c.knocked(c.spot*math.Exp(c.carry*c.t)) == c.kind.IsKnockIn() {
			return c.blackScholes(), true
		}
		return 0, true
	}
	return 0, false
}

// barrierAnalytic values single and double barrier options in closed form.
func barrierAnalytic(c contract) (float64, string) {
	method := models.MethodBarrierAnalytic
	if c.kind.IsDouble() {
		method = models.MethodDoubleBarrierSeries
	}
	if v, ok := c.resolvedBarrier(); ok {
		return v, method
	}

	var out float64
	if c.kind.IsDouble() {
		out = doubleKnockOut(c)
	} else {
		out = singleKnockOut(c)
	}
	if !c.kind.IsKnockIn() {
		return math.Max(out, 0), method
	}
	return math.Max(c.blackScholes()-out, 0), method
}

// singleKnockOut is the Reiner-Rubinstein knock-out value without rebate. The
// knock-in value follows from in + out = vanilla.
func singleKnockOut(c contract) float64 {
	s, x, h := c.spot, c.strike, c.barrier
	r, b, vol, t := c.rate, c.carry, c.vol, c.t
	sd := vol * math.Sqrt(t)

	phi := 1.0
	if c.optionType() == models.OptionTypePut {
		phi = -1
	}
	up := watchesUp(c.kind)
	eta := 1.0
	if up {
		eta = -1
	}

	lambda := (b + 0.5*vol*vol) / (vol * vol)
	x1 := math.Log(s/x)/sd + lambda*sd
	x2 := math.Log(s/h)/sd + lambda*sd
	y1 := math.Log(h*h/(s*x))/sd + lambda*sd
	y2 := math.Log(h/s)/sd + lambda*sd

	carryDisc := math.Exp((b - r) * t)
	disc := math.Exp(-r * t)
	hs := h / s
	reflS := math.Pow(hs, 2*lambda)
	reflX := math.Pow(hs, 2*lambda-2)

	A := phi*s*carryDisc*normCDF(phi*x1) - phi*x*disc*normCDF(phi*x1-phi*sd)
	B := phi*s*carryDisc*normCDF(phi*x2) - phi*x*disc*normCDF(phi*x2-phi*sd)
	C := phi*s*carryDisc*reflS*normCDF(eta*y1) - phi*x*disc*reflX*normCDF(eta*y1-eta*sd)
	D := phi*s*carryDisc*reflS*normCDF(eta*y2) - phi*x*disc*reflX*normCDF(eta*y2-eta*sd)

	strikeAbove := x > h
	call := phi > 0
	switch {
	case call && !up: // down-and-out call
		if strikeAbove {
			return A - C
		}
		return B - D
	case call && up: // up-and-out call
		if strikeAbove {
			return 0
		}
		return A - B + C - D
	case !call && !up: // down-and-out put
		if strikeAbove {
			return A - B + C - D
		}
		return 0
	default: // up-and-out put
		if strikeAbove {
			return B - D
		}
		return A - C
	}
}

// doubleKnockOut is the Ikeda-Kunitomo reflection series for flat barriers.
// The payoff region is clipped to the corridor, so strikes outside [L, U] are fine.
func doubleKnockOut(c contract) float64 {
	s, x, l, u := c.spot, c.strike, c.lower, c.upper
	var lo, hi float64
	if c.optionType() == models.OptionTypeCall {
		lo, hi = math.Max(x, l), u
	} else {
		lo, hi = l, math.Min(x, u)
	}
	if lo >= hi {
		return 0
	}

	shareLeg := corridorSeries(c, lo, hi, 0)
	cashLeg := corridorSeries(c, lo, hi, 1)
	value := s*math.Exp((c.carry-c.rate)*c.t)*shareLeg - x*math.Exp(-c.rate*c.t)*cashLeg
	if c.optionType() == models.OptionTypePut {
		value = -value
	}
	return value
}

// corridorSeries sums the image terms for a payoff region [lo, hi] inside (L, U).
// shift 0 gives the share-measure weight and shift 1 the risk-neutral probability
// of ending in [lo, hi] without touching either barrier.
func corridorSeries(c contract, lo, hi, shift float64) float64 {
	lnS, lnL, lnU := math.Log(c.spot), math.Log(c.lower), math.Log(c.upper)
	vol, t := c.vol, c.t
	sd := vol * math.Sqrt(t)
	mu := 2*c.carry/(vol*vol) + 1 - 2*shift
	drift := (c.carry + 0.5*vol*vol) * t
	lnLo, lnHi := math.Log(lo), math.Log(hi)

	band := func(lnNum float64) float64 {
		dLo := (lnNum-lnLo+drift)/sd - shift*sd
		dHi := (lnNum-lnHi+drift)/sd - shift*sd
		return normCDF(dLo) - normCDF(dHi)
	}

	var sum float64
	for n := -doubleBarrierTerms; n <= doubleBarrierTerms; n++ {
		fn := float64(n)
		width := fn * (lnU - lnL)
		lnDirect := lnS + 2*width
		lnImage := (2*fn+2)*lnL - lnS - 2*fn*lnU
		wDirect := math.Exp(mu * width)
		wImage := math.Exp(mu * ((fn+1)*lnL - fn*lnU - lnS))

		sum += wDirect*band(lnDirect) - wImage*band(lnImage)
	}
	return sum
}

// survivalProbability is the risk-neutral probability that the spot stays strictly
// inside (L, U) until maturity.
func survivalProbability(c contract) float64 {
	if c.t <= 0 || c.stdDev() < minStdDev {
		end := c.spot * math.Exp(c.carry*math.Max(c.t, 0))
		lo, hi := math.Min(c.spot, end), math.Max(c.spot, end)
		if lo > c.lower && hi < c.upper {
			return 1
		}
		return 0
	}
	if c.spot <= c.lower || c.spot >= c.upper {
		return 0
	}
	p := corridorSeries(c, c.lower, c.upper, 1)
	return math.Min(math.Max(p, 0), 1)
}
