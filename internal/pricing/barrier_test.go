package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"strategy-pricer/internal/models"
)

// knockPairs maps every knock-out kind to its knock-in twin.
var knockPairs = map[models.InstrumentKind]models.InstrumentKind{
	models.KindCallKnockOut:        models.KindCallKnockIn,
	models.KindCallReverseKnockOut: models.KindCallReverseKnockIn,
	models.KindPutKnockOut:         models.KindPutKnockIn,
	models.KindPutReverseKnockOut:  models.KindPutReverseKnockIn,
	models.KindCallDoubleKnockOut:  models.KindCallDoubleKnockIn,
	models.KindPutDoubleKnockOut:   models.KindPutDoubleKnockIn,
}

func singleContract(kind models.InstrumentKind, s, k, h, r, vol, t float64) contract {
	return contract{kind: kind, spot: s, strike: k, barrier: h, lower: h, upper: h, rate: r, carry: r, vol: vol, t: t, tPay: -1}
}

func doubleContract(kind models.InstrumentKind, s, k, l, u, r, vol, t float64) contract {
	return contract{kind: kind, spot: s, strike: k, lower: l, upper: u, barrier: l, rate: r, carry: r, vol: vol, t: t, tPay: -1}
}

func TestUpAndOutCallBelowVanilla(t *testing.T) {
	e := newTestEngine()
	mkt := market(100, 20, 5, 1)

	out := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockOut, 100, 120, 0), Market: mkt})
	vanilla := mustPrice(t, e, models.PricingRequest{Leg: leg(models.KindCall, 100), Market: mkt})

	assertClose(t, "up-and-out call", out.Price, 1.17607, 1e-3)
	if out.Price >= vanilla.Price {
		t.Errorf("knock-out %f should be below vanilla %f", out.Price, vanilla.Price)
	}
}

func TestBarrierDirections(t *testing.T) {
	tests := []struct {
		kind models.InstrumentKind
		up   bool
	}{
		{models.KindCallKnockOut, true},
		{models.KindCallKnockIn, true},
		{models.KindCallReverseKnockOut, false},
		{models.KindPutKnockOut, false},
		{models.KindPutReverseKnockIn, true},
	}
	for _, tt := range tests {
		if got := watchesUp(tt.kind); got != tt.up {
			t.Errorf("watchesUp(%s) = %v, want %v", tt.kind, got, tt.up)
		}
	}
}

func TestDoubleKnockOutReferenceValues(t *testing.T) {
	call := doubleContract(models.KindCallDoubleKnockOut, 100, 100, 80, 130, 0.05, 0.2, 0.5)
	put := doubleContract(models.KindPutDoubleKnockOut, 100, 100, 80, 130, 0.05, 0.2, 0.5)
	narrow := doubleContract(models.KindCallDoubleKnockOut, 100, 100, 90, 110, 0.05, 0.2, 0.5)

	assertClose(t, "double knock-out call", doubleKnockOut(call), 4.5622, 1e-3)
	assertClose(t, "double knock-out put", doubleKnockOut(put), 2.5942, 1e-3)
	assertClose(t, "narrow double knock-out call", doubleKnockOut(narrow), 0.17868, 1e-3)
}

func TestDoubleBarrierOrderDoesNotMatter(t *testing.T) {
	e := newTestEngine()
	mkt := market(100, 20, 5, 0.5)

	a := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallDoubleKnockOut, 100, 80, 130), Market: mkt})
	b := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallDoubleKnockOut, 100, 130, 80), Market: mkt})
	if a.Price != b.Price {
		t.Errorf("barrier order changed the price: %f vs %f", a.Price, b.Price)
	}
	assertClose(t, "double knock-out call", a.Price, 4.5622, 1e-3)
}

func TestKnockedSpotShortCircuits(t *testing.T) {
	e := newTestEngine()
	mkt := market(100, 20, 5, 1)
	vanilla := mustPrice(t, e, models.PricingRequest{Leg: leg(models.KindCall, 100), Market: mkt}).Price

	for _, model := range []models.Model{models.ModelClosedForm, models.ModelMonteCarlo} {
		// Barrier at 95% sits below spot, so an up-watching call is already through it.
		out := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockOut, 100, 95, 0), Market: mkt, Model: model})
		if out.Price != 0 {
			t.Errorf("%s: knocked-out price = %f, want 0", model, out.Price)
		}
		in := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockIn, 100, 95, 0), Market: mkt, Model: model})
		assertClose(t, string(model)+" knocked-in", in.Price, vanilla, 1e-12)
	}
}

func TestExpiredBarrierIsResolved(t *testing.T) {
	e := newTestEngine()
	mkt := market(100, 20, 5, 0)
	mkt.MaturityDate = mkt.ValuationDate

	out := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockOut, 90, 120, 0), Market: mkt})
	in := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockIn, 90, 120, 0), Market: mkt})
	assertClose(t, "expired knock-out", out.Price, 10, 1e-12)
	assertClose(t, "expired knock-in", in.Price, 0, 1e-12)
}

func TestKnockOutContinuousAtBarrier(t *testing.T) {
	prev := math.Inf(1)
	for _, s := range []float64{119, 119.9, 119.99, 119.999} {
		v, _ := barrierAnalytic(singleContract(models.KindCallKnockOut, s, 100, 120, 0.05, 0.2, 1))
		if v > prev {
			t.Errorf("price rose approaching the barrier: S=%v gives %f after %f", s, v, prev)
		}
		prev = v
	}
	if prev > 1e-3 {
		t.Errorf("price next to the barrier = %f, want near 0", prev)
	}
	at, _ := barrierAnalytic(singleContract(models.KindCallKnockOut, 120, 100, 120, 0.05, 0.2, 1))
	if at != 0 {
		t.Errorf("price at the barrier = %f, want 0", at)
	}
}

func TestBarrierMonteCarloMatchesClosedForm(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		leg  models.Leg
		mkt  models.MarketSnapshot
	}{
		{"up-and-out call", barrierLeg(models.KindCallKnockOut, 100, 120, 0), market(100, 20, 5, 1)},
		{"down-and-out put", barrierLeg(models.KindPutKnockOut, 100, 85, 0), market(100, 20, 5, 1)},
		{"double knock-out call", barrierLeg(models.KindCallDoubleKnockOut, 100, 80, 130), market(100, 20, 5, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := mustPrice(t, e, models.PricingRequest{Leg: tt.leg, Market: tt.mkt})
			mc := mustPrice(t, e, models.PricingRequest{
				Leg: tt.leg, Market: tt.mkt, Model: models.ModelMonteCarlo, Simulations: 20000, Steps: 100, Seed: 11,
			})
			tol := math.Max(0.1, 4*mc.StdError)
			assertClose(t, tt.name, mc.Price, cf.Price, tol)
		})
	}
}

func TestProperty_KnockInPlusKnockOutEqualsVanilla(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	outs := []models.InstrumentKind{
		models.KindCallKnockOut, models.KindCallReverseKnockOut,
		models.KindPutKnockOut, models.KindPutReverseKnockOut,
		models.KindCallDoubleKnockOut, models.KindPutDoubleKnockOut,
	}

	properties.Property("in + out = vanilla", prop.ForAll(
		func(i int, k, h1, h2, vol, tm float64) bool {
			out := outs[i]
			c := contract{
				kind: out, spot: 100, strike: k, barrier: h1,
				lower: math.Min(h1, h2), upper: math.Max(h1, h2),
				rate: 0.05, carry: 0.03, vol: vol, t: tm, tPay: -1,
			}
			if !out.IsDouble() {
				h := h1
				if watchesUp(out) {
					h = h2
				}
				c.barrier, c.lower, c.upper = h, h, h
			}
			outPrice, _ := barrierAnalytic(c)
			c.kind = knockPairs[out]
			inPrice, _ := barrierAnalytic(c)
			vanilla := c.blackScholes()
			return outPrice >= 0 && inPrice >= 0 && math.Abs(outPrice+inPrice-vanilla) < 1e-7
		},
		gen.IntRange(0, len(outs)-1),
		gen.Float64Range(70, 130),
		gen.Float64Range(60, 99),
		gen.Float64Range(101, 150),
		gen.Float64Range(0.1, 0.4),
		gen.Float64Range(0.1, 2),
	))

	properties.TestingRun(t)
}

func TestProperty_KnockOutNeverExceedsVanilla(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("0 <= knock-out <= vanilla", prop.ForAll(
		func(k, h, vol float64) bool {
			c := singleContract(models.KindCallKnockOut, 100, k, h, 0.05, vol, 1)
			out, _ := barrierAnalytic(c)
			return out >= 0 && out <= c.blackScholes()+1e-9
		},
		gen.Float64Range(70, 130),
		gen.Float64Range(101, 160),
		gen.Float64Range(0.1, 0.5),
	))

	properties.TestingRun(t)
}

func TestZeroVolatilityBarrier(t *testing.T) {
	e := newTestEngine()
	mkt := market(100, 0, 5, 1)

	out := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockOut, 100, 120, 0), Market: mkt})
	if math.IsNaN(out.Price) {
		t.Fatal("zero volatility produced NaN")
	}
	assertClose(t, "deterministic knock-out", out.Price, 100-100*math.Exp(-0.05), 1e-9)

	// The forward crosses a 103% barrier within the year.
	crossed := mustPrice(t, e, models.PricingRequest{Leg: barrierLeg(models.KindCallKnockOut, 100, 103, 0), Market: mkt})
	if crossed.Price != 0 {
		t.Errorf("deterministic path through the barrier = %f, want 0", crossed.Price)
	}
}
