package pricing

import (
	"context"
	"math"
	"testing"

	"strategy-pricer/internal/models"
)

func collar() []models.Leg {
	put := leg(models.KindPut, 90)
	call := leg(models.KindCall, 110)
	call.Quantity = -1
	return []models.Leg{put, call}
}

func TestPayoffAtPrice(t *testing.T) {
	tests := []struct {
		name string
		legs []models.Leg
		spot float64
		want float64
	}{
		{"collar below floor", collar(), 80, 10},
		{"collar inside", collar(), 100, 0},
		{"collar above cap", collar(), 125, -15},
		{"forward", []models.Leg{leg(models.KindForward, 100)}, 107, 7},
		{"short forward", []models.Leg{{Kind: models.KindForward, Strike: 95, StrikeMode: models.ModeAbsolute, Quantity: -2}}, 90, 10},
		{"knock-out alive", []models.Leg{barrierLeg(models.KindCallKnockOut, 100, 120, 0)}, 115, 15},
		{"knock-out dead", []models.Leg{barrierLeg(models.KindCallKnockOut, 100, 120, 0)}, 125, 0},
		{"knock-in dead", []models.Leg{barrierLeg(models.KindPutKnockIn, 100, 80, 0)}, 85, 0},
		{"knock-in alive", []models.Leg{barrierLeg(models.KindPutKnockIn, 100, 80, 0)}, 75, 25},
		{"one-touch hit", []models.Leg{digitalLeg(models.KindOneTouch, 110, 0, 5)}, 112, 5},
		{"one-touch missed", []models.Leg{digitalLeg(models.KindOneTouch, 110, 0, 5)}, 105, 0},
		{"range inside", []models.Leg{digitalLeg(models.KindRangeBinary, 110, 90, 4)}, 100, 4},
		{"range on the barrier", []models.Leg{digitalLeg(models.KindRangeBinary, 90, 110, 4)}, 90, 0},
		{"outside above", []models.Leg{digitalLeg(models.KindOutsideBinary, 90, 110, 4)}, 111, 4},
		{"outside on the barrier", []models.Leg{digitalLeg(models.KindOutsideBinary, 90, 110, 4)}, 110, 0},
		{"double-no-touch breached", []models.Leg{digitalLeg(models.KindDoubleNoTouch, 90, 110, 4)}, 90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PayoffAtPrice(tt.legs, tt.spot, 100)
			if err != nil {
				t.Fatalf("PayoffAtPrice failed: %v", err)
			}
			assertClose(t, tt.name, got, tt.want, 1e-9)
		})
	}
}

func TestPayoffAtPriceRejectsBadLeg(t *testing.T) {
	if _, err := PayoffAtPrice([]models.Leg{leg("strangle", 100)}, 100, 100); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestPayoffCurve(t *testing.T) {
	curve, err := PayoffCurve(collar(), 100, 50, 150, 11)
	if err != nil {
		t.Fatalf("PayoffCurve failed: %v", err)
	}
	if len(curve) != 11 {
		t.Fatalf("len = %d, want 11", len(curve))
	}
	assertClose(t, "first spot", curve[0].Spot, 50, 1e-9)
	assertClose(t, "last spot", curve[10].Spot, 150, 1e-9)
	assertClose(t, "payoff at 50", curve[0].Payoff, 40, 1e-9)
	assertClose(t, "payoff at 150", curve[10].Payoff, -40, 1e-9)

	if _, err := PayoffCurve(collar(), 100, 50, 150, 1); err == nil {
		t.Error("expected an error for a single point")
	}
	if _, err := PayoffCurve(collar(), 100, 120, 80, 5); err == nil {
		t.Error("expected an error for an inverted range")
	}
}

func TestEvaluateStrategy(t *testing.T) {
	e := newTestEngine()
	mkt := market(100, 20, 5, 1)
	legs := append(collar(), leg(models.KindForward, 100))

	val, err := e.EvaluateStrategy(context.Background(), legs, mkt, models.ModelBlackScholes)
	if err != nil {
		t.Fatalf("EvaluateStrategy failed: %v", err)
	}
	if len(val.Legs) != 3 {
		t.Fatalf("legs = %d, want 3", len(val.Legs))
	}

	var premium float64
	var greeks models.Greeks
	for _, lv := range val.Legs {
		premium += lv.Leg.Quantity * lv.Result.Price
		greeks = greeks.Add(*lv.Result.Greeks)
	}
	assertClose(t, "net premium", val.NetPremium, premium, 1e-12)
	assertClose(t, "net delta", val.Greeks.Delta, greeks.Delta, 1e-12)

	// Long put, short call and long forward: the put and short call delta offset part of the forward.
	if val.Greeks.Delta >= 1 || val.Greeks.Delta <= 0 {
		t.Errorf("collar plus forward delta = %f, want in (0, 1)", val.Greeks.Delta)
	}
	if val.NetPremium >= 0 {
		t.Errorf("net premium = %f, want negative (call premium exceeds the 90%% put)", val.NetPremium)
	}
}

func TestEvaluateStrategyNamesFailingLeg(t *testing.T) {
	e := newTestEngine()
	legs := []models.Leg{leg(models.KindCall, 100), leg(models.KindPut, -5)}
	_, err := e.EvaluateStrategy(context.Background(), legs, market(100, 20, 5, 1), "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); len(got) < 5 || got[:5] != "leg 2" {
		t.Errorf("error = %q, want it to name leg 2", got)
	}
}

func TestSpotAndVolCurves(t *testing.T) {
	e := newTestEngine()
	req := models.PricingRequest{Leg: leg(models.KindCall, 100), Market: market(100, 20, 5, 1)}

	spots, err := e.SpotCurve(context.Background(), req, 80, 120, 9)
	if err != nil {
		t.Fatalf("SpotCurve failed: %v", err)
	}
	for i := 1; i < len(spots); i++ {
		if spots[i].Price <= spots[i-1].Price {
			t.Errorf("call price not increasing in spot at %f", spots[i].X)
		}
	}
	mid := spots[4]
	assertClose(t, "mid spot", mid.X, 100, 1e-9)
	assertClose(t, "mid price", mid.Price, 10.4506, 1e-3)

	vols, err := e.VolCurve(context.Background(), req, 10, 40, 4)
	if err != nil {
		t.Fatalf("VolCurve failed: %v", err)
	}
	for i := 1; i < len(vols); i++ {
		if vols[i].Price <= vols[i-1].Price {
			t.Errorf("call price not increasing in vol at %f", vols[i].X)
		}
	}
	if math.Abs(vols[1].X-20) > 1e-9 {
		t.Errorf("second vol = %f, want 20", vols[1].X)
	}
}
