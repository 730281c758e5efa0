package pricing

import (
	"context"
	"testing"

	"strategy-pricer/internal/models"
)

// BenchmarkBlackScholes benchmarks the closed-form vanilla price.
func BenchmarkBlackScholes(b *testing.B) {
	for i := 0; i < b.N; i++ {
		BlackScholes(models.OptionTypeCall, 100, 110, 0.05, 0.05, 0.2, 1)
	}
}

// BenchmarkDoubleKnockOutSeries benchmarks the reflection series.
func BenchmarkDoubleKnockOutSeries(b *testing.B) {
	c := doubleContract(models.KindCallDoubleKnockOut, 100, 100, 80, 130, 0.05, 0.2, 0.5)
	for i := 0; i < b.N; i++ {
		doubleKnockOut(c)
	}
}

// BenchmarkVanillaMonteCarlo benchmarks 10k terminal samples.
func BenchmarkVanillaMonteCarlo(b *testing.B) {
	e := newTestEngine()
	req := models.PricingRequest{
		Leg:         leg(models.KindCall, 100),
		Market:      market(100, 20, 5, 1),
		Model:       models.ModelMonteCarlo,
		Simulations: 10000,
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Price(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBarrierMonteCarlo benchmarks 10k monitored paths of 252 steps.
func BenchmarkBarrierMonteCarlo(b *testing.B) {
	e := newTestEngine()
	req := models.PricingRequest{
		Leg:         barrierLeg(models.KindCallKnockOut, 100, 120, 0),
		Market:      market(100, 20, 5, 1),
		Model:       models.ModelMonteCarlo,
		Simulations: 10000,
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Price(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGreeksParallel benchmarks concurrent closed-form Greeks on a shared engine.
func BenchmarkGreeksParallel(b *testing.B) {
	e := newTestEngine()
	req := models.PricingRequest{
		Leg:    barrierLeg(models.KindCallKnockOut, 100, 120, 0),
		Market: market(100, 20, 5, 1),
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if _, err := e.Greeks(ctx, req); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
