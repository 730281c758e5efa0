// Package store provides quote persistence interfaces and implementations.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"strategy-pricer/internal/models"
	"strategy-pricer/internal/pricing"
)

// QuoteStore caches pricing results by request. The engine itself never caches;
// callers decide when a stored quote is still good.
type QuoteStore interface {
	Get(ctx context.Context, key string) (*Quote, error)
	Put(ctx context.Context, key string, req models.PricingRequest, result models.PricingResult) error
	Stats(ctx context.Context) (CacheStats, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}

// Quote is a cached pricing result.
type Quote struct {
	Key       string               `json:"key"`
	Kind      string               `json:"kind"`
	Model     string               `json:"model"`
	Result    models.PricingResult `json:"result"`
	CreatedAt time.Time            `json:"created_at"`
	Hits      int                  `json:"hits"`
}

// CacheStats summarises the cache contents.
type CacheStats struct {
	Entries   int64          `json:"entries"`
	TotalHits int64          `json:"total_hits"`
	ByKind    map[string]int `json:"by_kind"`
	Oldest    time.Time      `json:"oldest,omitempty"`
	Newest    time.Time      `json:"newest,omitempty"`
}

// cacheKey is the canonical form of the request and the engine settings that
// change its price. Worker count is left out since chunked runs reduce in a
// fixed order.
type cacheKey struct {
	Leg         models.Leg            `json:"leg"`
	Market      models.MarketSnapshot `json:"market"`
	Model       models.Model          `json:"model"`
	Simulations int                   `json:"simulations"`
	Steps       int                   `json:"steps"`
	Seed        uint64                `json:"seed"`
	Greeks      bool                  `json:"greeks"`
	Engine      engineKey             `json:"engine"`
}

type engineKey struct {
	Simulations      int                `json:"simulations"`
	Steps            int                `json:"steps"`
	Seed             uint64             `json:"seed"`
	ChunkSize        int                `json:"chunk_size"`
	Antithetic       bool               `json:"antithetic"`
	BridgeCorrection bool               `json:"bridge_correction"`
	DayCount         pricing.DayCount   `json:"day_count"`
	Bumps            *pricing.BumpSizes `json:"bumps,omitempty"`
}

// Key returns the SHA-256 of the canonical JSON of req and the engine settings
// in opts. Requests that differ only in leg quantity share a key unless Greeks,
// which scale with quantity, are requested. Bump sizes only count for Greeks.
func Key(req models.PricingRequest, opts pricing.EngineOptions) string {
	k := cacheKey{
		Leg:         req.Leg,
		Market:      req.Market,
		Model:       req.Model,
		Simulations: req.Simulations,
		Steps:       req.Steps,
		Seed:        req.Seed,
		Greeks:      req.WithGreeks,
		Engine: engineKey{
			Simulations:      opts.Simulations,
			Steps:            opts.Steps,
			Seed:             opts.Seed,
			ChunkSize:        opts.ChunkSize,
			Antithetic:       opts.Antithetic,
			BridgeCorrection: opts.BridgeCorrection,
			DayCount:         opts.DayCount,
		},
	}
	if req.WithGreeks {
		bumps := opts.Bumps
		k.Engine.Bumps = &bumps
	} else {
		k.Leg.Quantity = 0
	}
	k.Market.ValuationDate = k.Market.ValuationDate.UTC()
	k.Market.MaturityDate = k.Market.MaturityDate.UTC()

	// Every field is a plain value, so encoding cannot fail.
	data, _ := json.Marshal(k)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
