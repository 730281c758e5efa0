package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/models"
)

// DateLayout is the calendar date format used in strategy files and flags.
const DateLayout = "2006-01-02"

// MarketSpec is the market section of a strategy file. Either MaturityDate or
// Years sets the maturity; the valuation date defaults to today.
type MarketSpec struct {
	Spot          float64 `mapstructure:"spot"`
	Volatility    float64 `mapstructure:"volatility"`
	DomesticRate  float64 `mapstructure:"domestic_rate"`
	ForeignRate   float64 `mapstructure:"foreign_rate"`
	ValuationDate string  `mapstructure:"valuation_date"`
	MaturityDate  string  `mapstructure:"maturity_date"`
	Years         float64 `mapstructure:"years"`
}

// Strategy is a multi-leg strategy file.
type Strategy struct {
	Model  string       `mapstructure:"model"`
	Market MarketSpec   `mapstructure:"market"`
	Legs   []models.Leg `mapstructure:"legs"`
}

// LoadStrategy reads a strategy file. The format follows the extension
// (toml, yaml, yml or json).
func LoadStrategy(path string) (*Strategy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading strategy %s: %w", path, err)
	}

	s := &Strategy{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding strategy %s: %w", path, err)
	}
	if len(s.Legs) == 0 {
		return nil, errors.NewValidationError("legs", 0, "strategy has no legs")
	}
	for i := range s.Legs {
		if err := normalizeLeg(&s.Legs[i]); err != nil {
			return nil, errors.Wrapf(err, "leg %d", i+1)
		}
	}
	if s.Model != "" {
		if _, ok := models.ParseModel(s.Model); !ok {
			return nil, errors.NewValidationError("model", s.Model, "unknown model")
		}
	}
	return s, nil
}

// normalizeLeg canonicalises the enum fields of a decoded leg.
func normalizeLeg(l *models.Leg) error {
	kind, err := models.ParseInstrumentKind(string(l.Kind))
	if err != nil {
		return errors.NewLegError("kind", l.Kind, err.Error())
	}
	l.Kind = kind
	if l.StrikeMode, err = models.ParseValueMode(string(l.StrikeMode)); err != nil {
		return errors.NewLegError("strike_mode", l.StrikeMode, err.Error())
	}
	if l.BarrierMode, err = models.ParseValueMode(string(l.BarrierMode)); err != nil {
		return errors.NewLegError("barrier_mode", l.BarrierMode, err.Error())
	}
	return nil
}

// Snapshot converts the market section into a snapshot; now is the default valuation date.
func (m MarketSpec) Snapshot(now time.Time) (models.MarketSnapshot, error) {
	snap := models.MarketSnapshot{
		Spot:         m.Spot,
		Volatility:   m.Volatility,
		DomesticRate: m.DomesticRate,
		ForeignRate:  m.ForeignRate,
	}

	val := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if m.ValuationDate != "" {
		d, err := time.Parse(DateLayout, m.ValuationDate)
		if err != nil {
			return snap, errors.NewMarketError("valuation_date", m.ValuationDate, "expected YYYY-MM-DD")
		}
		val = d
	}
	snap.ValuationDate = val

	switch {
	case m.MaturityDate != "":
		d, err := time.Parse(DateLayout, m.MaturityDate)
		if err != nil {
			return snap, errors.NewMarketError("maturity_date", m.MaturityDate, "expected YYYY-MM-DD")
		}
		snap.MaturityDate = d
	case m.Years > 0:
		snap.MaturityDate = val.Add(time.Duration(m.Years * 365 * 24 * float64(time.Hour)))
	default:
		return snap, errors.NewMarketError("maturity_date", "", "maturity_date or years is required")
	}
	return snap, nil
}
