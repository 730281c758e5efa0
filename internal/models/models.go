// Package models provides domain models for the pricing engine.
package models

import (
	"fmt"
	"strings"
	"time"
)

// OptionType represents the payoff direction of an option.
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
	OptionTypeNone OptionType = ""
)

// InstrumentKind is the closed set of instruments the engine can price.
type InstrumentKind string

const (
	KindCall InstrumentKind = "call"
	KindPut  InstrumentKind = "put"

	KindCallKnockOut        InstrumentKind = "call-knockout"
	KindCallKnockIn         InstrumentKind = "call-knockin"
	KindCallReverseKnockOut InstrumentKind = "call-reverse-knockout"
	KindCallReverseKnockIn  InstrumentKind = "call-reverse-knockin"
	KindPutKnockOut         InstrumentKind = "put-knockout"
	KindPutKnockIn          InstrumentKind = "put-knockin"
	KindPutReverseKnockOut  InstrumentKind = "put-reverse-knockout"
	KindPutReverseKnockIn   InstrumentKind = "put-reverse-knockin"

	KindCallDoubleKnockOut InstrumentKind = "call-double-knockout"
	KindCallDoubleKnockIn  InstrumentKind = "call-double-knockin"
	KindPutDoubleKnockOut  InstrumentKind = "put-double-knockout"
	KindPutDoubleKnockIn   InstrumentKind = "put-double-knockin"

	KindOneTouch      InstrumentKind = "one-touch"
	KindNoTouch       InstrumentKind = "no-touch"
	KindDoubleTouch   InstrumentKind = "double-touch"
	KindDoubleNoTouch InstrumentKind = "double-no-touch"
	KindRangeBinary   InstrumentKind = "range-binary"
	KindOutsideBinary InstrumentKind = "outside-binary"

	KindForward InstrumentKind = "forward"
	KindSwap    InstrumentKind = "swap"
)

// AllKinds lists every supported instrument kind.
var AllKinds = []InstrumentKind{
	KindCall, KindPut,
	KindCallKnockOut, KindCallKnockIn, KindCallReverseKnockOut, KindCallReverseKnockIn,
	KindPutKnockOut, KindPutKnockIn, KindPutReverseKnockOut, KindPutReverseKnockIn,
	KindCallDoubleKnockOut, KindCallDoubleKnockIn, KindPutDoubleKnockOut, KindPutDoubleKnockIn,
	KindOneTouch, KindNoTouch, KindDoubleTouch, KindDoubleNoTouch, KindRangeBinary, KindOutsideBinary,
	KindForward, KindSwap,
}

// ParseInstrumentKind parses a kind name. Matching is exact after trimming and lower-casing.
func ParseInstrumentKind(s string) (InstrumentKind, error) {
	k := InstrumentKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown instrument kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k InstrumentKind) Valid() bool {
	switch k {
	case KindCall, KindPut,
		KindCallKnockOut, KindCallKnockIn, KindCallReverseKnockOut, KindCallReverseKnockIn,
		KindPutKnockOut, KindPutKnockIn, KindPutReverseKnockOut, KindPutReverseKnockIn,
		KindCallDoubleKnockOut, KindCallDoubleKnockIn, KindPutDoubleKnockOut, KindPutDoubleKnockIn,
		KindOneTouch, KindNoTouch, KindDoubleTouch, KindDoubleNoTouch, KindRangeBinary, KindOutsideBinary,
		KindForward, KindSwap:
		return true
	}
	return false
}

// OptionType returns the vanilla payoff underlying the kind, or OptionTypeNone
// for digitals and linear instruments.
func (k InstrumentKind) OptionType() OptionType {
	switch k {
	case KindCall, KindCallKnockOut, KindCallKnockIn, KindCallReverseKnockOut, KindCallReverseKnockIn,
		KindCallDoubleKnockOut, KindCallDoubleKnockIn:
		return OptionTypeCall
	case KindPut, KindPutKnockOut, KindPutKnockIn, KindPutReverseKnockOut, KindPutReverseKnockIn,
		KindPutDoubleKnockOut, KindPutDoubleKnockIn:
		return OptionTypePut
	}
	return OptionTypeNone
}

// IsVanilla reports whether k is a plain European call or put.
func (k InstrumentKind) IsVanilla() bool {
	return k == KindCall || k == KindPut
}

// IsBarrier reports whether k is a single or double knock-in/knock-out option.
func (k InstrumentKind) IsBarrier() bool {
	switch k {
	case KindCallKnockOut, KindCallKnockIn, KindCallReverseKnockOut, KindCallReverseKnockIn,
		KindPutKnockOut, KindPutKnockIn, KindPutReverseKnockOut, KindPutReverseKnockIn,
		KindCallDoubleKnockOut, KindCallDoubleKnockIn, KindPutDoubleKnockOut, KindPutDoubleKnockIn:
		return true
	}
	return false
}

// IsDouble reports whether k needs a second barrier.
func (k InstrumentKind) IsDouble() bool {
	switch k {
	case KindCallDoubleKnockOut, KindCallDoubleKnockIn, KindPutDoubleKnockOut, KindPutDoubleKnockIn,
		KindDoubleTouch, KindDoubleNoTouch, KindRangeBinary, KindOutsideBinary:
		return true
	}
	return false
}

// IsKnockIn reports whether k only pays once a barrier has been touched.
func (k InstrumentKind) IsKnockIn() bool {
	switch k {
	case KindCallKnockIn, KindCallReverseKnockIn, KindPutKnockIn, KindPutReverseKnockIn,
		KindCallDoubleKnockIn, KindPutDoubleKnockIn:
		return true
	}
	return false
}

// IsReverse reports whether k watches the barrier against the natural direction.
func (k InstrumentKind) IsReverse() bool {
	switch k {
	case KindCallReverseKnockOut, KindCallReverseKnockIn, KindPutReverseKnockOut, KindPutReverseKnockIn:
		return true
	}
	return false
}

// IsDigital reports whether k is a touch or binary contract paying a fixed rebate.
func (k InstrumentKind) IsDigital() bool {
	switch k {
	case KindOneTouch, KindNoTouch, KindDoubleTouch, KindDoubleNoTouch, KindRangeBinary, KindOutsideBinary:
		return true
	}
	return false
}

// IsLinear reports whether k is a forward or a swap.
func (k InstrumentKind) IsLinear() bool {
	return k == KindForward || k == KindSwap
}

// NeedsBarrier reports whether k requires at least one barrier level.
func (k InstrumentKind) NeedsBarrier() bool {
	return k.IsBarrier() || k.IsDigital()
}

// ValueMode says how a strike or barrier level is quoted.
type ValueMode string

const (
	ModePercent  ValueMode = "percent"  // percent of spot
	ModeAbsolute ValueMode = "absolute" // price units
)

// ParseValueMode parses a quoting mode; the empty string means percent.
func ParseValueMode(s string) (ValueMode, error) {
	switch ValueMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePercent:
		return ModePercent, nil
	case ModeAbsolute:
		return ModeAbsolute, nil
	}
	return "", fmt.Errorf("unknown value mode %q", s)
}

// Resolve converts v to price units given the spot it is quoted against.
func (m ValueMode) Resolve(v, spot float64) float64 {
	if m == ModeAbsolute {
		return v
	}
	return spot * v / 100
}

// Leg is a single instrument of a strategy.
type Leg struct {
	Kind          InstrumentKind `json:"kind" mapstructure:"kind"`
	Strike        float64        `json:"strike" mapstructure:"strike"`
	StrikeMode    ValueMode      `json:"strike_mode" mapstructure:"strike_mode"`
	Volatility    float64        `json:"volatility,omitempty" mapstructure:"volatility"` // percent; 0 uses the market volatility
	Quantity      float64        `json:"quantity" mapstructure:"quantity"`               // sign is the side: >0 buy, <0 sell
	Barrier       float64        `json:"barrier,omitempty" mapstructure:"barrier"`
	SecondBarrier float64        `json:"second_barrier,omitempty" mapstructure:"second_barrier"`
	BarrierMode   ValueMode      `json:"barrier_mode,omitempty" mapstructure:"barrier_mode"`
	Rebate        float64        `json:"rebate,omitempty" mapstructure:"rebate"` // percent of spot
	TimeToPayoff  *float64       `json:"time_to_payoff,omitempty" mapstructure:"time_to_payoff"`
}

// Side returns the order side implied by the quantity sign.
func (l Leg) Side() OrderSide {
	if l.Quantity < 0 {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderSide represents the side of a leg.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// MarketSnapshot is the market state a leg is priced against. Rates and volatility are in percent.
type MarketSnapshot struct {
	Spot          float64   `json:"spot" mapstructure:"spot"`
	Volatility    float64   `json:"volatility" mapstructure:"volatility"`
	DomesticRate  float64   `json:"domestic_rate" mapstructure:"domestic_rate"`
	ForeignRate   float64   `json:"foreign_rate" mapstructure:"foreign_rate"`
	ValuationDate time.Time `json:"valuation_date" mapstructure:"valuation_date"`
	MaturityDate  time.Time `json:"maturity_date" mapstructure:"maturity_date"`
}

// Rate returns the domestic rate as a decimal.
func (m MarketSnapshot) Rate() float64 { return m.DomesticRate / 100 }

// Carry returns the cost of carry b = r - q as a decimal.
func (m MarketSnapshot) Carry() float64 { return (m.DomesticRate - m.ForeignRate) / 100 }

// VolatilityFor returns the decimal volatility used for leg, preferring the leg's own quote.
func (m MarketSnapshot) VolatilityFor(leg Leg) float64 {
	if leg.Volatility > 0 {
		return leg.Volatility / 100
	}
	return m.Volatility / 100
}
