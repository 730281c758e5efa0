package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"strategy-pricer/internal/models"
)

var groupedPattern = regexp.MustCompile(`^-?\d{1,3}(,\d{3})*\.\d{2}$`)

func TestProperty_AmountFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatAmount groups thousands with two decimals", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatAmount(amount)
			if !groupedPattern.MatchString(formatted) {
				t.Logf("Invalid format for %f: %s", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatAmount preserves value", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatAmount(amount)
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(formatted, ",", ""), 64)
			if err != nil {
				t.Logf("Unparseable %s: %v", formatted, err)
				return false
			}
			if diff := math.Abs(parsed - amount); diff > 0.005+1e-9*math.Abs(amount) {
				t.Logf("Value not preserved: original=%f, formatted=%s", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatPercent carries the sign", prop.ForAll(
		func(value float64) bool {
			formatted := FormatPercent(value)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			return value <= 0 || strings.HasPrefix(formatted, "+")
		},
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}

func TestFormatAmountExamples(t *testing.T) {
	testCases := []struct {
		amount   float64
		expected string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{999.994, "999.99"},
		{1000, "1,000.00"},
		{100000, "100,000.00"},
		{1234567.891, "1,234,567.89"},
		{-1234.56, "-1,234.56"},
		{-0.001, "0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatAmount(tc.amount); got != tc.expected {
				t.Errorf("FormatAmount(%f) = %s, want %s", tc.amount, got, tc.expected)
			}
		})
	}
}

func TestFormatPriceExamples(t *testing.T) {
	testCases := []struct {
		price    float64
		expected string
	}{
		{10.450584, "10.4506"},
		{0.17868, "0.1787"},
		{12345.678, "12,345.68"},
	}

	for _, tc := range testCases {
		if got := FormatPrice(tc.price); got != tc.expected {
			t.Errorf("FormatPrice(%f) = %s, want %s", tc.price, got, tc.expected)
		}
	}
}

func TestFormatPercentExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0.00%"},
		{1.5, "+1.50%"},
		{-2.5, "-2.50%"},
		{100, "+100.00%"},
	}

	for _, tc := range testCases {
		if got := FormatPercent(tc.value); got != tc.expected {
			t.Errorf("FormatPercent(%f) = %s, want %s", tc.value, got, tc.expected)
		}
	}
}

func TestFormatLeg(t *testing.T) {
	testCases := []struct {
		leg      models.Leg
		expected string
	}{
		{
			models.Leg{Kind: models.KindCall, Strike: 105, StrikeMode: models.ModePercent, Quantity: 1},
			"BUY 1 call K=105.00%",
		},
		{
			models.Leg{Kind: models.KindPutKnockOut, Strike: 95, StrikeMode: models.ModePercent, Barrier: 80, BarrierMode: models.ModePercent, Quantity: -2},
			"SELL 2 put-knockout K=95.00% H=80.00%",
		},
		{
			models.Leg{Kind: models.KindDoubleNoTouch, Barrier: 1.2, SecondBarrier: 1.35, BarrierMode: models.ModeAbsolute, Rebate: 10, Quantity: 1},
			"BUY 1 double-no-touch H=1.2000 H2=1.3500 rebate=10.00%",
		},
		{
			models.Leg{Kind: models.KindForward, Strike: 100, StrikeMode: models.ModePercent, Quantity: 1, Volatility: 12},
			"BUY 1 forward K=100.00% vol=12.00%",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatLeg(tc.leg); got != tc.expected {
				t.Errorf("FormatLeg() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestStripANSI(t *testing.T) {
	if got := stripANSI("\x1b[32m+1.25\x1b[0m"); got != "+1.25" {
		t.Errorf("stripANSI = %q", got)
	}
	if n := visibleLen("\x1b[1;31m──\x1b[0m"); n != 2 {
		t.Errorf("visibleLen = %d, want 2", n)
	}
}
