package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"strategy-pricer/internal/config"
	"strategy-pricer/internal/models"
)

// FormatAmount formats a number with two decimals and thousands separators.
func FormatAmount(amount float64) string {
	return formatGrouped(amount, 2)
}

// FormatPrice formats a premium. Small premiums keep four decimals.
func FormatPrice(price float64) string {
	if math.Abs(price) >= 1000 {
		return formatGrouped(price, 2)
	}
	return fmt.Sprintf("%.4f", price)
}

func formatGrouped(amount float64, decimals int) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.*f", decimals, amount)
	intPart, decPart, _ := strings.Cut(str, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	result := b.String()
	if decPart != "" {
		result += "." + decPart
	}
	if negative && strings.Trim(result, "0.,") != "" {
		result = "-" + result
	}
	return result
}

// FormatSigned formats a value with an explicit sign.
func FormatSigned(value float64) string {
	if value > 0 {
		return fmt.Sprintf("+%.4f", value)
	}
	return fmt.Sprintf("%.4f", value)
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatLevel formats a strike or barrier in the mode it is quoted in.
func FormatLevel(v float64, mode models.ValueMode) string {
	if mode == models.ModeAbsolute {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatLeg describes a leg on one line, e.g. "BUY 1 call K=100.00%".
func FormatLeg(leg models.Leg) string {
	parts := []string{
		string(leg.Side()),
		fmt.Sprintf("%g", math.Abs(leg.Quantity)),
		string(leg.Kind),
	}
	if leg.Kind.OptionType() != models.OptionTypeNone || leg.Kind.IsLinear() {
		parts = append(parts, "K="+FormatLevel(leg.Strike, leg.StrikeMode))
	}
	if leg.Kind.NeedsBarrier() {
		parts = append(parts, "H="+FormatLevel(leg.Barrier, leg.BarrierMode))
		if leg.Kind.IsDouble() {
			parts = append(parts, "H2="+FormatLevel(leg.SecondBarrier, leg.BarrierMode))
		}
	}
	if leg.Kind.IsDigital() {
		parts = append(parts, fmt.Sprintf("rebate=%.2f%%", leg.Rebate))
	}
	if leg.Volatility > 0 {
		parts = append(parts, fmt.Sprintf("vol=%.2f%%", leg.Volatility))
	}
	return strings.Join(parts, " ")
}

// FormatGreeks returns the Greeks as label/value rows.
func FormatGreeks(g models.Greeks) [][2]string {
	return [][2]string{
		{"Delta", fmt.Sprintf("%.6f", g.Delta)},
		{"Gamma", fmt.Sprintf("%.6f", g.Gamma)},
		{"Vega", fmt.Sprintf("%.4f", g.Vega)},
		{"Theta", fmt.Sprintf("%.4f", g.Theta)},
		{"Rho", fmt.Sprintf("%.4f", g.Rho)},
	}
}

// FormatDate formats a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(config.DateLayout)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
