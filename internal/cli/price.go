package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"strategy-pricer/internal/models"
	"strategy-pricer/internal/pricing"
)

type priceOutput struct {
	Request models.PricingRequest `json:"request"`
	Result  models.PricingResult  `json:"result"`
	Premium float64               `json:"premium"`
	Cached  bool                  `json:"cached"`
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single leg",
		Long: `Price a single leg against a market snapshot.

Examples:
  pricer price --kind call --strike 110
  pricer price --kind call-knockout --strike 100 --barrier 120 --model monte-carlo
  pricer price --kind double-no-touch --barrier 90 --barrier2 110 --rebate 10 --years 0.25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			withGreeks, _ := cmd.Flags().GetBool("greeks")
			return runPrice(cmd, app, withGreeks)
		},
	}
	addLegFlags(cmd, "", "call")
	addMarketFlags(cmd)
	addSimulationFlags(cmd)
	cmd.Flags().Bool("greeks", false, "also compute Greeks")
	return cmd
}

func newGreeksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Price a single leg with its Greeks",
		Long: `Price a single leg and report finite-difference Greeks scaled by its quantity.

Vega and rho are per unit change of volatility and rate; theta is per year.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrice(cmd, app, true)
		},
	}
	addLegFlags(cmd, "", "call")
	addMarketFlags(cmd)
	addSimulationFlags(cmd)
	return cmd
}

func runPrice(cmd *cobra.Command, app *App, withGreeks bool) error {
	output := NewOutput(cmd)

	req, err := app.requestFromFlags(cmd)
	if err != nil {
		return err
	}
	req.WithGreeks = withGreeks

	start := time.Now()
	res, cached, err := app.price(cmd.Context(), req)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	premium := res.Price * req.Leg.Quantity
	if output.IsJSON() {
		return output.JSON(priceOutput{Request: req, Result: res, Premium: premium, Cached: cached})
	}

	t := pricing.YearFraction(req.Market.ValuationDate, req.Market.MaturityDate, app.Engine.Options().DayCount)
	lines := []string{
		fmt.Sprintf("Leg:       %s", FormatLeg(req.Leg)),
		fmt.Sprintf("Market:    S=%s  vol=%.2f%%  r=%.2f%%  q=%.2f%%",
			FormatPrice(req.Market.Spot), req.Market.Volatility, req.Market.DomesticRate, req.Market.ForeignRate),
		fmt.Sprintf("Maturity:  %s (%.4fy)", FormatDate(req.Market.MaturityDate), t),
		fmt.Sprintf("Forward:   %s", FormatPrice(pricing.ForwardPrice(req.Market.Spot, req.Market.Rate(), req.Market.ForeignRate/100, t))),
		fmt.Sprintf("Method:    %s", res.Method),
		fmt.Sprintf("Price:     %s", output.Cyan(FormatPrice(res.Price))),
	}
	if res.StdError > 0 {
		lines = append(lines, fmt.Sprintf("Std error: %s", FormatPrice(res.StdError)))
	}
	lines = append(lines,
		fmt.Sprintf("Premium:   %s", output.Signed(-premium, FormatSigned(premium))),
		fmt.Sprintf("Notional:  %s", FormatAmount(math.Abs(req.Leg.Quantity)*req.Market.Spot)),
	)
	output.Box("Valuation", lines)

	if res.Greeks != nil {
		output.Println()
		table := NewTable(output, "Greek", "Value")
		for _, row := range FormatGreeks(*res.Greeks) {
			table.AddRow(row[0], row[1])
		}
		table.Render()
	}

	if cached {
		output.Info("Served from quote cache")
	} else {
		output.Dim("Computed in %s", FormatDuration(elapsed))
	}
	return nil
}
