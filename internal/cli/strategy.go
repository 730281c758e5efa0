package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"strategy-pricer/internal/config"
	"strategy-pricer/internal/models"
	"strategy-pricer/internal/pricing"
)

type payoffRow struct {
	Spot    float64 `csv:"spot"`
	SpotPct float64 `csv:"spot_pct"`
	Payoff  float64 `csv:"payoff"`
	PnL     float64 `csv:"pnl"`
}

type strategyOutput struct {
	Market    models.MarketSnapshot    `json:"market"`
	Model     models.Model             `json:"model"`
	Valuation models.StrategyValuation `json:"valuation"`
	Payoff    []models.PayoffPoint     `json:"payoff,omitempty"`
}

func newStrategyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy <file>",
		Short: "Value a multi-leg strategy file",
		Long: `Value every leg of a strategy file and aggregate premium and Greeks.

The file may be TOML, YAML or JSON. Use --init to write an annotated example.

Examples:
  pricer strategy --init collar.toml
  pricer strategy collar.toml --payoff
  pricer strategy collar.toml --model monte-carlo --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if initPath, _ := cmd.Flags().GetString("init"); initPath != "" {
				if err := config.WriteStrategyTemplate(initPath); err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(map[string]string{"created": initPath})
				}
				output.Success("✓ Strategy template written to %s", initPath)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a strategy file is required (or --init <file>)")
			}

			s, err := config.LoadStrategy(args[0])
			if err != nil {
				return err
			}
			mkt, err := s.Market.Snapshot(time.Now())
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("model")
			if name == "" {
				name = s.Model
			}
			model, err := app.model(name)
			if err != nil {
				return err
			}

			val, err := app.Engine.EvaluateStrategy(cmd.Context(), s.Legs, mkt, model)
			if err != nil {
				return err
			}

			var payoff []models.PayoffPoint
			if show, _ := cmd.Flags().GetBool("payoff"); show {
				from, _ := cmd.Flags().GetFloat64("from")
				to, _ := cmd.Flags().GetFloat64("to")
				points, _ := cmd.Flags().GetInt("points")
				if payoff, err = pricing.PayoffCurve(s.Legs, mkt.Spot, from, to, points); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(strategyOutput{Market: mkt, Model: model, Valuation: val, Payoff: payoff})
			}
			if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV && payoff != nil {
				rows := make([]payoffRow, len(payoff))
				for i, p := range payoff {
					rows[i] = payoffRow{Spot: p.Spot, SpotPct: p.Spot / mkt.Spot * 100, Payoff: p.Payoff, PnL: p.Payoff - val.NetPremium}
				}
				return output.CSV(rows)
			}
			printStrategy(output, mkt, model, val, payoff)
			return nil
		},
	}
	cmd.Flags().String("init", "", "write an example strategy file to this path and exit")
	cmd.Flags().String("model", "", "override the model named in the file")
	cmd.Flags().Bool("payoff", false, "print the payoff at expiry across spots")
	cmd.Flags().Float64("from", 50, "payoff range start in percent of spot")
	cmd.Flags().Float64("to", 150, "payoff range end in percent of spot")
	cmd.Flags().Int("points", 21, "payoff points")
	cmd.Flags().Bool("csv", false, "output the payoff table as CSV (with --payoff)")
	return cmd
}

func printStrategy(output *Output, mkt models.MarketSnapshot, model models.Model, val models.StrategyValuation, payoff []models.PayoffPoint) {
	output.Bold("Strategy (%s)", model)
	output.Printf("Spot %s  vol %.2f%%  r %.2f%%  q %.2f%%  %s → %s\n\n",
		FormatPrice(mkt.Spot), mkt.Volatility, mkt.DomesticRate, mkt.ForeignRate,
		FormatDate(mkt.ValuationDate), FormatDate(mkt.MaturityDate))

	table := NewTable(output, "#", "Leg", "Method", "Price", "Premium", "Delta", "Vega")
	for i, lv := range val.Legs {
		premium := lv.Leg.Quantity * lv.Result.Price
		var delta, vega float64
		if lv.Result.Greeks != nil {
			delta, vega = lv.Result.Greeks.Delta, lv.Result.Greeks.Vega
		}
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			FormatLeg(lv.Leg),
			lv.Result.Method,
			FormatPrice(lv.Result.Price),
			output.Signed(-premium, FormatSigned(premium)),
			fmt.Sprintf("%.4f", delta),
			fmt.Sprintf("%.4f", vega),
		)
	}
	table.Render()
	output.Println()

	label := "Net premium paid"
	if val.NetPremium < 0 {
		label = "Net premium received"
	}
	output.Printf("%s: %s\n", label, output.Signed(-val.NetPremium, FormatPrice(val.NetPremium)))
	for _, row := range FormatGreeks(val.Greeks) {
		output.Printf("  %-6s %s\n", row[0], row[1])
	}

	if len(payoff) > 0 {
		output.Println()
		curve := NewTable(output, "Spot", "% Spot", "Payoff", "P&L")
		for _, p := range payoff {
			pnl := p.Payoff - val.NetPremium
			curve.AddRow(
				FormatPrice(p.Spot),
				fmt.Sprintf("%.1f%%", p.Spot/mkt.Spot*100),
				FormatPrice(p.Payoff),
				output.Signed(pnl, FormatSigned(pnl)),
			)
		}
		curve.Render()
	}
}
