package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"strategy-pricer/internal/pricing"
)

type curveRow struct {
	X      float64 `csv:"x"`
	Price  float64 `csv:"price"`
	Change float64 `csv:"change"`
}

type curveOutput struct {
	Axis   string                     `json:"axis"`
	Leg    string                     `json:"leg"`
	Points []pricing.SensitivityPoint `json:"points"`
}

func newCurveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Price sensitivity curves",
		Long:  "Reprice a single leg across a range of spots or volatilities.",
	}

	spot := &cobra.Command{
		Use:   "spot",
		Short: "Price across spots (range in percent of spot)",
		Long: `Price a leg across spots. Strike and barrier levels stay where the
current spot puts them.

Example:
  pricer curve spot --kind call-knockout --barrier 120 --from 80 --to 125`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurve(cmd, app, "spot")
		},
	}
	addCurveFlags(spot, 50, 150)

	vol := &cobra.Command{
		Use:   "vol",
		Short: "Price across volatilities (range in percent)",
		Example: "  pricer curve vol --kind double-no-touch --barrier 90 --barrier2 110 --rebate 10 --from 5 --to 40",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurve(cmd, app, "vol")
		},
	}
	addCurveFlags(vol, 5, 50)

	cmd.AddCommand(spot, vol)
	return cmd
}

func addCurveFlags(cmd *cobra.Command, from, to float64) {
	addLegFlags(cmd, "", "call")
	addMarketFlags(cmd)
	addSimulationFlags(cmd)
	cmd.Flags().Float64("from", from, "range start")
	cmd.Flags().Float64("to", to, "range end")
	cmd.Flags().Int("points", 11, "number of points")
	cmd.Flags().Bool("csv", false, "output the curve as CSV")
}

func runCurve(cmd *cobra.Command, app *App, axis string) error {
	output := NewOutput(cmd)

	req, err := app.requestFromFlags(cmd)
	if err != nil {
		return err
	}
	from, _ := cmd.Flags().GetFloat64("from")
	to, _ := cmd.Flags().GetFloat64("to")
	points, _ := cmd.Flags().GetInt("points")

	var curve []pricing.SensitivityPoint
	if axis == "spot" {
		curve, err = app.Engine.SpotCurve(cmd.Context(), req, from, to, points)
	} else {
		curve, err = app.Engine.VolCurve(cmd.Context(), req, from, to, points)
	}
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(curveOutput{Axis: axis, Leg: FormatLeg(req.Leg), Points: curve})
	}
	if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
		rows := make([]curveRow, len(curve))
		for i, p := range curve {
			rows[i] = curveRow{X: p.X, Price: p.Price}
			if i > 0 {
				rows[i].Change = p.Price - curve[i-1].Price
			}
		}
		return output.CSV(rows)
	}

	output.Bold("%s (%s)", FormatLeg(req.Leg), req.Model)
	header := "Spot"
	if axis == "vol" {
		header = "Vol %"
	}
	table := NewTable(output, header, "Price", "Change")
	for i, p := range curve {
		change := ""
		if i > 0 {
			d := p.Price - curve[i-1].Price
			change = output.Signed(d, FormatSigned(d))
		}
		table.AddRow(fmt.Sprintf("%.4f", p.X), FormatPrice(p.Price), change)
	}
	table.Render()
	return nil
}
