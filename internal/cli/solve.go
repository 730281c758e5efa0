package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"strategy-pricer/internal/logging"
	"strategy-pricer/internal/models"
	"strategy-pricer/internal/pricing"
)

type solveOutput struct {
	Fixed  models.Leg          `json:"fixed"`
	Solve  models.Leg          `json:"solve"`
	Result models.SolverResult `json:"result"`
}

func newSolveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Find the strike that makes a two-leg structure zero-cost",
		Long: `Find the strike of the solved leg whose premium offsets the fixed leg.

The solved leg's --strike is ignored; the strike is searched in percent of spot
within the configured solver range.

Examples:
  pricer solve --fixed-kind put --fixed-strike 95 --kind call --qty -1
  pricer solve --fixed-kind put --fixed-strike 90 --kind call-knockout --barrier 130 --qty -1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fixed, err := legFromFlags(cmd, "fixed-")
			if err != nil {
				return err
			}
			req, err := app.requestFromFlags(cmd)
			if err != nil {
				return err
			}

			logger := logging.WithOperation(logging.FromContext(cmd.Context()), "solve")
			logger.Debug().Str("fixed", FormatLeg(fixed)).Str("solve", string(req.Leg.Kind)).Msg("Searching zero-cost strike")

			res, err := app.Engine.SolveZeroCost(cmd.Context(), pricing.SolveRequest{
				Fixed:       fixed,
				Solve:       req.Leg,
				Market:      req.Market,
				Model:       req.Model,
				Simulations: req.Simulations,
				Steps:       req.Steps,
				Seed:        req.Seed,
			})
			if err != nil {
				return err
			}

			solved := req.Leg
			solved.Strike = res.StrikePct
			solved.StrikeMode = models.ModePercent

			if output.IsJSON() {
				return output.JSON(solveOutput{Fixed: fixed, Solve: solved, Result: res})
			}

			lines := []string{
				fmt.Sprintf("Fixed leg:   %s", FormatLeg(fixed)),
				fmt.Sprintf("Solved leg:  %s", FormatLeg(solved)),
				fmt.Sprintf("Strike:      %s (%s)", output.Cyan(fmt.Sprintf("%.4f%%", res.StrikePct)), FormatPrice(res.Strike)),
				fmt.Sprintf("Leg price:   %s", FormatPrice(res.Price)),
				fmt.Sprintf("Target:      %s", FormatPrice(res.Target)),
				fmt.Sprintf("Iterations:  %d", res.Iterations),
			}
			output.Box("Zero-cost strike", lines)
			if res.Converged {
				output.Success("✓ Converged within %g", app.Config.Solver.Tolerance)
			} else {
				output.Warning("Search did not converge; closest strike shown")
			}
			return nil
		},
	}
	addLegFlags(cmd, "fixed-", "put")
	addLegFlags(cmd, "", "call")
	addMarketFlags(cmd)
	addSimulationFlags(cmd)
	return cmd
}
