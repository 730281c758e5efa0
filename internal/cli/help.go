package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		Long:  "Display example command sequences for common pricing tasks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Vanilla Options",
					commands: []string{
						"pricer price --kind call --strike 110             # 110% call, 1y",
						"pricer price --kind put --strike 1.20 --strike-mode absolute --spot 1.25",
						"pricer greeks --kind call --qty -10              # Greeks of a short position",
						"pricer price --kind call --model monte-carlo --sims 200000",
					},
				},
				{
					title: "Barriers",
					commands: []string{
						"pricer price --kind call-knockout --barrier 120  # Up-and-out call",
						"pricer price --kind put-reverse-knockin --strike 95 --barrier 105",
						"pricer price --kind call-double-knockout --barrier 80 --barrier2 130 --years 0.5",
					},
				},
				{
					title: "Digitals",
					commands: []string{
						"pricer price --kind one-touch --barrier 110 --rebate 10 --payoff-time 0.25",
						"pricer price --kind double-no-touch --barrier 95 --barrier2 105 --rebate 10",
						"pricer price --kind range-binary --barrier 95 --barrier2 105 --rebate 10",
					},
				},
				{
					title: "Zero-Cost Structures",
					commands: []string{
						"pricer solve --fixed-kind put --fixed-strike 95 --kind call --qty -1",
						"pricer solve --fixed-kind put --fixed-strike 90 --kind call-knockout --barrier 130 --qty -1",
					},
				},
				{
					title: "Strategies",
					commands: []string{
						"pricer strategy --init collar.toml               # Write an example file",
						"pricer strategy collar.toml --payoff             # Value and chart at expiry",
						"pricer strategy collar.toml --model monte-carlo --json",
					},
				},
				{
					title: "Sensitivities",
					commands: []string{
						"pricer curve spot --kind call-knockout --barrier 120 --from 80 --to 125",
						"pricer curve vol --kind double-no-touch --barrier 90 --barrier2 110 --rebate 10",
					},
				},
				{
					title: "Quote Cache",
					commands: []string{
						"PRICER_CACHE_PATH=quotes.db pricer price --kind put",
						"pricer cache stats                               # Entries and hits",
						"pricer cache clear",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}
