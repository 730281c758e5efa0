package cli

import (
	"time"

	"github.com/spf13/cobra"

	"strategy-pricer/internal/config"
	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/models"
)

// addMarketFlags registers the market snapshot flags.
func addMarketFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("spot", 100, "spot price")
	cmd.Flags().Float64("vol", 20, "volatility in percent")
	cmd.Flags().Float64("rate", 5, "domestic interest rate in percent")
	cmd.Flags().Float64("foreign-rate", 0, "foreign rate or dividend yield in percent")
	cmd.Flags().String("valuation", "", "valuation date YYYY-MM-DD (default: today)")
	cmd.Flags().String("maturity", "", "maturity date YYYY-MM-DD")
	cmd.Flags().Float64("years", 1, "time to maturity in years, used when --maturity is not set")
}

func marketFromFlags(cmd *cobra.Command) (models.MarketSnapshot, error) {
	flags := cmd.Flags()
	var ms config.MarketSpec
	ms.Spot, _ = flags.GetFloat64("spot")
	ms.Volatility, _ = flags.GetFloat64("vol")
	ms.DomesticRate, _ = flags.GetFloat64("rate")
	ms.ForeignRate, _ = flags.GetFloat64("foreign-rate")
	ms.ValuationDate, _ = flags.GetString("valuation")
	ms.MaturityDate, _ = flags.GetString("maturity")
	ms.Years, _ = flags.GetFloat64("years")
	return ms.Snapshot(time.Now())
}

// addLegFlags registers the flags describing one leg. A non-empty prefix
// namespaces them, e.g. "fixed-" gives --fixed-kind.
func addLegFlags(cmd *cobra.Command, prefix, defaultKind string) {
	cmd.Flags().String(prefix+"kind", defaultKind, "instrument kind (call, put, call-knockout, one-touch, ...)")
	cmd.Flags().Float64(prefix+"strike", 100, "strike")
	cmd.Flags().String(prefix+"strike-mode", "percent", "strike quoting: percent of spot or absolute")
	cmd.Flags().Float64(prefix+"qty", 1, "signed quantity; negative sells")
	cmd.Flags().Float64(prefix+"barrier", 0, "barrier level")
	cmd.Flags().Float64(prefix+"barrier2", 0, "second barrier for double barriers and range contracts")
	cmd.Flags().String(prefix+"barrier-mode", "percent", "barrier quoting: percent of spot or absolute")
	cmd.Flags().Float64(prefix+"rebate", 0, "digital payout in percent of spot")
	cmd.Flags().Float64(prefix+"leg-vol", 0, "leg volatility in percent (default: market volatility)")
	cmd.Flags().Float64(prefix+"payoff-time", 0, "one-touch payment time in years (default: maturity)")
}

func legFromFlags(cmd *cobra.Command, prefix string) (models.Leg, error) {
	flags := cmd.Flags()
	var leg models.Leg

	kind, _ := flags.GetString(prefix + "kind")
	k, err := models.ParseInstrumentKind(kind)
	if err != nil {
		return leg, errors.NewLegError(prefix+"kind", kind, err.Error())
	}
	leg.Kind = k

	strikeMode, _ := flags.GetString(prefix + "strike-mode")
	if leg.StrikeMode, err = models.ParseValueMode(strikeMode); err != nil {
		return leg, errors.NewLegError(prefix+"strike-mode", strikeMode, err.Error())
	}
	barrierMode, _ := flags.GetString(prefix + "barrier-mode")
	if leg.BarrierMode, err = models.ParseValueMode(barrierMode); err != nil {
		return leg, errors.NewLegError(prefix+"barrier-mode", barrierMode, err.Error())
	}

	leg.Strike, _ = flags.GetFloat64(prefix + "strike")
	leg.Quantity, _ = flags.GetFloat64(prefix + "qty")
	leg.Barrier, _ = flags.GetFloat64(prefix + "barrier")
	leg.SecondBarrier, _ = flags.GetFloat64(prefix + "barrier2")
	leg.Rebate, _ = flags.GetFloat64(prefix + "rebate")
	leg.Volatility, _ = flags.GetFloat64(prefix + "leg-vol")
	if flags.Changed(prefix + "payoff-time") {
		tp, _ := flags.GetFloat64(prefix + "payoff-time")
		leg.TimeToPayoff = &tp
	}
	return leg, nil
}

// addSimulationFlags registers the model and Monte-Carlo overrides.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "closed-form, black-scholes or monte-carlo (default: from config)")
	cmd.Flags().Int("sims", 0, "Monte-Carlo paths (default: from config)")
	cmd.Flags().Int("steps", 0, "monitoring steps per path (default: from config)")
	cmd.Flags().Uint64("seed", 0, "random seed (default: from config)")
}

// requestFromFlags builds a pricing request from the leg, market and
// simulation flags. Unset simulation settings take the configured values so
// cached quotes are keyed on what was actually run.
func (a *App) requestFromFlags(cmd *cobra.Command) (models.PricingRequest, error) {
	var req models.PricingRequest

	leg, err := legFromFlags(cmd, "")
	if err != nil {
		return req, err
	}
	mkt, err := marketFromFlags(cmd)
	if err != nil {
		return req, err
	}
	name, _ := cmd.Flags().GetString("model")
	model, err := a.model(name)
	if err != nil {
		return req, err
	}

	req = models.PricingRequest{
		Leg:         leg,
		Market:      mkt,
		Model:       model,
		Simulations: a.Config.Engine.Simulations,
		Steps:       a.Config.Engine.Steps,
		Seed:        a.Config.Engine.Seed,
	}
	if cmd.Flags().Changed("sims") {
		req.Simulations, _ = cmd.Flags().GetInt("sims")
	}
	if cmd.Flags().Changed("steps") {
		req.Steps, _ = cmd.Flags().GetInt("steps")
	}
	if cmd.Flags().Changed("seed") {
		req.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	return req, nil
}
