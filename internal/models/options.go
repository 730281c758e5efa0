package models

// Model selects the numerical method.
type Model string

const (
	ModelClosedForm   Model = "closed-form"
	ModelBlackScholes Model = "black-scholes"
	ModelMonteCarlo   Model = "monte-carlo"
)

// ParseModel parses a model name. The empty string selects the closed form.
func ParseModel(s string) (Model, bool) {
	switch Model(s) {
	case "", ModelClosedForm, "analytic":
		return ModelClosedForm, true
	case ModelBlackScholes, "bs":
		return ModelBlackScholes, true
	case ModelMonteCarlo, "mc":
		return ModelMonteCarlo, true
	}
	return "", false
}

// IsMonteCarlo reports whether m is the simulation method.
func (m Model) IsMonteCarlo() bool {
	return m == ModelMonteCarlo
}

// Method labels reported in PricingResult.
const (
	MethodBlackScholes        = "black-scholes"
	MethodMonteCarlo          = "monte-carlo"
	MethodBarrierAnalytic     = "barrier-analytic"
	MethodDoubleBarrierSeries = "double-barrier-series"
	MethodBarrierMonteCarlo   = "barrier-monte-carlo"
	MethodDigitalMonteCarlo   = "digital-monte-carlo"
	MethodIntrinsic           = "intrinsic"
	MethodForward             = "forward"
	MethodSwap                = "swap"
)

// Greeks holds price sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Scale multiplies every sensitivity by q.
func (g Greeks) Scale(q float64) Greeks {
	return Greeks{
		Delta: g.Delta * q,
		Gamma: g.Gamma * q,
		Theta: g.Theta * q,
		Vega:  g.Vega * q,
		Rho:   g.Rho * q,
	}
}

// Add returns the component-wise sum of g and o.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// PricingRequest is a single valuation request.
type PricingRequest struct {
	Leg         Leg            `json:"leg"`
	Market      MarketSnapshot `json:"market"`
	Model       Model          `json:"model"`
	Simulations int            `json:"simulations,omitempty"`
	Steps       int            `json:"steps,omitempty"`
	Seed        uint64         `json:"seed,omitempty"`
	WithGreeks  bool           `json:"with_greeks,omitempty"`
}

// PricingResult is the engine's answer for one leg. Price is per unit and never negative;
// Greeks are scaled by the signed leg quantity.
type PricingResult struct {
	Price    float64 `json:"price"`
	Method   string  `json:"method"`
	StdError float64 `json:"std_error,omitempty"`
	Greeks   *Greeks `json:"greeks,omitempty"`
}

// SolverResult reports a zero-cost strike search.
type SolverResult struct {
	StrikePct  float64 `json:"strike_pct"`
	Strike     float64 `json:"strike"`
	Price      float64 `json:"price"`
	Target     float64 `json:"target"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// LegValuation pairs a leg with its pricing result.
type LegValuation struct {
	Leg    Leg           `json:"leg"`
	Result PricingResult `json:"result"`
}

// StrategyValuation aggregates a multi-leg strategy.
type StrategyValuation struct {
	Legs       []LegValuation `json:"legs"`
	NetPremium float64        `json:"net_premium"` // signed: positive is paid
	Greeks     Greeks         `json:"greeks"`
}

// PayoffPoint is one point of a strategy payoff curve.
type PayoffPoint struct {
	Spot   float64 `json:"spot"`
	Payoff float64 `json:"payoff"`
}
