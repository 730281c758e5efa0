package pricing

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// chunkSeedStride separates the random streams of consecutive chunks.
const chunkSeedStride uint64 = 0x9E3779B97F4A7C15

// simSettings controls a single Monte-Carlo run.
type simSettings struct {
	paths      int
	steps      int
	seed       uint64
	workers    int
	chunkSize  int
	antithetic bool
	bridge     bool
}

// estimate is the sample mean of a simulated payoff and its standard error.
type estimate struct {
	mean   float64
	stdErr float64
}

// gbm describes a lognormal diffusion with drift b under the pricing measure.
type gbm struct {
	spot  float64
	drift float64
	vol   float64
	t     float64
}

// barrierWatch lists the levels a path is monitored against. A zero lower or an
// infinite upper disables that side.
type barrierWatch struct {
	lower float64
	upper float64
}

func watchNone() barrierWatch { return barrierWatch{upper: math.Inf(1)} }

func (w barrierWatch) hasLower() bool { return w.lower > 0 }
func (w barrierWatch) hasUpper() bool { return !math.IsInf(w.upper, 1) }

// pathOutcome summarises one simulated path.
type pathOutcome struct {
	terminal float64
	hitLower bool
	hitUpper bool
}

func (o pathOutcome) touched() bool { return o.hitLower || o.hitUpper }

// run splits n samples into fixed chunks, evaluates them in parallel and reduces
// the chunk sums in chunk order so the estimate does not depend on scheduling.
func (s simSettings) run(ctx context.Context, n int, chunk func(rng *rand.Rand, out []float64)) (estimate, error) {
	if n <= 0 {
		return estimate{}, nil
	}
	size := s.chunkSize
	if size <= 0 {
		size = n
	}
	chunks := (n + size - 1) / size
	sums := make([]float64, chunks)
	squares := make([]float64, chunks)

	g, gctx := errgroup.WithContext(ctx)
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}
	for i := 0; i < chunks; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			count := size
			if rem := n - i*size; rem < count {
				count = rem
			}
			out := make([]float64, count)
			rng := rand.New(rand.NewSource(s.seed + uint64(i)*chunkSeedStride))
			chunk(rng, out)
			sums[i] = floats.Sum(out)
			squares[i] = floats.Dot(out, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return estimate{}, err
	}

	var sum, sumSq float64
	for i := range sums {
		sum += sums[i]
		sumSq += squares[i]
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 || n < 2 {
		variance = 0
	}
	return estimate{mean: mean, stdErr: math.Sqrt(variance / float64(n))}, nil
}

// terminal estimates E[payoff(S_T)] by sampling the terminal spot directly.
// With antithetic variates each sample averages the payoff over (Z, -Z).
func (s simSettings) terminal(ctx context.Context, m gbm, payoff func(st float64) float64) (estimate, error) {
	n := s.paths
	if s.antithetic {
		n = (s.paths + 1) / 2
	}
	drift := (m.drift - 0.5*m.vol*m.vol) * m.t
	diffusion := m.vol * math.Sqrt(m.t)
	return s.run(ctx, n, func(rng *rand.Rand, out []float64) {
		for i := range out {
			z := rng.NormFloat64()
			v := payoff(m.spot * math.Exp(drift+diffusion*z))
			if s.antithetic {
				v = 0.5 * (v + payoff(m.spot*math.Exp(drift-diffusion*z)))
			}
			out[i] = v
		}
	})
}

// walk simulates discretely monitored paths and estimates E[payoff(outcome)].
// Every step draws one normal and one uniform so that bumped repricings see the
// same random numbers. The uniform drives the Brownian-bridge crossing test that
// catches breaches between monitoring dates.
func (s simSettings) walk(ctx context.Context, m gbm, w barrierWatch, payoff func(pathOutcome) float64) (estimate, error) {
	steps := s.steps
	if steps <= 0 {
		steps = 1
	}
	dt := m.t / float64(steps)
	mu := (m.drift - 0.5*m.vol*m.vol) * dt
	sd := m.vol * math.Sqrt(dt)
	variance := m.vol * m.vol * dt
	x0 := math.Log(m.spot)

	lnL, lnU := math.Inf(-1), math.Inf(1)
	if w.hasLower() {
		lnL = math.Log(w.lower)
	}
	if w.hasUpper() {
		lnU = math.Log(w.upper)
	}
	startLower := w.hasLower() && x0 <= lnL
	startUpper := w.hasUpper() && x0 >= lnU

	return s.run(ctx, s.paths, func(rng *rand.Rand, out []float64) {
		for i := range out {
			x := x0
			o := pathOutcome{hitLower: startLower, hitUpper: startUpper}
			for j := 0; j < steps; j++ {
				y := x + mu + sd*rng.NormFloat64()
				u := rng.Float64()
				if w.hasLower() && !o.hitLower {
					if y <= lnL {
						o.hitLower = true
					} else if s.bridge && variance > 0 && u < math.Exp(-2*(x-lnL)*(y-lnL)/variance) {
						o.hitLower = true
					}
				}
				if w.hasUpper() && !o.hitUpper {
					if y >= lnU {
						o.hitUpper = true
					} else if s.bridge && variance > 0 && 1-u < math.Exp(-2*(lnU-x)*(lnU-y)/variance) {
						o.hitUpper = true
					}
				}
				x = y
			}
			o.terminal = math.Exp(x)
			out[i] = payoff(o)
		}
	})
}
