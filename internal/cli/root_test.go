package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/store"
)

var fixedMarket = []string{"--spot", "100", "--vol", "20", "--rate", "5", "--valuation", "2024-01-02", "--years", "1"}

func run(dir string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(dir, args...)
	if err != nil {
		t.Fatalf("pricer %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decode(t *testing.T, data string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, data)
	}
}

func TestVersionCommand(t *testing.T) {
	out := mustRun(t, t.TempDir(), "version", "--json")
	var v map[string]string
	decode(t, out, &v)
	if v["version"] != Version {
		t.Errorf("version = %q, want %q", v["version"], Version)
	}
}

func TestPriceCommand(t *testing.T) {
	args := append([]string{"price", "--json", "--kind", "call", "--strike", "110", "--qty", "2"}, fixedMarket...)
	out := mustRun(t, t.TempDir(), args...)

	var res priceOutput
	decode(t, out, &res)
	if math.Abs(res.Result.Price-6.0401) > 1e-3 {
		t.Errorf("price = %f, want 6.0401", res.Result.Price)
	}
	if math.Abs(res.Premium-2*res.Result.Price) > 1e-12 {
		t.Errorf("premium = %f, want twice the price", res.Premium)
	}
	if res.Cached {
		t.Error("cache is disabled by default")
	}
}

func TestPriceCommandTextOutput(t *testing.T) {
	args := append([]string{"price", "--kind", "call", "--strike", "100", "--greeks"}, fixedMarket...)
	out := mustRun(t, t.TempDir(), args...)
	for _, want := range []string{"Valuation", "10.4506", "black-scholes", "Delta"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPriceCommandShowsNotional(t *testing.T) {
	args := append([]string{"price", "--kind", "put", "--strike", "95", "--qty", "-1500"}, fixedMarket...)
	out := mustRun(t, t.TempDir(), args...)
	if !strings.Contains(out, "150,000.00") {
		t.Errorf("output missing the grouped notional:\n%s", out)
	}
}

func TestGreeksCommandScalesByQuantity(t *testing.T) {
	args := append([]string{"greeks", "--json", "--kind", "call", "--qty", "-1"}, fixedMarket...)
	out := mustRun(t, t.TempDir(), args...)

	var res priceOutput
	decode(t, out, &res)
	if res.Result.Greeks == nil {
		t.Fatal("greeks missing")
	}
	if math.Abs(res.Result.Greeks.Delta+0.6368) > 2e-3 {
		t.Errorf("delta = %f, want -0.6368 for a short call", res.Result.Greeks.Delta)
	}
}

func TestPriceCommandRejectsUnknownKind(t *testing.T) {
	args := append([]string{"price", "--kind", "butterfly"}, fixedMarket...)
	_, err := run(t.TempDir(), args...)
	if !errors.Is(err, errors.ErrInvalidLeg) {
		t.Errorf("error = %v, want ErrInvalidLeg", err)
	}
}

func TestPriceCommandUsesQuoteCache(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRICER_CACHE_PATH", filepath.Join(dir, "quotes.db"))

	args := append([]string{"price", "--json", "--kind", "put", "--strike", "100"}, fixedMarket...)
	var first, second priceOutput
	decode(t, mustRun(t, dir, args...), &first)
	decode(t, mustRun(t, dir, args...), &second)

	if first.Cached || !second.Cached {
		t.Errorf("cached = %v then %v, want false then true", first.Cached, second.Cached)
	}
	if first.Result.Price != second.Result.Price {
		t.Errorf("cached price %f differs from computed %f", second.Result.Price, first.Result.Price)
	}

	text := mustRun(t, dir, append([]string{"price", "--kind", "put", "--strike", "100"}, fixedMarket...)...)
	if !strings.Contains(text, "Served from quote cache") {
		t.Errorf("text output does not report the cache hit:\n%s", text)
	}

	var stats store.CacheStats
	decode(t, mustRun(t, dir, "cache", "stats", "--json"), &stats)
	if stats.Entries != 1 || stats.TotalHits != 2 || stats.ByKind["put"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	var cleared map[string]int64
	decode(t, mustRun(t, dir, "cache", "clear", "--json"), &cleared)
	if cleared["deleted"] != 1 {
		t.Errorf("deleted = %d, want 1", cleared["deleted"])
	}
}

func TestCacheCommandRequiresCache(t *testing.T) {
	if _, err := run(t.TempDir(), "cache", "stats"); err == nil {
		t.Error("expected an error with the cache disabled")
	}
}

func TestSolveCommand(t *testing.T) {
	args := append([]string{"solve", "--json", "--fixed-kind", "put", "--fixed-strike", "95", "--kind", "call", "--qty", "-1"}, fixedMarket...)
	out := mustRun(t, t.TempDir(), args...)

	var res solveOutput
	decode(t, out, &res)
	if !res.Result.Converged {
		t.Fatalf("solver did not converge: %+v", res.Result)
	}
	if res.Result.StrikePct <= 100 || res.Result.StrikePct >= 150 {
		t.Errorf("strike = %f%%, want an out-of-the-money call", res.Result.StrikePct)
	}
	if math.Abs(res.Result.Price-res.Result.Target) > 1e-3 {
		t.Errorf("price %f misses target %f", res.Result.Price, res.Result.Target)
	}
	if res.Solve.Strike != res.Result.StrikePct {
		t.Errorf("solved leg strike = %f, want %f", res.Solve.Strike, res.Result.StrikePct)
	}
}

func TestStrategyCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collar.toml")
	mustRun(t, dir, "strategy", "--init", path)

	out := mustRun(t, dir, "strategy", path, "--json", "--payoff", "--points", "5")
	var res strategyOutput
	decode(t, out, &res)
	if len(res.Valuation.Legs) != 3 {
		t.Fatalf("legs = %d, want 3", len(res.Valuation.Legs))
	}
	if len(res.Payoff) != 5 {
		t.Errorf("payoff points = %d, want 5", len(res.Payoff))
	}

	var net float64
	for _, lv := range res.Valuation.Legs {
		net += lv.Leg.Quantity * lv.Result.Price
	}
	if math.Abs(net-res.Valuation.NetPremium) > 1e-9 {
		t.Errorf("net premium = %f, want %f", res.Valuation.NetPremium, net)
	}

	text := mustRun(t, dir, "strategy", path)
	if !strings.Contains(text, "Net premium") {
		t.Errorf("text output missing net premium:\n%s", text)
	}
}

func TestStrategyCommandNeedsFile(t *testing.T) {
	if _, err := run(t.TempDir(), "strategy"); err == nil {
		t.Error("expected an error without a strategy file")
	}
}

func TestCurveCommands(t *testing.T) {
	dir := t.TempDir()

	args := append([]string{"curve", "spot", "--json", "--kind", "call", "--from", "80", "--to", "120", "--points", "5"}, fixedMarket...)
	var spot curveOutput
	decode(t, mustRun(t, dir, args...), &spot)
	if len(spot.Points) != 5 || spot.Points[0].X != 80 || spot.Points[4].X != 120 {
		t.Fatalf("spot curve = %+v", spot.Points)
	}
	for i := 1; i < len(spot.Points); i++ {
		if spot.Points[i].Price <= spot.Points[i-1].Price {
			t.Errorf("call price not increasing in spot at %f", spot.Points[i].X)
		}
	}

	args = append([]string{"curve", "vol", "--json", "--kind", "double-no-touch", "--barrier", "90", "--barrier2", "110", "--rebate", "10", "--points", "4"}, fixedMarket...)
	var vol curveOutput
	decode(t, mustRun(t, dir, args...), &vol)
	for i := 1; i < len(vol.Points); i++ {
		if vol.Points[i].Price > vol.Points[i-1].Price {
			t.Errorf("double-no-touch price rises with volatility at %f", vol.Points[i].X)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	var path map[string]string
	decode(t, mustRun(t, dir, "config", "path", "--json"), &path)
	if path["path"] != filepath.Join(dir, "config.toml") {
		t.Errorf("path = %q", path["path"])
	}

	out := mustRun(t, dir, "config", "show")
	if !strings.Contains(out, "Simulations:") || !strings.Contains(out, "ACT/365F") {
		t.Errorf("config show output:\n%s", out)
	}

	t.Setenv("PRICER_SIMULATIONS", "-5")
	if _, err := run(dir, "config", "validate"); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("error = %v, want ErrConfigInvalid", err)
	}
}

func TestCurveCommandCSV(t *testing.T) {
	args := append([]string{"curve", "spot", "--csv", "--kind", "put", "--from", "90", "--to", "110", "--points", "3"}, fixedMarket...)
	out := mustRun(t, t.TempDir(), args...)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header plus 3 rows:\n%s", len(lines), out)
	}
	if lines[0] != "x,price,change" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "90,") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestStrategyPayoffCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collar.toml")
	mustRun(t, dir, "strategy", "--init", path)

	out := mustRun(t, dir, "strategy", path, "--payoff", "--csv", "--points", "3")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || lines[0] != "spot,spot_pct,payoff,pnl" {
		t.Errorf("unexpected CSV:\n%s", out)
	}
}
