package stats

import (
	"math"
	"time"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/sim"
)

// dailyReturns returns v[i]/v[i-1] - 1 for i >= 1. Steps from a
// non-positive value are skipped.
func dailyReturns(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	out := make([]float64, 0, len(v)-1)
	for i := 1; i < len(v); i++ {
		if v[i-1] <= 0 {
			continue
		}
		out = append(out, v[i]/v[i-1]-1)
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// stdev is the sample standard deviation; it needs at least two values.
func stdev(v []float64) (float64, bool) {
	if len(v) < 2 {
		return 0, false
	}
	m := mean(v)
	var ss float64
	for _, x := range v {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(v)-1)), true
}

// annualized compounds the total growth of v over len(v)-1 bars to a
// yearly rate, as a fraction.
func annualized(v []float64, days int) Float {
	n := len(v)
	if n < 2 || v[0] <= 0 {
		return optional.None[float64]()
	}
	growth := v[n-1] / v[0]
	return finite(math.Pow(growth, float64(days)/float64(n-1)) - 1)
}

// cagr compounds the total growth of v over elapsed calendar years.
func cagr(v []float64, elapsed time.Duration) Float {
	n := len(v)
	years := elapsed.Hours() / 24 / 365.25
	if n < 2 || v[0] <= 0 || years <= 0 {
		return optional.None[float64]()
	}
	return finite(math.Pow(v[n-1]/v[0], 1/years) - 1)
}

// sortino uses the sample deviation of the negative returns only.
func sortino(returns []float64, rf, scale float64) Float {
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	sd, ok := stdev(neg)
	if !ok || sd == 0 {
		return optional.None[float64]()
	}
	return finite((mean(returns) - rf) / sd * scale)
}

// alphaBeta regresses strategy returns on benchmark returns. Beta is
// cov/var; alpha is the annualized intercept in percent.
func alphaBeta(r, b []float64, days int) (alpha, beta Float) {
	none := optional.None[float64]()
	if len(r) != len(b) || len(r) < 2 {
		return none, none
	}
	mr, mb := mean(r), mean(b)
	var cov, vb float64
	for i := range r {
		cov += (r[i] - mr) * (b[i] - mb)
		vb += (b[i] - mb) * (b[i] - mb)
	}
	if vb == 0 {
		return none, none
	}
	n := float64(len(r) - 1)
	bt := (cov / n) / (vb / n)
	return finite((mr - bt*mb) * float64(days) * 100), finite(bt)
}

// benchmark is the close series aligned with the curve: the bars when they
// line up one to one, otherwise the closes recorded on the curve.
func benchmark(bars []market.Bar, curve []sim.EquityPoint) []float64 {
	if len(bars) == len(curve) {
		return market.Closes(bars)
	}
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Close
	}
	return out
}

func buyAndHold(bars []market.Bar, curve []sim.EquityPoint) Float {
	var first, last float64
	switch {
	case len(bars) > 0:
		first, last = bars[0].Close, bars[len(bars)-1].Close
	case len(curve) > 0:
		first, last = curve[0].Close, curve[len(curve)-1].Close
	default:
		return optional.None[float64]()
	}
	if first <= 0 {
		return optional.None[float64]()
	}
	return finite((last/first - 1) * 100)
}
