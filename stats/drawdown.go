package stats

import (
	"time"

	"github.com/souloss/TradingLab/sim"
)

// Episode is one contiguous stretch below a running equity peak.
type Episode struct {
	PeakBar     int
	TroughBar   int
	RecoveryBar int // -1 while still under water at the end of the curve
	Depth       float64
	Bars        int64
	Duration    time.Duration
}

// Recovered reports whether equity climbed back to the peak.
func (e Episode) Recovered() bool {
	return e.RecoveryBar >= 0
}

type drawdownSummary struct {
	max, avg   float64
	maxSeconds int64
	avgSeconds int64
	maxBars    int64
	episodes   []Episode
}

// Episodes splits the curve into drawdown episodes. An episode runs from
// the bar that set the peak to the first bar back at or above it, or to
// the last bar if equity never recovers.
func Episodes(curve []sim.EquityPoint) []Episode {
	var (
		out     []Episode
		peak    float64
		peakBar int
		cur     *Episode
	)
	for i, p := range curve {
		if i == 0 || p.Equity >= peak {
			if cur != nil {
				cur.RecoveryBar = i
				cur.Bars = int64(i - cur.PeakBar)
				cur.Duration = p.Time.Sub(curve[cur.PeakBar].Time)
				out = append(out, *cur)
				cur = nil
			}
			peak, peakBar = p.Equity, i
			continue
		}
		if peak <= 0 {
			continue
		}
		depth := (peak - p.Equity) / peak
		if cur == nil {
			cur = &Episode{PeakBar: peakBar, TroughBar: i, RecoveryBar: -1}
		}
		if depth > cur.Depth {
			cur.Depth = depth
			cur.TroughBar = i
		}
	}
	if cur != nil {
		last := len(curve) - 1
		cur.Bars = int64(last - cur.PeakBar)
		cur.Duration = curve[last].Time.Sub(curve[cur.PeakBar].Time)
		out = append(out, *cur)
	}
	return out
}

func drawdowns(curve []sim.EquityPoint) drawdownSummary {
	eps := Episodes(curve)
	s := drawdownSummary{episodes: eps}
	if len(eps) == 0 {
		return s
	}

	var depth float64
	var secs int64
	for _, e := range eps {
		depth += e.Depth
		d := int64(e.Duration / time.Second)
		secs += d
		if e.Depth > s.max {
			s.max = e.Depth
		}
		if d > s.maxSeconds {
			s.maxSeconds = d
		}
		if e.Bars > s.maxBars {
			s.maxBars = e.Bars
		}
	}
	s.avg = depth / float64(len(eps))
	s.avgSeconds = secs / int64(len(eps))
	return s
}
