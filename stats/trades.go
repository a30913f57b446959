package stats

import (
	"math"
	"time"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/sim"
)

// fillTrades computes the trade-level fields strictly from the trade list.
func (s *BacktestStats) fillTrades(trades []sim.Trade) {
	n := len(trades)
	s.NTrades = n
	if n == 0 {
		return
	}

	var (
		wins                int
		winPct, lossPct     float64
		grossWin, grossLoss float64
		sumPct              float64
		maxDur, sumDur      time.Duration
	)
	best, worst := math.Inf(-1), math.Inf(1)
	pnl := make([]float64, n)
	for i, t := range trades {
		pnl[i] = t.PnL
		sumPct += t.ReturnPct
		best = math.Max(best, t.ReturnPct)
		worst = math.Min(worst, t.ReturnPct)

		if t.Winner() {
			wins++
			winPct += t.ReturnPct
		} else {
			lossPct += t.ReturnPct
		}
		switch {
		case t.PnL > 0:
			grossWin += t.PnL
		case t.PnL < 0:
			grossLoss -= t.PnL
		}

		d := t.Duration()
		sumDur += d
		if d > maxDur {
			maxDur = d
		}
	}

	wr := float64(wins) / float64(n)
	s.WinRatePct = finite(wr * 100)
	s.BestTradePct = finite(best)
	s.WorstTradePct = finite(worst)
	s.AvgTradePct = finite(sumPct / float64(n))
	s.MaxTradeDurationSeconds = optional.Some(int64(maxDur / time.Second))
	s.AvgTradeDurationSeconds = optional.Some(int64(sumDur / time.Duration(n) / time.Second))

	if grossLoss > 0 {
		s.ProfitFactor = finite(grossWin / grossLoss)
	}

	losses := n - wins
	var avgWin, avgLoss float64
	if wins > 0 {
		avgWin = winPct / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossPct / float64(losses)
	}
	s.ExpectancyPct = finite(wr*avgWin + (1-wr)*avgLoss)

	if sd, ok := stdev(pnl); ok && sd > 0 {
		s.SQN = finite(mean(pnl) / sd * math.Sqrt(float64(n)))
	}

	// payoff ratio = average win / |average loss|
	if wins > 0 && losses > 0 && avgLoss < 0 {
		payoff := avgWin / -avgLoss
		s.KellyCriterion = finite(wr - (1-wr)/payoff)
	}
}
