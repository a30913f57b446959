package journal

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/sim"
	"github.com/souloss/TradingLab/strategies"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// wave oscillates enough for MA(5,20) to cross several times.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round((20+5*math.Sin(float64(i)/6))*100) / 100
	}
	return out
}

func runFor(t *testing.T, symbol, name string, created time.Time) *backtest.Result {
	t.Helper()
	e, err := backtest.NewEngine(backtest.Options{Finalize: sim.CloseAtEnd})
	require.NoError(t, err)

	bs := market.FromCloses(symbol, day0, wave(200), 1000)
	bs.Name = name
	res, err := e.Run(context.Background(), bs, []strategies.Config{strategies.DefaultConfig(strategies.TypeMA)})
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)
	res.Created = created
	return res
}

func TestNopJournal(t *testing.T) {
	var j Journal = Nop{}
	require.NoError(t, j.RecordRun(context.Background(), nil))
	require.NoError(t, j.Close())
}

func TestFilterLimits(t *testing.T) {
	tests := []struct {
		name       string
		f          Filter
		page, size int
	}{
		{"defaults", Filter{}, 1, DefaultPageSize},
		{"negative page", Filter{Page: -3, PageSize: 5}, 1, 5},
		{"explicit", Filter{Page: 4, PageSize: 7}, 4, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := tt.f.limits()
			require.Equal(t, tt.page, page)
			require.Equal(t, tt.size, size)
		})
	}
}
