package journal

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souloss/TradingLab/sim"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	entry := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	trade := sim.Trade{
		ID:         "01HRZ8ABCDEFGH12345678",
		Size:       5100,
		EntryTime:  entry,
		ExitTime:   exit,
		EntryPrice: 19.5,
		ExitPrice:  21.25,
		PnL:        8863.41,
		ReturnPct:  8.97,
		Commission: 62.34,
		Tag:        optional.Some(sim.EndOfRunTag),
	}

	result := FormatTradeOrg(trade, "600000.SH")

	assert.Contains(t, result, "** Trade: 600000.SH (12345678)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HRZ8ABCDEFGH12345678")
	assert.Contains(t, result, ":SIZE: 5100")
	assert.Contains(t, result, ":ENTRY_PRICE: 19.5000")
	assert.Contains(t, result, ":EXIT_PRICE: 21.2500")
	assert.Contains(t, result, ":ENTRY_TIME: 2024-03-15T00:00:00Z")
	assert.Contains(t, result, ":EXIT_TIME: 2024-03-20T00:00:00Z")
	assert.Contains(t, result, ":PNL: 8863.41")
	assert.Contains(t, result, ":TAG: "+sim.EndOfRunTag)
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgWithoutTag(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(sim.Trade{ID: "short"}, "X")
	assert.Contains(t, result, "** Trade: X (short)")
	assert.NotContains(t, result, ":TAG:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	trades := []sim.Trade{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	result := FormatTradesOrg(trades, "X")
	assert.Equal(t, 3, strings.Count(result, "** Trade: X"))
	assert.Equal(t, 2, strings.Count(result, ":END:\n\n*** Review\n- \n\n\n"))

	assert.Empty(t, FormatTradesOrg(nil, "X"))
}

func TestOrgReport(t *testing.T) {
	res := runFor(t, "WAVE", "sine", day0)

	report, err := OrgReport(res)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report, "* BACKTEST: WAVE sine\n"))
	assert.Contains(t, report, ":RUN_ID:      "+res.RunID)
	assert.Contains(t, report, ":FINALIZE:    close_at_end")
	assert.Contains(t, report, ":START_DATE:  2024-01-02")
	assert.Contains(t, report, "| 0 | "+res.Strategies[0].String()+" |")
	assert.Contains(t, report, "| Total   | "+strconv.Itoa(len(res.Trades))+" |")
	assert.Equal(t, len(res.Trades), strings.Count(report, "** Trade: WAVE"))
}

func TestOrgReportUndefinedStats(t *testing.T) {
	res := runFor(t, "WAVE", "", day0)
	res.Stats.SharpeRatio = optional.None[float64]()

	report, err := OrgReport(res)
	require.NoError(t, err)
	assert.Contains(t, report, "- Sharpe:           *n/a*")
}

func TestWriteOrg(t *testing.T) {
	res := runFor(t, "WAVE", "", day0)
	path := filepath.Join(t.TempDir(), "report.org")

	require.NoError(t, WriteOrg(path, res))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want, err := OrgReport(res)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("12345678"))
	assert.Equal(t, "23456789", shortID("123456789"))
}
