package journal

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVJournal(t *testing.T) {
	dir := t.TempDir()
	j, err := NewCSV(filepath.Join(dir, "runs"))
	require.NoError(t, err)

	res := runFor(t, "WAVE", "", day0)
	require.NoError(t, j.RecordRun(context.Background(), res))
	require.NoError(t, j.Close())

	runDir := filepath.Join(dir, "runs", res.RunID)

	trades := readCSV(t, filepath.Join(runDir, "trades.csv"))
	require.Len(t, trades, len(res.Trades)+1)
	assert.Equal(t, tradeHeader, trades[0])
	assert.Equal(t, res.Trades[0].ID, trades[1][0])
	assert.Equal(t, f(res.Trades[0].PnL), trades[1][10])
	// no stop-loss is ever set
	assert.Equal(t, "", trades[1][8])

	equity := readCSV(t, filepath.Join(runDir, "equity.csv"))
	require.Len(t, equity, len(res.EquityCurve)+1)
	assert.Equal(t, equityHeader, equity[0])
	assert.Equal(t, "0", equity[1][0])
	assert.Equal(t, f(res.EquityCurve[0].Equity), equity[1][3])

	_, err = os.Stat(filepath.Join(runDir, "report.org"))
	require.NoError(t, err)
}

func TestCSVJournalCancelled(t *testing.T) {
	j, err := NewCSV(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := runFor(t, "WAVE", "", day0)
	require.ErrorIs(t, j.RecordRun(ctx, res), context.Canceled)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.000000"},
		{19.5, "19.500000"},
		{-0.1234567, "-0.123457"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, f(tt.in))
		})
	}
}
