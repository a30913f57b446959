package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souloss/TradingLab/pkg/errors"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)
	res := runFor(t, "WAVE", "sine", day0.Add(48*time.Hour))

	require.NoError(t, j.RecordRun(ctx, res))

	got, err := j.GetRun(ctx, res.RunID)
	require.NoError(t, err)

	assert.Equal(t, res.RunID, got.RunID)
	assert.Equal(t, "WAVE", got.Symbol)
	assert.Equal(t, "sine", got.Name)
	assert.True(t, res.Created.Equal(got.Created))
	assert.Equal(t, res.Combiner, got.Combiner)
	assert.Equal(t, res.Finalize, got.Finalize)
	assert.JSONEq(t, jsonOf(t, res.Strategies), jsonOf(t, got.Strategies))
	assert.JSONEq(t, jsonOf(t, res.Trades), jsonOf(t, got.Trades))
	assert.JSONEq(t, jsonOf(t, res.EquityCurve), jsonOf(t, got.EquityCurve))
	assert.JSONEq(t, jsonOf(t, res.Events), jsonOf(t, got.Events))
	assert.JSONEq(t, jsonOf(t, res.Stats), jsonOf(t, got.Stats))
	assert.Empty(t, got.Signals)

	// the synthetic end-of-run trade keeps its tag
	last := got.Trades[len(got.Trades)-1]
	if last.Synthetic {
		assert.True(t, last.Tag.IsSome())
	}
}

func TestSQLiteDuplicateRun(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)
	res := runFor(t, "WAVE", "", day0)

	require.NoError(t, j.RecordRun(ctx, res))
	err := j.RecordRun(ctx, res)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStorage))

	// the failed insert left nothing behind
	trades, err := j.ListTrades(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, trades, len(res.Trades))
}

func TestSQLiteRecordNil(t *testing.T) {
	j := newTestDB(t)
	require.Error(t, j.RecordRun(context.Background(), nil))
}

func TestGetRunNotFound(t *testing.T) {
	j := newTestDB(t)
	_, err := j.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)

	runs := []struct{ symbol, name string }{
		{"AAA", "alpha"},
		{"BBB", "beta"},
		{"AAA", "gamma"},
		{"CCC", "alphabet"},
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		res := runFor(t, r.symbol, r.name, day0.Add(time.Duration(i)*time.Hour))
		require.NoError(t, j.RecordRun(ctx, res))
		ids[i] = res.RunID
	}

	tests := []struct {
		name  string
		f     Filter
		want  []string
		total int
	}{
		{"all newest first", Filter{}, []string{ids[3], ids[2], ids[1], ids[0]}, 4},
		{"by symbol", Filter{Symbol: "AAA"}, []string{ids[2], ids[0]}, 2},
		{"keyword on name", Filter{Keyword: "alpha"}, []string{ids[3], ids[0]}, 2},
		{"keyword on symbol", Filter{Keyword: "BB"}, []string{ids[1]}, 1},
		{"symbol and keyword", Filter{Symbol: "AAA", Keyword: "gam"}, []string{ids[2]}, 1},
		{"second page", Filter{Page: 2, PageSize: 3}, []string{ids[0]}, 4},
		{"past the end", Filter{Page: 5, PageSize: 3}, []string{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := j.ListRuns(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.total, page.Total)

			got := []string{}
			for _, s := range page.Items {
				got = append(got, s.RunID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListRunsSummary(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)
	res := runFor(t, "WAVE", "sine", day0)
	require.NoError(t, j.RecordRun(ctx, res))

	page, err := j.ListRuns(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	s := page.Items[0]
	assert.Equal(t, res.Stats.NTrades, s.NTrades)
	assert.Equal(t, res.Stats.EquityFinal, s.EquityFinal)
	assert.Equal(t, res.Stats.ReturnPct, s.ReturnPct)
	assert.Equal(t, res.Stats.MaxDrawdownPct, s.MaxDrawdownPct)
	assert.Equal(t, res.Stats.SharpeRatio, s.SharpeRatio)
	assert.True(t, res.Stats.Start.Equal(s.Start))
	assert.True(t, res.Stats.End.Equal(s.End))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)
	keep := runFor(t, "AAA", "", day0)
	drop := runFor(t, "BBB", "", day0.Add(time.Hour))
	require.NoError(t, j.RecordRun(ctx, keep))
	require.NoError(t, j.RecordRun(ctx, drop))

	require.NoError(t, j.DeleteRun(ctx, drop.RunID))

	_, err := j.GetRun(ctx, drop.RunID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	trades, err := j.ListTrades(ctx, drop.RunID)
	require.NoError(t, err)
	assert.Empty(t, trades)
	curve, err := j.ListEquity(ctx, drop.RunID)
	require.NoError(t, err)
	assert.Empty(t, curve)

	_, err = j.GetRun(ctx, keep.RunID)
	require.NoError(t, err)

	err = j.DeleteRun(ctx, drop.RunID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestListTradesClosedBetween(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)
	res := runFor(t, "WAVE", "", day0)
	require.NoError(t, j.RecordRun(ctx, res))

	first := res.Trades[0]
	got, err := j.ListTradesClosedBetween(ctx, first.ExitTime, first.ExitTime.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	all, err := j.ListTradesClosedBetween(ctx, day0, day0.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, all, len(res.Trades))

	none, err := j.ListTradesClosedBetween(ctx, day0.AddDate(-1, 0, 0), day0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestZonedTimesStoredAsUTC(t *testing.T) {
	ctx := context.Background()
	j := newTestDB(t)
	res := runFor(t, "ZONE", "", day0)

	tokyo := time.FixedZone("JST", 9*60*60)
	for i := range res.Trades {
		res.Trades[i].EntryTime = res.Trades[i].EntryTime.In(tokyo)
		res.Trades[i].ExitTime = res.Trades[i].ExitTime.In(tokyo)
	}
	for i := range res.EquityCurve {
		res.EquityCurve[i].Time = res.EquityCurve[i].Time.In(tokyo)
	}
	require.NoError(t, j.RecordRun(ctx, res))

	first := res.Trades[0]
	exit := first.ExitTime.UTC()
	got, err := j.ListTradesClosedBetween(ctx, exit, exit.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)
	assert.True(t, first.ExitTime.Equal(got[0].ExitTime))

	curve, err := j.ListEquity(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, curve, len(res.EquityCurve))
	assert.True(t, res.EquityCurve[0].Time.Equal(curve[0].Time))
}
