// Package journal persists backtest runs: SQLite for querying past runs,
// CSV files for spreadsheets and Org-mode reports for notes.
package journal

import (
	"context"
	"time"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/stats"
	"github.com/souloss/TradingLab/strategies"
)

// Journal records finished runs.
type Journal interface {
	RecordRun(ctx context.Context, res *backtest.Result) error
	Close() error
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID          string              `json:"run_id"`
	Symbol         string              `json:"symbol"`
	Name           string              `json:"name,omitempty"`
	Created        time.Time           `json:"created"`
	Strategies     []strategies.Config `json:"strategies"`
	Start          time.Time           `json:"start"`
	End            time.Time           `json:"end"`
	NTrades        int                 `json:"n_trades"`
	EquityFinal    float64             `json:"equity_final"`
	ReturnPct      stats.Float         `json:"return_pct"`
	MaxDrawdownPct stats.Float         `json:"max_drawdown_pct"`
	SharpeRatio    stats.Float         `json:"sharpe_ratio"`
}

// Filter narrows ListRuns. Page is 1-based.
type Filter struct {
	Symbol string
	// Keyword matches a substring of the symbol or name.
	Keyword  string
	Page     int
	PageSize int
}

// DefaultPageSize is used when Filter.PageSize is zero.
const DefaultPageSize = 20

func (f Filter) limits() (page, size int) {
	page, size = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return page, size
}

// RunPage is one page of run summaries.
type RunPage struct {
	Items    []RunSummary `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// Nop discards every run.
type Nop struct{}

func (Nop) RecordRun(context.Context, *backtest.Result) error { return nil }

func (Nop) Close() error { return nil }
