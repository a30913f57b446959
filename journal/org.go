package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/sim"
)

var orgFuncs = template.FuncMap{
	"num": func(o optional.Option[float64]) string {
		v, err := o.Take()
		if err != nil {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", v)
	},
	"days": func(o optional.Option[int64]) string {
		v, err := o.Take()
		if err != nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f", float64(v)/86400)
	},
	"wins": func(res *backtest.Result) int {
		return countWins(res.Trades)
	},
	"losses": func(res *backtest.Result) int {
		return len(res.Trades) - countWins(res.Trades)
	},
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"trades": func(res *backtest.Result) string {
		return FormatTradesOrg(res.Trades, res.Symbol)
	},
}

// OrgReportTemplate renders a *backtest.Result.
const OrgReportTemplate = `* BACKTEST: {{.Symbol}}{{if .Name}} {{.Name}}{{end}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:SYMBOL:      {{.Symbol}}
:COMBINER:    {{.Combiner}}
:FINALIZE:    {{.Finalize}}
:START_DATE:  {{.Stats.Start.Format "2006-01-02"}}
:END_DATE:    {{.Stats.End.Format "2006-01-02"}}
:END_EQUITY:  {{printf "%.2f" .Stats.EquityFinal}}
:RETURN_PCT:  {{num .Stats.ReturnPct}}
:MAX_DD_PCT:  {{num .Stats.MaxDrawdownPct}}
:TRADES:      {{.Stats.NTrades}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategies
| # | Strategy |
|---+----------|
{{- range $i, $c := .Strategies}}
| {{$i}} | {{$c}} |
{{- end}}

** Performance Summary
- Return:           *{{num .Stats.ReturnPct}}%*
- Buy & Hold:       *{{num .Stats.BuyHoldReturnPct}}%*
- Return (ann.):    *{{num .Stats.ReturnAnnPct}}%*
- Volatility (ann.): *{{num .Stats.VolatilityAnnPct}}%*
- Sharpe:           *{{num .Stats.SharpeRatio}}*
- Sortino:          *{{num .Stats.SortinoRatio}}*
- Calmar:           *{{num .Stats.CalmarRatio}}*
- Max Drawdown:     *{{num .Stats.MaxDrawdownPct}}%* over {{days .Stats.MaxDrawdownDurationSeconds}} days
- Win Rate:         *{{num .Stats.WinRatePct}}%*
- Profit Factor:    *{{num .Stats.ProfitFactor}}*
- Commissions:      *{{printf "%.2f" .Stats.Commissions}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{wins .}} |
| Losses  | {{losses .}} |
| Total   | {{len .Trades}} |
{{- if .Trades}}

** Trades
{{trades .}}
{{- end}}
`

// OrgReport renders res as an Org-mode document: a PROPERTIES drawer
// with the headline numbers, a performance summary and one block per
// trade.
func OrgReport(res *backtest.Result) (string, error) {
	t, err := template.New("report").Funcs(orgFuncs).Parse(OrgReportTemplate)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, res); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, "render org report", err)
	}
	return buf.String(), nil
}

// WriteOrg writes OrgReport(res) to path.
func WriteOrg(path string, res *backtest.Result) error {
	report, err := OrgReport(res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeStorage, err, "write %s", path)
	}
	return nil
}

// FormatTradeOrg renders a trade as an Org-mode block suitable for pasting
// into a journal. Structured facts live in the PROPERTIES drawer so they
// stay searchable.
func FormatTradeOrg(t sim.Trade, symbol string) string {
	heading := fmt.Sprintf("** Trade: %s (%s)", symbol, shortID(t.ID))
	if symbol == "" {
		heading = fmt.Sprintf("** Trade: %s", shortID(t.ID))
	}
	entry := t.EntryTime.UTC().Format(time.RFC3339)
	exit := t.ExitTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	if symbol != "" {
		b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", symbol))
	}
	b.WriteString(fmt.Sprintf(":SIZE: %d\n", t.Size))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.4f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.4f\n", t.ExitPrice))
	b.WriteString(fmt.Sprintf(":ENTRY_TIME: %s\n", entry))
	b.WriteString(fmt.Sprintf(":EXIT_TIME: %s\n", exit))
	b.WriteString(fmt.Sprintf(":PNL: %.2f\n", t.PnL))
	b.WriteString(fmt.Sprintf(":RETURN_PCT: %.2f\n", t.ReturnPct))
	b.WriteString(fmt.Sprintf(":COMMISSION: %.2f\n", t.Commission))
	if tag, err := t.Tag.Take(); err == nil {
		b.WriteString(fmt.Sprintf(":TAG: %s\n", tag))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []sim.Trade, symbol string) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t, symbol))
	}
	return b.String()
}

func countWins(trades []sim.Trade) int {
	n := 0
	for _, t := range trades {
		if t.PnL > 0 {
			n++
		}
	}
	return n
}

// shortID keeps the tail: ULIDs share their time prefix.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
