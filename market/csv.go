package market

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/souloss/TradingLab/pkg/errors"
)

var columnAliases = map[string]string{
	"date":       "date",
	"time":       "date",
	"timestamp":  "date",
	"trade_date": "date",
	"open":       "open",
	"high":       "high",
	"low":        "low",
	"close":      "close",
	"volume":     "volume",
	"vol":        "volume",
}

// ReadCSV parses daily bars from r. A header row is optional; without one
// the columns are date,open,high,low,close,volume. Unknown header columns
// with numeric values land in Bar.Extra.
func ReadCSV(r io.Reader, symbol string) (*BarSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataParse, "read csv", err)
	}
	if len(rows) == 0 {
		return &BarSet{Symbol: symbol}, nil
	}

	cols := []string{"date", "open", "high", "low", "close", "volume"}
	if _, err := ParseDate(rows[0][0]); err != nil {
		cols = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			h = strings.ToLower(strings.TrimSpace(h))
			if canon, ok := columnAliases[h]; ok {
				h = canon
			}
			cols[i] = h
		}
		rows = rows[1:]
	}

	bars := make([]Bar, 0, len(rows))
	for n, row := range rows {
		line := n + 1
		b, err := barFromRow(cols, row)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParse, err, "csv row %d", line)
		}
		bars = append(bars, b)
	}

	return NewBarSet(symbol, bars)
}

func barFromRow(cols []string, row []string) (Bar, error) {
	var (
		b    Bar
		seen = map[string]bool{}
	)
	for i, name := range cols {
		if i >= len(row) {
			break
		}
		if name == "date" {
			t, err := ParseDate(row[i])
			if err != nil {
				return b, err
			}
			b.Time = t
			seen[name] = true
			continue
		}
		if strings.TrimSpace(row[i]) == "" {
			continue
		}
		v, err := parseFloat(row[i])
		if err != nil {
			if isOHLCV(name) {
				return b, err
			}
			continue
		}
		switch name {
		case "open":
			b.Open = v
		case "high":
			b.High = v
		case "low":
			b.Low = v
		case "close":
			b.Close = v
		case "volume":
			b.Volume = v
		default:
			if b.Extra == nil {
				b.Extra = make(map[string]float64)
			}
			b.Extra[name] = v
		}
		seen[name] = true
	}
	for _, required := range []string{"date", "open", "high", "low", "close"} {
		if !seen[required] {
			return b, errors.Newf(errors.ErrCodeDataParse, "missing %s column", required)
		}
	}
	return b, nil
}

func isOHLCV(name string) bool {
	switch name {
	case "open", "high", "low", "close", "volume":
		return true
	}
	return false
}

// WriteCSV writes bars with a header row; Extra columns are not exported.
func WriteCSV(w io.Writer, bs *BarSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bs.Bars {
		rec := []string{
			b.Date(),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadFile loads a bar file, choosing the decoder by extension (.csv,
// .json, .parquet). The symbol defaults to the file's base name.
func LoadFile(path, symbol string) (*BarSet, error) {
	if symbol == "" {
		symbol = SymbolFromPath(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return ReadParquet(path, symbol)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadJSON(f, symbol)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f, symbol)
	}
}

// SymbolFromPath turns "data/AAPL.csv" into "AAPL".
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
