package market

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ReadParquet loads a bar file written by WriteParquet (or any file with
// the same column names). Rows belonging to other symbols are skipped when
// symbol is non-empty and the file carries symbols.
func ReadParquet(path, symbol string) (*BarSet, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading parquet file %s: %w", path, err)
	}

	bars := make([]Bar, 0, len(records))
	for _, r := range records {
		if symbol != "" && r.Symbol != "" && r.Symbol != symbol {
			continue
		}
		bars = append(bars, Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return NewBarSet(symbol, bars)
}

// WriteParquet writes bs to path, creating parent directories as needed.
func WriteParquet(path string, bs *BarSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	records := make([]BarRecord, len(bs.Bars))
	for i, b := range bs.Bars {
		records[i] = BarRecord{
			Symbol:    bs.Symbol,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing parquet file %s: %w", path, err)
	}
	return nil
}
