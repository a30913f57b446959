package market

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/souloss/TradingLab/pkg/errors"
)

// jsonBar is the loose on-disk shape: data exports use either "date" or
// "time", as a calendar day or a full timestamp.
type jsonBar struct {
	Date   string             `json:"date"`
	Time   string             `json:"time"`
	Open   float64            `json:"open"`
	High   float64            `json:"high"`
	Low    float64            `json:"low"`
	Close  float64            `json:"close"`
	Volume float64            `json:"volume"`
	Extra  map[string]float64 `json:"extra,omitempty"`
}

// ReadJSON decodes either a bare array of bars or a BarSet object.
func ReadJSON(r io.Reader, symbol string) (*BarSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataParse, "read json", err)
	}

	var raw []jsonBar
	name := ""
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var set struct {
			Symbol string    `json:"symbol"`
			Name   string    `json:"name"`
			Bars   []jsonBar `json:"bars"`
		}
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParse, "decode bar set", err)
		}
		if set.Symbol != "" {
			symbol = set.Symbol
		}
		name = set.Name
		raw = set.Bars
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataParse, "decode bars", err)
	}

	bars := make([]Bar, len(raw))
	for i, jb := range raw {
		stamp := jb.Date
		if stamp == "" {
			stamp = jb.Time
		}
		t, err := ParseDate(stamp)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParse, err, "bar %d", i)
		}
		bars[i] = Bar{
			Time:   t,
			Open:   jb.Open,
			High:   jb.High,
			Low:    jb.Low,
			Close:  jb.Close,
			Volume: jb.Volume,
			Extra:  jb.Extra,
		}
	}

	bs, err := NewBarSet(symbol, bars)
	if err != nil {
		return nil, err
	}
	bs.Name = name
	return bs, nil
}
