package sim

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/souloss/TradingLab/pkg/errors"
)

// CommissionModel computes the fee charged on one fill.
type CommissionModel interface {
	// Fee returns the commission for a fill of the given notional amount.
	Fee(amount decimal.Decimal) decimal.Decimal
	Name() string
}

// Commission model names accepted by NewCommission.
const (
	CommissionPercent    = "percent"
	CommissionMinPercent = "min_percent"
	CommissionZero       = "zero"
)

// Percent charges Rate × notional.
type Percent struct {
	Rate decimal.Decimal
}

func (c Percent) Fee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.Rate)
}

func (c Percent) Name() string { return CommissionPercent }

// MinPercent charges Rate × notional but never less than Minimum, as
// retail brokers commonly do.
type MinPercent struct {
	Rate    decimal.Decimal
	Minimum decimal.Decimal
}

func (c MinPercent) Fee(amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(amount.Mul(c.Rate), c.Minimum)
}

func (c MinPercent) Name() string { return CommissionMinPercent }

// Zero charges nothing.
type Zero struct{}

func (Zero) Fee(decimal.Decimal) decimal.Decimal { return decimal.Zero }

func (Zero) Name() string { return CommissionZero }

// NewCommission builds a model by name. An empty name means percent.
func NewCommission(name string, rate, minimum float64) (CommissionModel, error) {
	if rate < 0 || minimum < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"commission rate and minimum must not be negative (rate=%v, minimum=%v)", rate, minimum)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CommissionPercent:
		return Percent{Rate: decimal.NewFromFloat(rate)}, nil
	case CommissionMinPercent:
		return MinPercent{Rate: decimal.NewFromFloat(rate), Minimum: decimal.NewFromFloat(minimum)}, nil
	case CommissionZero:
		return Zero{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"unknown commission model %q (supported: percent, min_percent, zero)", name)
	}
}
