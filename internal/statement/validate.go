package statement

import (
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/extrato/internal/models"
)

// validateEquity accepts a holding when it has a ticker, positive numbers and
// quantity x price within tolerance of the printed market value.
func validateEquity(r models.EquityRecord, tolerance float64) error {
	if r.Ticker == "" {
		return errNoTicker
	}
	if r.Quantity <= 0 || r.Price <= 0 || r.MarketValue <= 0 {
		return errNonPositive
	}
	if !reconciles(r.Quantity, r.Price, r.MarketValue, tolerance) {
		return errUnreconciled
	}
	return nil
}

// validateDividend accepts a dividend with a ticker and a positive gross.
func validateDividend(r models.DividendRecord) error {
	if r.Ticker == "" {
		return errNoTicker
	}
	if r.GrossAmount <= 0 {
		return errNonPositive
	}
	return nil
}

// reconciles reports whether |qty*price - value| / value <= tolerance.
func reconciles(qty, price, value, tolerance float64) bool {
	v := decimal.NewFromFloat(value)
	if !v.IsPositive() {
		return false
	}
	diff := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).Sub(v).Abs()
	return diff.Div(v).LessThanOrEqual(decimal.NewFromFloat(tolerance))
}
