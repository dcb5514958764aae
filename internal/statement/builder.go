package statement

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/extrato/internal/models"
)

// builder turns raw records into typed candidate records for one document.
type builder struct {
	format   models.StatementFormat
	g        *grammar
	resolver *Resolver
	holder   string
	period   models.MonthYear
}

func (b *builder) equity(r rawRecord, known TickerSet) (models.EquityRecord, error) {
	desc := r.description()

	qty, okQ := ParseAmount(r.fields["qty"])
	price, okP := ParseAmount(r.fields["price"])
	value, okV := ParseAmount(r.fields["value"])
	if !okQ || !okP || !okV {
		return models.EquityRecord{}, errUnparseable
	}

	query := desc
	if sym := r.fields["symbol"]; sym != "" {
		query = desc + " " + sym
	}
	ticker, _ := b.resolver.Resolve(query, known)

	return models.EquityRecord{
		Description: desc,
		Ticker:      ticker,
		Quantity:    qty,
		Price:       price,
		MarketValue: value,
		Period:      b.period,
		Holder:      b.holder,
		Format:      b.format,
	}, nil
}

func (b *builder) dividend(r rawRecord, known TickerSet) (models.DividendRecord, error) {
	desc := r.description()

	date, ok := b.g.parseDate(r.fields["date"])
	if !ok {
		return models.DividendRecord{}, errNoTradeDate
	}
	if len(r.amounts) == 0 {
		return models.DividendRecord{}, errUnparseable
	}

	gross, ok := parseDecimal(r.amounts[0])
	if !ok {
		return models.DividendRecord{}, errUnparseable
	}

	// inline tax column plus every annotation line, as magnitudes
	taxTokens := append([]string(nil), r.taxes...)
	if len(r.amounts) > 1 {
		taxTokens = append(taxTokens, r.amounts[1])
	}
	tax := decimal.Zero
	for _, t := range taxTokens {
		d, ok := parseDecimal(t)
		if !ok {
			return models.DividendRecord{}, errUnparseable
		}
		tax = tax.Add(d.Abs())
	}

	ticker, _ := b.resolver.Resolve(desc, known)
	g, t := gross.InexactFloat64(), tax.InexactFloat64()

	return models.DividendRecord{
		Description:    desc,
		Ticker:         ticker,
		TradeDate:      date,
		GrossAmount:    g,
		WithholdingTax: t,
		NetAmount:      g - t,
		Period:         b.period,
		Holder:         b.holder,
		Format:         b.format,
	}, nil
}

// latestDividendMonth returns the month of the most recent parseable
// dividend date among the raw records.
func (b *builder) latestDividendMonth(records []rawRecord) (models.MonthYear, bool) {
	var latest models.MonthYear
	found := false
	for _, r := range records {
		d, ok := b.g.parseDate(strings.TrimSpace(r.fields["date"]))
		if !ok {
			continue
		}
		m := models.MonthYearOf(d)
		if !found || m.Year > latest.Year || (m.Year == latest.Year && m.Month > latest.Month) {
			latest, found = m, true
		}
	}
	return latest, found
}
