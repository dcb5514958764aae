package statement

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/extrato/internal/models"
)

type assemblerState int

const (
	seeking assemblerState = iota
	accumulating
)

// rawRecord is a record in the making: its start-line fields plus every
// description fragment and withholding amount absorbed after it.
type rawRecord struct {
	kind      recordKind
	line      int
	fields    map[string]string
	fragments []string
	amounts   []string // trailing amount columns, left to right
	taxes     []string // withholding annotation amounts

	// pendingTax is set by a withholding marker whose amount is on the
	// next line
	pendingTax bool
}

func (r *rawRecord) description() string {
	return joinFragments(r.fragments)
}

// assembly is the output of one pass of a grammar over a document.
type assembly struct {
	equities       []rawRecord
	dividends      []rawRecord
	period         models.MonthYear
	sections       int
	equitySections int
	err            error
}

// assembler groups a flat line stream into raw records. Page boundaries are
// invisible to it, so records wrap across pages naturally.
type assembler struct {
	g       *grammar
	state   assemblerState
	section *section
	current *rawRecord
	out     assembly
}

func assemble(g *grammar, lines []string) assembly {
	a := &assembler{g: g}
	for i, raw := range lines {
		if err := a.feed(i, raw); err != nil {
			a.current = nil
			a.out.err = err
			return a.out
		}
	}
	a.flush()

	if a.section != nil && a.section.requireTerminator {
		a.out.err = fmt.Errorf("%w: %s reached end of document", ErrUnterminatedSection, a.section.name)
		return a.out
	}
	if a.out.sections == 0 {
		a.out.err = ErrNoSections
	}
	return a.out
}

func (a *assembler) feed(i int, raw string) error {
	line := normalizeLine(raw)
	if line == "" {
		return nil
	}
	folded := foldKey(line)

	if a.out.period.IsZero() {
		if p, ok := a.g.matchPeriod(line); ok {
			a.out.period = p
		}
	}

	if s := a.g.sectionFor(folded); s != nil {
		if s == a.section {
			// repeated header on a continuation page
			return nil
		}
		if a.section != nil && a.section.requireTerminator {
			return fmt.Errorf("%w: %s interrupted by %q at line %d", ErrUnterminatedSection, a.section.name, line, i+1)
		}
		a.flush()
		a.section = s
		if s.kind != kindOther {
			a.out.sections++
		}
		if s.kind == kindEquity {
			a.out.equitySections++
		}
		return nil
	}

	if a.section == nil {
		return nil
	}

	if a.section.isTerminator(line) {
		a.flush()
		a.section = nil
		return nil
	}

	if a.g.isNoise(line) {
		return nil
	}

	if a.state == accumulating && a.current.kind == kindDividend {
		if at, ok := a.g.withholdingAt(line); ok {
			a.absorbWithholding(line, at)
			return nil
		}
	}

	if rec, ok := a.recordStart(i, line); ok {
		a.flush()
		a.current = rec
		a.state = accumulating
		return nil
	}

	if a.state == accumulating {
		a.absorb(line)
	}
	return nil
}

func (a *assembler) recordStart(i int, line string) (*rawRecord, bool) {
	switch a.section.kind {
	case kindEquity:
		m := a.g.equityRow.FindStringSubmatch(line)
		if m == nil {
			return nil, false
		}
		fields := namedGroups(a.g.equityRow, m)
		return &rawRecord{
			kind:      kindEquity,
			line:      i,
			fields:    fields,
			fragments: []string{fields["desc"]},
		}, true

	case kindDividend:
		m := a.g.dividendStart.FindStringSubmatch(line)
		if m == nil {
			return nil, false
		}
		fields := namedGroups(a.g.dividendStart, m)
		rec := &rawRecord{kind: kindDividend, line: i, fields: fields}
		if t := fields["type"]; t != "" && !a.g.isDividendType(t) {
			rec.kind = kindOther
			return rec, true
		}
		rest, amounts := a.g.amountColumns(strings.Fields(fields["rest"]))
		rec.fragments = append(rec.fragments, strings.Join(rest, " "))
		rec.amounts = amounts
		return rec, true
	}
	return nil, false
}

// absorb folds a continuation line into the open record. A dividend still
// missing its amount takes it from the first continuation line ending in one;
// under a tabular grammar the line must hold nothing but the amount columns.
func (a *assembler) absorb(line string) {
	rec := a.current
	if rec.kind == kindDividend && rec.pendingTax {
		rec.pendingTax = false
		if rest, amounts := splitTrailingAmounts(strings.Fields(line), 1); len(rest) == 0 && len(amounts) == 1 {
			rec.taxes = append(rec.taxes, amounts...)
			return
		}
	}
	if rec.kind == kindDividend && len(rec.amounts) == 0 {
		rest, amounts := a.g.amountColumns(strings.Fields(line))
		if len(amounts) > 0 && (a.g.dividendColumns == 1 || len(rest) == 0) {
			rec.fragments = append(rec.fragments, strings.Join(rest, " "))
			rec.amounts = amounts
			return
		}
	}
	rec.fragments = append(rec.fragments, line)
}

// absorbWithholding attaches a tax annotation to the open dividend. Text in
// front of the marker is still description. A marker without an amount
// leaves the tax pending for the next line.
func (a *assembler) absorbWithholding(line string, at int) {
	rec := a.current
	if prefix := strings.TrimSpace(line[:at]); prefix != "" {
		rec.fragments = append(rec.fragments, prefix)
	}
	_, amounts := splitTrailingAmounts(strings.Fields(line[at:]), 1)
	rec.taxes = append(rec.taxes, amounts...)
	rec.pendingTax = len(amounts) == 0
}

func (a *assembler) flush() {
	if a.current != nil {
		switch a.current.kind {
		case kindEquity:
			a.out.equities = append(a.out.equities, *a.current)
		case kindDividend:
			a.out.dividends = append(a.out.dividends, *a.current)
		}
	}
	a.current = nil
	a.state = seeking
}
