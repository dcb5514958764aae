package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"github.com/olekukonko/tablewriter"

	"github.com/bobmcallan/extrato/internal/models"
)

type parseCmd struct {
	holder  string
	period  string
	known   string
	format  string
	jsonOut bool
}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "parse statements and print equities and dividends" }
func (*parseCmd) Usage() string {
	return `extrato parse [-holder <name>] [-period <YYYY-MM>] [-known <T1,T2>] [-format <name>] [-json] <file>...

  Parses each statement (PDF, or text with form feeds between pages) and
  prints the records found. Outcomes are persisted to the configured store.
  -format skips detection and starts from the named layout (ModernMultiLine,
  SectionedColumnar or LegacyTabular); older layouts are still tried after it.
`
}

func (c *parseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holder, "holder", "", "Account holder stamped on every record.")
	f.StringVar(&c.period, "period", "", "Reporting period used when the statement does not state one (YYYY-MM).")
	f.StringVar(&c.known, "known", "", "Comma separated tickers already held, used by ticker resolution.")
	f.StringVar(&c.format, "format", "", "Statement layout to parse as instead of detecting it.")
	f.BoolVar(&c.jsonOut, "json", false, "Print outcomes as JSON.")
}

func (c *parseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "parse: at least one file is required")
		return subcommands.ExitUsageError
	}
	period, err := parsePeriod(c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
		return subcommands.ExitUsageError
	}
	var format *models.StatementFormat
	if c.format != "" {
		sf, err := models.ParseStatementFormat(c.format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing format: %v\n", err)
			return subcommands.ExitUsageError
		}
		format = &sf
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	docs := make([]models.RawDocument, 0, f.NArg())
	for _, path := range f.Args() {
		doc, err := loadDocument(path, a.Extractor, c.holder, period)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		doc.FormatHint = format
		docs = append(docs, doc)
	}

	outcomes, err := a.StatementService.ParseBatch(ctx, docs, splitTickers(c.known))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	for _, o := range outcomes {
		writeOutcome(stdout, o)
	}
	return subcommands.ExitSuccess
}

// writeOutcome prints one outcome as aligned tables.
func writeOutcome(w io.Writer, o *models.StoredOutcome) {
	out := o.Outcome
	fmt.Fprintf(w, "%s  [%s] period %s  format %s", o.Source, o.ID, out.Period, out.FormatUsed)
	if out.FallbackTriggered {
		fmt.Fprint(w, "  (fallback)")
	}
	fmt.Fprintln(w)

	if out.Empty() {
		fmt.Fprintln(w, "  no records found")
		fmt.Fprintln(w)
		return
	}

	if len(out.Equities) > 0 {
		t := newTable(w, "Ticker", "Description", "Quantity", "Price", "Value")
		for _, e := range out.Equities {
			t.Append([]string{orDash(e.Ticker), e.Description, strconv.FormatFloat(e.Quantity, 'g', -1, 64), money(e.Price), money(e.MarketValue)})
		}
		t.Render()
		fmt.Fprintln(w)
	}
	if len(out.Dividends) > 0 {
		t := newTable(w, "Ticker", "Date", "Gross", "Tax", "Net")
		for _, d := range out.Dividends {
			t.Append([]string{orDash(d.Ticker), d.TradeDate.Format("2006-01-02"), money(d.GrossAmount), money(d.WithholdingTax), money(d.NetAmount)})
		}
		t.Render()
		fmt.Fprintln(w)
	}
}

// newTable returns a borderless table with left aligned, two space padded
// columns.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetBorder(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
