package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"
)

type outcomesCmd struct {
	holder  string
	id      string
	jsonOut bool
}

func (*outcomesCmd) Name() string     { return "outcomes" }
func (*outcomesCmd) Synopsis() string { return "list or show persisted parse outcomes" }
func (*outcomesCmd) Usage() string {
	return `extrato outcomes [-holder <name>] [-id <id>] [-json]

  Without -id lists stored outcomes, newest first. With -id prints one
  outcome in full.
`
}

func (c *outcomesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holder, "holder", "", "Only list outcomes for this holder.")
	f.StringVar(&c.id, "id", "", "Show a single outcome.")
	f.BoolVar(&c.jsonOut, "json", false, "Print as JSON.")
}

func (c *outcomesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.id != "" {
		o, err := a.StatementService.GetOutcome(ctx, c.id)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if c.jsonOut {
			return encodeJSON(o)
		}
		writeOutcome(stdout, o)
		return subcommands.ExitSuccess
	}

	list, err := a.StatementService.ListOutcomes(ctx, c.holder)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.jsonOut {
		return encodeJSON(list)
	}

	t := newTable(stdout, "ID", "Holder", "Source", "Period", "Format", "Equities", "Dividends", "Parsed")
	for _, o := range list {
		t.Append([]string{
			o.ID, orDash(o.Holder), orDash(o.Source), orDash(o.Outcome.Period.String()), string(o.Outcome.FormatUsed),
			strconv.Itoa(len(o.Outcome.Equities)), strconv.Itoa(len(o.Outcome.Dividends)), o.ParsedAt.Format("2006-01-02 15:04"),
		})
	}
	t.Render()
	return subcommands.ExitSuccess
}

func encodeJSON(v interface{}) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
