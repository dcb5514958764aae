package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/extrato/internal/statement"
)

type phrasesCmd struct {
	mapPath string
}

func (*phrasesCmd) Name() string     { return "phrases" }
func (*phrasesCmd) Synopsis() string { return "print or validate the phrase-to-ticker table" }
func (*phrasesCmd) Usage() string {
	return `extrato phrases [-map <phrases.toml>]

  Prints the phrase table used by ticker resolution. With -map the given
  file is validated and printed instead of the configured table.
`
}

func (c *phrasesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mapPath, "map", "", "Phrase table file to validate and print.")
}

func (c *phrasesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var m statement.PhraseMap
	if c.mapPath != "" {
		loaded, err := statement.LoadPhraseMap(c.mapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		m = loaded
	} else {
		a, err := openApp()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer a.Close()
		m = a.Parser.Options().Phrases
	}

	fmt.Fprintf(stdout, "version %s, %d entries\n", m.Version, len(m.Entries))
	t := newTable(stdout, "Ticker", "Phrase")
	for _, e := range m.Entries {
		t.Append([]string{e.Ticker, e.Phrase})
	}
	t.Render()
	return subcommands.ExitSuccess
}
