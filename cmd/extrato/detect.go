package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type detectCmd struct{}

func (*detectCmd) Name() string     { return "detect" }
func (*detectCmd) Synopsis() string { return "report the statement generation of each file" }
func (*detectCmd) Usage() string {
	return `extrato detect <file>...
`
}

func (*detectCmd) SetFlags(*flag.FlagSet) {}

func (*detectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "detect: at least one file is required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		doc, err := loadDocument(path, a.Extractor, "", nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\t%d pages\n", path, a.StatementService.Detect(ctx, doc), len(doc.Pages))
	}
	return status
}
