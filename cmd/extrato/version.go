package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/extrato/internal/common"
)

type versionCmd struct {
	jsonOut bool
}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print version information" }
func (*versionCmd) Usage() string    { return "extrato version [-json]\n" }

func (c *versionCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "Print as JSON.")
}

func (c *versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	common.LoadVersionFromFile()
	if c.jsonOut {
		return encodeJSON(common.CurrentBuild())
	}
	fmt.Fprintf(stdout, "extrato %s\n", common.CurrentBuild())
	return subcommands.ExitSuccess
}
