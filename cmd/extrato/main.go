// Command extrato parses brokerage statements from the command line.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/bobmcallan/extrato/internal/app"
)

var configPath = flag.String("config", "", "path to extrato.toml (default: EXTRATO_CONFIG, then beside the binary)")

// stdout and openApp are swapped out by tests.
var (
	stdout  io.Writer = os.Stdout
	openApp           = func() (*app.App, error) { return app.NewApp(*configPath) }
)

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&parseCmd{}, "statements")
	c.Register(&detectCmd{}, "statements")
	c.Register(&outcomesCmd{}, "statements")

	c.Register(&phrasesCmd{}, "resolution")
	c.Register(&versionCmd{}, "")
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
