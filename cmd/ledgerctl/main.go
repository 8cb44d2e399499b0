// Command ledgerctl runs maintenance operations against the ledger database:
// rebuilding holdings, resolving securities, refreshing prices and migrating the schema.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&migrateCmd{}, "")
	commander.Register(&rebuildCmd{}, "")
	commander.Register(&resolveCmd{}, "")
	commander.Register(&refreshPricesCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
