// Command fol keeps a portfolio ledger and raises trading signals.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/folio/cmd"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

func main() {
	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// exits when called by the shell for completion
	cmd.Complete(name, flag.CommandLine)

	flag.Parse()
	setupLogging()
	os.Exit(int(commander.Execute(context.Background())))
}

// setupLogging sends logs to stderr at the configured level.
func setupLogging() {
	level := "info"
	if cfg, err := cmd.LoadConfig(); err == nil {
		level = cfg.Logging.Level
	}
	log.DefaultLogger = log.Logger{
		Level:  log.ParseLevel(level),
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: log.IsTerminal(os.Stderr.Fd()),
		},
	}
}
