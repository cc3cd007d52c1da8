package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/etnz/folio"
	"github.com/google/subcommands"
)

// --- Import Command ---

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "submit transactions from a JSONL file" }
func (*importCmd) Usage() string {
	return `fol import <file.jsonl>

  Submits one transaction per line, in order. Each line commits on its
  own: a refused line is reported and does not stop the others.

    {"date":"2024-01-02","action":"BUY","code":"AAPL","quantity":10,"price":185.5,"fee":1}
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	inputs, err := readInputs(f.Arg(0))
	if err != nil {
		return fail("reading transactions", err)
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		b := a.ledger().Import(ctx, inputs)
		fmt.Printf("run %s: %d/%d transaction(s) committed\n", b.RunID, b.Committed(), len(inputs))
		if b.Err != nil {
			return fail("importing", b.Err)
		}
		return subcommands.ExitSuccess
	})
}

func readInputs(path string) ([]folio.TransactionInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return folio.DecodeInputs(r)
}

// --- Backup Command ---

type backupCmd struct{}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write the whole database as JSON lines" }
func (*backupCmd) Usage() string {
	return `fol backup [<file.jsonl>]

  Writes every record of the database, one JSON object per line, to a
  file or to the standard output.
`
}

func (*backupCmd) SetFlags(*flag.FlagSet) {}

func (*backupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		b, err := folio.Export(ctx, a.store)
		if err != nil {
			return fail("reading database", err)
		}
		var w io.Writer = os.Stdout
		if f.NArg() > 0 {
			file, err := os.Create(f.Arg(0))
			if err != nil {
				return fail("creating backup", err)
			}
			defer file.Close()
			w = file
		}
		if err := folio.EncodeBackup(w, b); err != nil {
			return fail("writing backup", err)
		}
		return subcommands.ExitSuccess
	})
}

// --- Restore Command ---

type restoreCmd struct {
	force bool
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace the database with a backup" }
func (*restoreCmd) Usage() string {
	return `fol restore -force <file.jsonl>

  Replaces the whole content of the database with a backup, atomically.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Confirm that the current content is discarded")
}

func (c *restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || !c.force {
		f.Usage()
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail("opening backup", err)
	}
	defer file.Close()
	b, err := folio.DecodeBackup(file)
	if err != nil {
		return fail("reading backup", err)
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		if err := folio.Restore(ctx, a.store, b); err != nil {
			return fail("restoring", err)
		}
		fmt.Printf("restored %d transaction(s), %d signal(s), %d bar(s)\n", len(b.Transactions), len(b.Signals), len(b.Bars))
		return subcommands.ExitSuccess
	})
}

// --- Config Command ---

type configCmd struct {
	set string
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "show or change the engine settings" }
func (*configCmd) Usage() string {
	return fmt.Sprintf(`fol config [-set key=value]

  Prints the effective settings. With -set, stores a value that overrides
  the configuration file for this database. Keys:

    %s
`, strings.Join(folio.SettingKeys, "\n    "))
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.set, "set", "", "key=value to store")
}

func (c *configCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		if c.set != "" {
			key, value, ok := strings.Cut(c.set, "=")
			if !ok {
				f.Usage()
				return subcommands.ExitUsageError
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			// validate against the current settings before storing
			if err := a.settings.Set(key, value); err != nil {
				return fail("setting "+key, err)
			}
			err := a.store.Update(ctx, func(tx folio.Tx) error { return tx.SetSetting(key, value) })
			if err != nil {
				return fail("storing "+key, err)
			}
		}
		kv := a.settings.Map()
		var b strings.Builder
		fmt.Fprintf(&b, "| Setting | Value |\n|:---|:---|\n")
		for _, k := range slices.Sorted(maps.Keys(kv)) {
			fmt.Fprintf(&b, "| %s | %s |\n", k, kv[k])
		}
		fmt.Fprintf(&b, "| storage | %s |\n", a.cfg.Storage.Path)
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	})
}
