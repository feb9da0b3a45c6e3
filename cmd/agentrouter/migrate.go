package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/BaSui01/agentrouter/config"
	"github.com/BaSui01/agentrouter/internal/migration"
)

// =============================================================================
// Database Migration Commands
// =============================================================================

// migrateAction runs one subcommand; rest holds the positional arguments.
type migrateAction func(ctx context.Context, m *migration.Migrator, out io.Writer, rest []string) error

var migrateActions = map[string]migrateAction{
	"up": func(ctx context.Context, m *migration.Migrator, out io.Writer, _ []string) error {
		if err := m.Up(ctx); err != nil {
			return err
		}
		return printMigrationVersion(out, m, "Migrations complete. ")
	},
	"down": func(ctx context.Context, m *migration.Migrator, out io.Writer, _ []string) error {
		if err := m.Steps(ctx, -1); err != nil {
			return err
		}
		return printMigrationVersion(out, m, "Rollback complete. ")
	},
	"reset": func(ctx context.Context, m *migration.Migrator, out io.Writer, _ []string) error {
		if err := m.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "All migrations rolled back.")
		return nil
	},
	"steps": func(ctx context.Context, m *migration.Migrator, out io.Writer, rest []string) error {
		n, err := intArg(rest, "steps <n>")
		if err != nil {
			return err
		}
		if err := m.Steps(ctx, int(n)); err != nil {
			return err
		}
		return printMigrationVersion(out, m, "")
	},
	"goto": func(ctx context.Context, m *migration.Migrator, out io.Writer, rest []string) error {
		v, err := intArg(rest, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		if err := m.Goto(ctx, uint(v)); err != nil {
			return err
		}
		return printMigrationVersion(out, m, "")
	},
	"force": func(_ context.Context, m *migration.Migrator, out io.Writer, rest []string) error {
		v, err := intArg(rest, "force <version>")
		if err != nil {
			return err
		}
		if err := m.Force(int(v)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Version forced to %d\n", v)
		return nil
	},
	"version": func(_ context.Context, m *migration.Migrator, out io.Writer, _ []string) error {
		return printMigrationVersion(out, m, "")
	},
	"status": func(ctx context.Context, m *migration.Migrator, out io.Writer, _ []string) error {
		st, err := m.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(out, st)
		return nil
	},
}

// runMigrate handles "agentrouter migrate <subcommand> [args] [flags]".
func runMigrate(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printMigrateUsage(stdout)
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	action, ok := migrateActions[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown migrate subcommand: %s\n", args[0])
		printMigrateUsage(stderr)
		return 1
	}

	fs := flag.NewFlagSet("migrate "+args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	dbType := fs.String("db-type", "", "Database type (postgres, mysql, sqlite)")
	dbURL := fs.String("db-url", "", "Database connection URL")

	// positional arguments come before the flags: "goto 3 --config x.yaml"
	rest := args[1:]
	var positional []string
	for len(rest) > 0 && isPositional(rest[0]) {
		positional = append(positional, rest[0])
		rest = rest[1:]
	}
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	migrator, err := newMigrator(*configPath, *dbType, *dbURL)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create migrator: %v\n", err)
		return 1
	}
	defer migrator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := action(ctx, migrator, stdout, positional); err != nil {
		fmt.Fprintf(stderr, "migrate %s failed: %v\n", args[0], err)
		return 1
	}
	return 0
}

// newMigrator prefers explicit --db-type/--db-url and falls back to the
// database section of the configuration.
func newMigrator(configPath, dbType, dbURL string) (*migration.Migrator, error) {
	if dbType != "" && dbURL != "" {
		return migration.Open(dbType, dbURL)
	}

	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbType != "" {
		cfg.Database.Driver = dbType
	}
	if dbURL != "" {
		cfg.Database.DSN = dbURL
	}
	dsn, err := cfg.Database.DataSource()
	if err != nil {
		return nil, err
	}
	return migration.Open(cfg.Database.Driver, dsn, migration.WithLogger(initLogger(cfg.Log)))
}

func printMigrationVersion(w io.Writer, m *migration.Migrator, prefix string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		fmt.Fprintf(w, "%sNo migrations applied yet.\n", prefix)
	case dirty:
		fmt.Fprintf(w, "%sCurrent version: %d (dirty)\n", prefix, version)
	default:
		fmt.Fprintf(w, "%sCurrent version: %d\n", prefix, version)
	}
	return nil
}

// printStatus renders the migration steps followed by the service tables.
func printStatus(w io.Writer, st *migration.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATE")
	for _, s := range st.Steps {
		state := "pending"
		switch {
		case st.Dirty && s.Version == st.Version:
			state = "dirty"
		case s.Applied:
			state = "applied"
		}
		fmt.Fprintf(tw, "%06d\t%s\t%s\n", s.Version, s.Name, state)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, t := range st.Tables {
		rows := "missing"
		if t.Present {
			rows = strconv.FormatInt(t.Rows, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\n", t.Name, rows)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nDriver: %s  Version: %d  Pending: %d\n", st.Driver, st.Version, st.Pending())
}

// isPositional treats plain words and numbers ("-1" for steps) as positional.
func isPositional(arg string) bool {
	if _, err := strconv.Atoi(arg); err == nil {
		return true
	}
	return arg != "" && arg[0] != '-'
}

func intArg(rest []string, usage string) (int64, error) {
	if len(rest) < 1 {
		return 0, fmt.Errorf("usage: agentrouter migrate %s", usage)
	}
	v, err := strconv.ParseInt(rest[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", rest[0])
	}
	return v, nil
}

func printMigrateUsage(w io.Writer) {
	fmt.Fprintln(w, `Database Migration Commands

Usage:
  agentrouter migrate <subcommand> [args] [options]

Subcommands:
  up            Apply all pending migrations
  down          Rollback the last migration
  steps <n>     Apply (n > 0) or rollback (n < 0) n migrations
  goto <v>      Migrate to a specific version
  force <v>     Force set migration version (use with caution)
  reset         Rollback all migrations
  status        Show migration steps and service tables
  version       Show current migration version

Options:
  --config <path>     Path to configuration file (YAML)
  --db-type <type>    Database type: postgres, mysql, sqlite (default: from config)
  --db-url <url>      Database connection URL (default: from config)`)
}
