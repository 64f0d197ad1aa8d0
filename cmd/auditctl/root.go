package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mimprep/profile-audit/internal/config"
	"github.com/mimprep/profile-audit/internal/db"
	"github.com/mimprep/profile-audit/internal/results"
	"github.com/mimprep/profile-audit/internal/rubric"
	syncx "github.com/mimprep/profile-audit/internal/sync"
)

// app is the state shared by every subcommand.
type app struct {
	out        io.Writer
	v          *viper.Viper
	configFile string
	kind       string

	cfg     config.Config
	logger  *slog.Logger
	dbh     *sql.DB
	store   results.Store
	journal *syncx.EventRepo
	catalog *rubric.Catalog
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: viper.New()}

	root := &cobra.Command{
		Use:   "auditctl",
		Short: "Operate the profile audit results store",
		Long: `auditctl reads and writes the results database used by the gateway.

Connection settings come from --config, the environment (DB_DRIVER, DB_DSN, ...)
and the flags below, flags winning.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "Config file (YAML or JSON)")
	pf.StringVar(&a.kind, "kind", rubric.KindLinkedIn, "Result kind (linkedin|cv)")
	pf.String("db-driver", "", "Database driver (sqlite|postgres)")
	pf.String("db-dsn", "", "Database DSN")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	_ = a.v.BindPFlag("db_driver", pf.Lookup("db-driver"))
	_ = a.v.BindPFlag("db_dsn", pf.Lookup("db-dsn"))
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))

	root.AddCommand(
		newImportCmd(a),
		newShowCmd(a),
		newRevealCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newEventsCmd(a),
		newHashPasswordCmd(a),
	)
	return root
}

// open loads the configuration and connects to the store. Unset flags fall back to the
// file and the environment.
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	table := results.ProfileTable
	switch a.kind {
	case rubric.KindLinkedIn:
	case rubric.KindCV:
		table = results.CVTable
	default:
		return fmt.Errorf("unknown kind %q (linkedin|cv)", a.kind)
	}
	cfg, err := config.LoadWith(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Logger(nil)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	a.dbh = dbh
	a.store = results.NewSQLStore(dbh, results.WithTable(table))
	a.journal = syncx.NewEventRepo(dbh)
	a.catalog, err = rubric.LoadKind(a.kind)
	return err
}

func (a *app) close() {
	if a.dbh != nil {
		_ = a.dbh.Close()
		a.dbh, a.store = nil, nil
	}
}

