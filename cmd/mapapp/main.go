package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scholarmap/internal/logging"
	"scholarmap/pkg/config"
	"scholarmap/pkg/database"
)

type globals struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:          "mapapp",
		Short:        "Serve and manage the favourite-places map",
		SilenceUsage: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newServeCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newWatchCmd(g),
		newHashPasswordCmd(),
	)
	return cmd
}

// env is what every database-backed subcommand starts from.
type env struct {
	cfg config.Config
	log *zap.Logger
	db  *sql.DB
}

func (g *globals) setup() (*env, error) {
	log, err := logging.New(g.verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		log.Error("load config", zap.Error(err))
		return nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Error("open database", zap.String("path", cfg.Database.Path), zap.Error(err))
		return nil, err
	}
	if err := database.Migrate(db, cfg.Database.Table); err != nil {
		_ = db.Close()
		log.Error("migrate database", zap.Error(err))
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	_ = e.db.Close()
	_ = e.log.Sync()
}
