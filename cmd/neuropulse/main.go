// Command neuropulse is the local impulse tracker. State lives in a SQLite
// file under the "default" scope.
package main

import (
	"fmt"
	"os"

	"neuropulse/internal/logger"
	"neuropulse/internal/models"
	"neuropulse/internal/storage"
	"neuropulse/internal/storage/sqlite"
	"neuropulse/internal/tracker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	dbPath  string
	verbose bool
	log     *zap.Logger
	backend *sqlite.Backend
	store   *tracker.Store
}

func defaultDBPath() string {
	if p := os.Getenv("SQLITE_PATH"); p != "" {
		return p
	}
	return "neuropulse.db"
}

// rootCmd builds the command tree. The caller releases the database and
// logger with close once Execute returns, whether or not a command failed.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "neuropulse",
		Short: "Log impulses, redirect them and earn rewards",
		Long: `neuropulse records impulses and whether you redirected them into
something better. Every redirection counts towards three reward tiers
that can be claimed once reached.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			var err error
			a.log, err = logger.New("dev", level)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.backend, err = sqlite.Open(a.dbPath)
			if err != nil {
				return err
			}
			a.store = tracker.New(storage.NewAdapter(a.backend, a.log, models.DefaultThresholds()))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath(), "SQLite database file (or set SQLITE_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(a.addCmd())
	root.AddCommand(a.listCmd())
	root.AddCommand(a.completeCmd())
	root.AddCommand(a.statsCmd())
	root.AddCommand(a.rewardsCmd())
	root.AddCommand(a.claimCmd())
	root.AddCommand(a.thresholdsCmd())
	root.AddCommand(a.categoryCmd())
	root.AddCommand(a.suggestionsCmd())
	return root
}

func (a *app) close() {
	if a.backend != nil {
		_ = a.backend.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func main() {
	_ = godotenv.Load()
	a := &app{}
	err := a.rootCmd().Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
