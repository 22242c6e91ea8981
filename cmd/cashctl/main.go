// Command cashctl runs operator tasks against a cashbook deployment:
// schema migrations, duplicate cleanup and token issuance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"cashbook/internal/config"
	"cashbook/internal/database"
	"cashbook/internal/logger"
)

var version = "dev"

// app carries what subcommands share once the root command has loaded configuration.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	openDB func(cfg *config.Config) (*gorm.DB, func() error, error)
}

func openPostgres(cfg *config.Config) (*gorm.DB, func() error, error) {
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return manager.DB(), manager.Close, nil
}

func newRootCmd(a *app) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "cashctl",
		Short:         "Operator tool for the cashbook service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("failed to read env file: %w", err)
				}
			} else {
				_ = godotenv.Load()
			}
			a.cfg = config.FromViper(a.v)
			config.Set(a.cfg)
			logger.Init(a.cfg.Env, a.cfg.LogLevel)
			return nil
		},
	}

	// Global flags
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: .env when present)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("migrations", "", "migration source URL (default: file://migrations)")

	// Bind flags to viper
	_ = a.v.BindPFlag("LOG_LEVEL", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("MIGRATIONS_PATH", root.PersistentFlags().Lookup("migrations"))

	root.AddCommand(migrateCmd(a))
	root.AddCommand(dedupeCmd(a))
	root.AddCommand(tokenCmd(a))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cashctl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cashctl %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&app{v: config.NewViper(), openDB: openPostgres}).ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
