package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/session-auth-service/internal/app"
	"github.com/sandeepkv93/session-auth-service/internal/config"
	"github.com/sandeepkv93/session-auth-service/internal/database"
	"github.com/sandeepkv93/session-auth-service/internal/observability"
	"github.com/sandeepkv93/session-auth-service/internal/tools/smoke"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "authd",
		Short:         "Session and token authentication service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before reading configuration")
	root.AddCommand(newServeCommand(), newMigrateCommand(), smoke.NewCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			lp, err := observability.InitLogs(ctx, cfg)
			if err != nil {
				return err
			}
			if lp != nil {
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
					defer cancel()
					_ = lp.Shutdown(shutdownCtx)
				}()
			}
			logger := observability.NewLogger(cfg, os.Stdout, lp)
			slog.SetDefault(logger)

			a, cleanup, err := app.InitializeApp(ctx, cfg, logger, lp)
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}
			defer cleanup()
			return a.Run(ctx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back Postgres schema migrations",
	}
	for _, direction := range []string{"up", "down"} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Run migrations %s", direction),
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := database.RunMigrations(config.LoadDatabaseURL(), direction); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: ok\n", direction)
				return nil
			},
		})
	}
	return cmd
}
