package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gwi.com/beauty-box/internal/app"
	"gwi.com/beauty-box/internal/config"
	"gwi.com/beauty-box/internal/logger"
)

type rootFlags struct {
	db       string
	driver   string
	session  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	rootCmd := &cobra.Command{
		Use:           "boxctl",
		Short:         "Operator tool for the beauty box state store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup("boxctl", f.logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&f.db, "db", "beautybox.db", "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&f.driver, "driver", "sqlite", "Store driver (sqlite or memory)")
	rootCmd.PersistentFlags().StringVarP(&f.session, "session", "s", "", "Session id")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "warn", "Log level")

	open := func(cmd *cobra.Command) (*app.App, error) {
		cfg := &config.Config{StoreDriver: f.driver, DatabaseURL: f.db}
		return app.New(cmd.Context(), cfg, false)
	}
	session := func() (string, error) {
		if f.session == "" {
			return "", fmt.Errorf("--session required")
		}
		return f.session, nil
	}

	rootCmd.AddCommand(
		newSessionsCmd(open),
		newOrdersCmd(open, session),
		newSubscriptionCmd(open, session),
		newImportCmd(open, session),
		newStateCmd(open, session),
	)
	return rootCmd
}

type opener func(cmd *cobra.Command) (*app.App, error)

type sessionFlag func() (string, error)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
