package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/metinatakli/storefront-payments/internal/repository"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var (
		dsn    string
		source string
	)

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(repository.MigrateUp), string(repository.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return errors.New("a database DSN is required (--dsn or DATABASE_URL)")
			}

			direction := repository.MigrationDirection(args[0])

			err := repository.Migrate(dsn, source, direction)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", direction)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
	cmd.Flags().StringVar(&source, "source", "file://migrations", "migration source URL")

	return cmd
}
