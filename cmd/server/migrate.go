package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohanatextiles/storefront/internal/migrate"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			v, err := migrate.Version(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return err
		},
	}
}
