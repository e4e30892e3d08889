package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohanatextiles/storefront/internal/limiter"
	"github.com/mohanatextiles/storefront/internal/migrate"
	"github.com/mohanatextiles/storefront/internal/repository/postgres"
	"github.com/mohanatextiles/storefront/internal/service"
	"github.com/mohanatextiles/storefront/internal/session"
)

// withAuth opens the database and hands fn an auth service without a limiter.
func (a *app) withAuth(ctx context.Context, fn func(service.AuthService) error) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	return fn(service.NewAuthService(postgres.NewAdminRepo(db), session.NewRegistry(0), limiter.Nop{}))
}

func (a *app) createAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAuth(cmd.Context(), func(auth service.AuthService) error {
				ad, err := auth.CreateAdmin(cmd.Context(), email, password, name)
				if err != nil {
					return fmt.Errorf("create admin %s: %w", email, err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", ad.Email, ad.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name, defaults to the email")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) listAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List admin accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAuth(cmd.Context(), func(auth service.AuthService) error {
				admins, err := auth.ListAdmins(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "EMAIL\tNAME\tADMIN\tCREATED")
				for _, ad := range admins {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", ad.Email, ad.DisplayName, ad.IsAdmin, ad.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
}
