package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/config"
	"github.com/mohanatextiles/storefront/internal/logging"
)

// app carries state shared by subcommands once flags are parsed.
type app struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Mohana Textiles storefront API",
		Long: `Serves the public catalog and the admin back office over HTTP.

Settings come from built-in defaults, then the optional --config YAML file,
then environment variables such as DATABASE_URL and OPENROUTER_API_KEY.

Examples:
  storefront                         # same as "storefront serve"
  storefront --config prod.yaml serve
  storefront create-admin --email admin@example.com --password secret`,
		Version:       version + " (" + buildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.createAdminCmd(),
		a.listAdminsCmd(),
	)
	return root
}

// config loads and validates settings.
func (a *app) config() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{Production: cfg.IsProduction(), File: cfg.LogFile})
}
