package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd builds the command tree with its own viper instance so tests
// can run commands side by side.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "ticketctl",
		Short: "Operator tooling for the helpdesk service",
		Long: `ticketctl bundles maintenance tasks for the helpdesk service.

Examples:
  # Hash a password for a seed INSERT
  ticketctl hash-password 'changeme'

  # Business hours between two instants
  ticketctl working-hours --from "2024-03-01 17:00" --to "2024-03-04 10:00"

  # Apply SQL migrations using POSTGRES_DSN
  ticketctl migrate --dir migrations`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ticketctl.yaml if present)")

	root.AddCommand(newHashPasswordCmd(v))
	root.AddCommand(newWorkingHoursCmd(v))
	root.AddCommand(newMigrateCmd(v))
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("timezone", "Europe/Rome")
	v.SetDefault("migrations_dir", "migrations")

	v.SetEnvPrefix("TICKETCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}
	v.AddConfigPath(".")
	v.SetConfigName("ticketctl")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}
