// Package app implements the main application commands.
package app

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tenantgate",
	Short: "TenantGate is a multi-tenant authentication service",
	Long: `TenantGate serves email/password and social sign-in, sessions,
organizations and invitations behind one auth API and a small web UI.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config directory (default ./etc/)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
