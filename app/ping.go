package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tenantgate/tenantgate/internal/keepalive"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(pingCmd)
}

// ExitError carries the exit code of a command that already reported its failure.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var pingCmd = &cobra.Command{
	Use:   "ping-database",
	Short: "Run one keep-alive query against DATABASE_URL",
	Long: `Connects to the database named by DATABASE_URL, runs a single
SELECT NOW() and exits. Meant for cron jobs keeping serverless databases awake.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if code := keepalive.Main(cmd.Context(), keepalive.DialGorm, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != 0 {
			return ExitError{Code: code}
		}

		return nil
	},
}
