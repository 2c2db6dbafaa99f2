package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "projsys %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
			return err
		},
	}
}
