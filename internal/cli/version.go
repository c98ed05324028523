/*
Package cli implements the version command for codebase-index-mcp.

The version command displays version, commit, and build date information.
*/
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/version"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, and build date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	v, c, d := version.GetVersionComponents()
	cmd.Printf("Version:  %s\n", v)
	cmd.Printf("Commit:   %s\n", c)
	cmd.Printf("Built:    %s\n", d)
	return nil
}
