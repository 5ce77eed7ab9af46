// Package cli implements the libraryctl command-line client for the
// library service HTTP API.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Server    string
	TokenPath string
	JSON      bool
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".libraryctl-token"
	}
	return filepath.Join(home, ".libraryctl-token")
}

// NewRootCommand creates the root command for libraryctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Command-line client for the library service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:8080", "base URL of the library server")
	cmd.PersistentFlags().StringVar(&opts.TokenPath, "token-file", defaultTokenPath(), "file holding the login token")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print raw JSON responses")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewBooksCommand(opts))
	cmd.AddCommand(NewMembersCommand(opts))
	cmd.AddCommand(NewIssueCommand(opts))
	cmd.AddCommand(NewReturnCommand(opts))
	cmd.AddCommand(NewRenewCommand(opts))
	cmd.AddCommand(NewOverdueCommand(opts))

	return cmd
}
