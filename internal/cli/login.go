package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command. The password is read from
// the terminal without echo and never taken as an argument.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store a token for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(rootOpts, args[0])
		},
	}
	return cmd
}

func runLogin(opts *RootOptions, username string) error {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	c, err := newClient(opts)
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
	}
	err = c.do("POST", "/api/auth/login", map[string]string{
		"username": username,
		"password": string(password),
	}, &resp)
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.TokenPath, []byte(resp.Token+"\n"), 0600); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Printf("Logged in as %s, token saved to %s\n", username, opts.TokenPath)
	return nil
}
