package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anilk007/library-service/internal/model"
)

// NewMembersCommand creates the members command group.
func NewMembersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List and manage members",
	}
	cmd.AddCommand(newMembersListCommand(rootOpts))
	cmd.AddCommand(newMembersAddCommand(rootOpts))
	cmd.AddCommand(newMembersLoansCommand(rootOpts))
	return cmd
}

func newMembersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var members []model.Member
			if err := c.do("GET", "/api/members", nil, &members); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(members)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS")
			for _, m := range members {
				fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n",
					m.ID, m.FirstName, m.LastName, m.Email, m.Status)
			}
			return w.Flush()
		},
	}
}

func newMembersAddCommand(rootOpts *RootOptions) *cobra.Command {
	var email, phone, address string

	cmd := &cobra.Command{
		Use:   "add <first-name> <last-name>",
		Short: "Register a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var member model.Member
			err = c.do("POST", "/api/members", map[string]string{
				"first_name": args[0],
				"last_name":  args[1],
				"email":      email,
				"phone":      phone,
				"address":    address,
			}, &member)
			if err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(member)
			}
			fmt.Printf("Registered member %d: %s %s\n", member.ID, member.FirstName, member.LastName)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&address, "address", "", "postal address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newMembersLoansCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "loans <member-id>",
		Short: "Show a member's active loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var loans []model.Transaction
			if err := c.do("GET", "/api/members/"+args[0]+"/loans", nil, &loans); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(loans)
			}
			printTransactions(loans)
			return nil
		},
	}
}
