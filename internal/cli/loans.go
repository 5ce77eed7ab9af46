package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anilk007/library-service/internal/model"
)

func printTransactions(transactions []model.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBOOK\tMEMBER\tISSUED\tDUE\tSTATUS\tFINE")
	for _, t := range transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, t.BookTitle, t.MemberName, t.IssueDate, t.DueDate, t.Status, t.Fine)
	}
	w.Flush()
}

// NewIssueCommand creates the issue command.
func NewIssueCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <book-id> <member-id>",
		Short: "Issue a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}
			memberID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid member id %q", args[1])
			}

			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var result struct {
				TransactionID int64  `json:"transaction_id"`
				DueDate       string `json:"due_date"`
			}
			err = c.do("POST", "/api/transactions/issue", map[string]int64{
				"book_id":   bookID,
				"member_id": memberID,
			}, &result)
			if err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(result)
			}
			fmt.Printf("Issued: transaction %d, due %s\n", result.TransactionID, result.DueDate)
			return nil
		},
	}
}

// NewReturnCommand creates the return command.
func NewReturnCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "return <transaction-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var t model.Transaction
			if err := c.do("POST", "/api/transactions/"+args[0]+"/return", nil, &t); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(t)
			}
			if t.Fine > 0 {
				fmt.Printf("Returned %q, fine owed: %d\n", t.BookTitle, t.Fine)
			} else {
				fmt.Printf("Returned %q on time\n", t.BookTitle)
			}
			return nil
		},
	}
}

// NewRenewCommand creates the renew command.
func NewRenewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "renew <transaction-id>",
		Short: "Extend a loan's due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var t model.Transaction
			if err := c.do("POST", "/api/transactions/"+args[0]+"/renew", nil, &t); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(t)
			}
			fmt.Printf("Renewed %q, now due %s\n", t.BookTitle, t.DueDate)
			return nil
		},
	}
}

// NewOverdueCommand creates the overdue command.
func NewOverdueCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var loans []model.Transaction
			if err := c.do("GET", "/api/transactions/overdue", nil, &loans); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(loans)
			}
			if len(loans) == 0 {
				fmt.Println("No overdue loans")
				return nil
			}
			printTransactions(loans)
			return nil
		},
	}
}
