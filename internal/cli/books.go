package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anilk007/library-service/internal/model"
)

// NewBooksCommand creates the books command group.
func NewBooksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List and manage books",
	}
	cmd.AddCommand(newBooksListCommand(rootOpts))
	cmd.AddCommand(newBooksAddCommand(rootOpts))
	return cmd
}

func newBooksListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			var books []model.Book
			if err := c.do("GET", "/api/books", nil, &books); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(books)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tISBN\tAVAILABLE")
			for _, b := range books {
				isbn := ""
				if b.ISBN != nil {
					isbn = *b.ISBN
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\n",
					b.ID, b.Title, b.Author, isbn, b.AvailableCopies, b.TotalCopies)
			}
			return w.Flush()
		},
	}
}

func newBooksAddCommand(rootOpts *RootOptions) *cobra.Command {
	var isbn, genre string
	var year, copies int

	cmd := &cobra.Command{
		Use:   "add <title> <author>",
		Short: "Add a book to the catalogue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}

			body := map[string]any{
				"title":        args[0],
				"author":       args[1],
				"total_copies": copies,
			}
			if isbn != "" {
				body["isbn"] = isbn
			}
			if genre != "" {
				body["genre"] = genre
			}
			if year != 0 {
				body["publication_year"] = year
			}

			var book model.Book
			if err := c.do("POST", "/api/books", body, &book); err != nil {
				return err
			}

			if rootOpts.JSON {
				return printJSON(book)
			}
			fmt.Printf("Added book %d: %s by %s (%d copies)\n",
				book.ID, book.Title, book.Author, book.TotalCopies)
			return nil
		},
	}

	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&genre, "genre", "", "genre")
	cmd.Flags().IntVar(&year, "year", 0, "publication year")
	cmd.Flags().IntVar(&copies, "copies", 1, "number of copies")
	return cmd
}
