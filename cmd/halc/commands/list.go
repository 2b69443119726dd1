package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		query   []string
		offset  int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "list PATH COLLECTION",
		Short: "List a paged collection",
		Long:  "Fetch one page of a collection embedded under COLLECTION and display its items with the reported totals",
		Example: `  halc list /orders orders --per-page 20 --offset 40
  halc list /users users --query role=admin`,
		Args: cobra.ExactArgs(2), //nolint:mnd // path and collection
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseQuery(query)
			if err != nil {
				return err
			}

			client, err := newHALClient(cmd)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			paginator := halclient.NewPaginator(client, args[0], args[1], values)

			items, err := paginator.Items(ctx, offset, perPage)
			if err != nil {
				return requestFailed(err)
			}

			out := cmd.OutOrStdout()

			if err := renderResources(out, items); err != nil {
				return err
			}

			if outputFormat(out) != constants.FormatTable {
				return nil
			}

			total, err := paginator.Count(ctx)

			switch {
			case err == nil:
				_, _ = fmt.Fprintf(out, "Total: %d\n", total)
			case !errors.Is(err, hal.ErrMissingElement):
				return requestFailed(err)
			}

			if more, err := paginator.HasMorePages(ctx); err == nil && more {
				_, _ = fmt.Fprintln(out, "More pages available")
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().IntVar(&offset, "offset", 0, "index of the first item")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "items per page (default: server decides)")

	return cmd
}
