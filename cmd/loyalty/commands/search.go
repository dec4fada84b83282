package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/operation"
)

// NewSearchCmd creates a new search command
func NewSearchCmd(opts *opts.RootOpts) *cobra.Command {
	var params operation.SearchParams

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by name, id or search term",
		Long: `Search ranks providers of a market against a query.
Prefix matches come first, then substring and fuzzy matches.
Queries with glob characters (*, ?, [) match ids and names as patterns.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.Context(cmd.Context())
			params.Query = strings.Join(args, " ")

			op := operation.NewSearchOperation(opts.Operations(), params)
			return operation.NewRunner(false, 0).Run(ctx, op)
		},
	}

	cmd.Flags().StringVar(&params.Country, "country", "", "market code, e.g. FR")

	return cmd
}
