package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/operation"
)

// NewSyncCmd creates a new sync command
func NewSyncCmd(opts *opts.RootOpts) *cobra.Command {
	var country string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the catalog and import cards side by side",
		Long: `Sync refetches the whole provider catalog and imports the wallet's cards.
Both share one access token: the first request refreshes it and the
other waits for that refresh instead of starting its own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.Context(cmd.Context())
			options := opts.Operations()

			return operation.NewRunner(true, 0).Run(ctx,
				operation.NewProvidersOperation(options, operation.ProvidersParams{Country: country, Refresh: true}),
				operation.NewImportOperation(options, operation.ImportParams{}),
			)
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "market code used to filter the printed catalog")

	return cmd
}
