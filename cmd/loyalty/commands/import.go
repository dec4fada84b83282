package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/operation"
)

// NewImportCmd creates a new import command
func NewImportCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		params operation.ImportParams
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the cards linked to the wallet",
		Long: `Import fetches the loyalty cards already linked to the account.
It will:
1. Map every identifier to a card (name, code, barcode type, color)
2. Embed provider logos for non-custom cards
3. With --save, write the cards to the local card database`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.Context(cmd.Context())
			options := opts.Operations()

			if params.Save || dbPath != "" {
				params.Save = true
				db, err := opts.OpenCards(ctx, dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				options.Cards = db
			}

			op := operation.NewImportOperation(options, params)
			return operation.NewRunner(false, 0).Run(ctx, op)
		},
	}

	cmd.Flags().BoolVar(&params.Save, "save", false, "write the imported cards to the local card database")
	cmd.Flags().StringVar(&dbPath, "db", "", "card database path (defaults next to the cache)")
	cmd.Flags().StringVar(&params.Country, "country", "", "market code stamped on saved cards")

	return cmd
}
