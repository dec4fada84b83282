package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/operation"
	"github.com/walteh/loyalty/pkg/provider"
)

// NewProvidersCmd creates a new providers command
func NewProvidersCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		params operation.ProvidersParams
		table  bool
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List loyalty providers for a market",
		Long: `Providers lists the catalog for a market.
It will:
1. Serve the catalog from disk while it is younger than the cache ttl
2. Otherwise fetch every provider, embed their logos and rewrite the cache
3. Keep only providers available in --country`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.Context(cmd.Context())

			op := operation.NewProvidersOperation(opts.Operations(), params)
			if err := operation.NewRunner(false, 0).Run(ctx, op); err != nil {
				return err
			}

			if table {
				return renderProviders(op.Result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Country, "country", "", "market code, e.g. FR (empty lists every market)")
	cmd.Flags().BoolVar(&params.IgnoreCache, "ignore-cache", false, "refetch even when the cache is fresh")
	cmd.Flags().BoolVar(&params.Refresh, "refresh", false, "refetch and rewrite the whole catalog")
	cmd.Flags().BoolVar(&table, "table", false, "render the result as a table")

	return cmd
}

func renderProviders(list []provider.Provider) error {
	data := pterm.TableData{{"ID", "Name", "Markets", "Barcode", "Logo"}}
	for _, p := range list {
		logo := ""
		if p.HasEmbeddedLogo() {
			logo = "yes"
		}
		data = append(data, []string{p.ID, p.Name, strings.Join(p.Markets, ","), string(p.DefaultBarcodeFormat), logo})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
