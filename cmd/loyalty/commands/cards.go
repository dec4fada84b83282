package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/cards"
	"gitlab.com/tozd/go/errors"
)

// NewCardsCmd creates a new cards command
func NewCardsCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		filter cards.Filter
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List cards saved in the local card database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := opts.OpenCards(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := db.List(ctx, filter)
			if err != nil {
				return errors.Errorf("listing cards: %w", err)
			}
			if len(list) == 0 {
				pterm.Info.Println("no saved cards")
				return nil
			}

			data := pterm.TableData{{"ID", "Name", "Type", "Provider", "Country", "Saved"}}
			for _, c := range list {
				data = append(data, []string{
					strconv.FormatInt(c.ID, 10),
					c.Name,
					string(c.Type),
					c.Provider,
					c.Country,
					c.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().StringVar(&filter.Country, "country", "", "only cards of this market")
	cmd.Flags().StringVar(&filter.Provider, "provider", "", "only cards of this provider")
	cmd.Flags().StringVar(&dbPath, "db", "", "card database path (defaults next to the cache)")

	return cmd
}
