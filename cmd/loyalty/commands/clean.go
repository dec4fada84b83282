package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/operation"
)

// NewCleanCmd creates a new clean command
func NewCleanCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the on-disk provider cache",
		Long: `Clean removes the metadata index and every provider record.
The next catalog lookup fetches everything again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.Context(cmd.Context())
			return operation.NewRunner(false, 0).Run(ctx, operation.NewCleanOperation(opts.Operations()))
		},
	}

	return cmd
}
