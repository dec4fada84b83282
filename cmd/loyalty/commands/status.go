package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/operation"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the provider cache is fresh",
		Long: `Status inspects the on-disk catalog without touching the network.
It will:
1. Read the metadata index and compare its age with the cache ttl
2. Check that every indexed provider record is readable
3. Report records missing from disk or missing from the index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.Context(cmd.Context())
			return operation.NewRunner(false, 0).Run(ctx, operation.NewStatusOperation(opts.Operations(), all))
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list healthy records too")

	return cmd
}
