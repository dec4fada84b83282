// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/commands"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = log.Logger.WithContext(ctx)

	// Filled in by PersistentPreRunE once flags are parsed
	root := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "loyalty",
		Short: "Browse the loyalty-card catalog and import wallet cards",
		Long: `loyalty talks to the upstream loyalty-card catalog on behalf of a wallet.
It keeps the provider catalog on disk, refreshes access tokens on demand
and imports the cards already linked to the account.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			ctx := log.Logger.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			if cmd.Name() == "version" {
				return nil
			}
			return initRootOpts(ctx, root)
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewProvidersCmd(root),
		commands.NewSearchCmd(root),
		commands.NewImportCmd(root),
		commands.NewCardsCmd(root),
		commands.NewSyncCmd(root),
		commands.NewStatusCmd(root),
		commands.NewCleanCmd(root),
		commands.NewLoginCmd(root),
		commands.NewLogoutCmd(root),
		newVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(err)
		os.Exit(1)
	}
}
