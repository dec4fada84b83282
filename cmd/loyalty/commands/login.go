package commands

import (
	"bufio"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"gitlab.com/tozd/go/errors"
)

// NewLoginCmd creates a new login command
func NewLoginCmd(opts *opts.RootOpts) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "login [refresh-token]",
		Short: "Store the refresh token in the OS keyring",
		Long: `Login saves the long-lived refresh token in the OS keyring.
The token is read from the argument, or from stdin when omitted.
The environment variable still takes precedence over the keyring.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.Errorf("reading refresh token from stdin: %w", err)
				}
				secret = line
			}

			if err := opts.Secrets.StoreRefreshToken(strings.TrimSpace(secret)); err != nil {
				return err
			}
			opts.Tokens.Revoke()

			if skipCheck {
				pterm.Success.Println("refresh token stored in the keyring")
				return nil
			}

			tok, err := opts.Tokens.TokenSource(ctx, "").Token()
			if err != nil {
				return errors.Errorf("refresh token stored but rejected upstream: %w", err)
			}
			if tok.Expiry.IsZero() {
				pterm.Success.Println("refresh token stored in the keyring")
			} else {
				pterm.Success.Printfln("refresh token stored in the keyring, access token valid until %s", tok.Expiry.Local().Format(time.Kitchen))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "do not exchange the token once to verify it")

	return cmd
}

// NewLogoutCmd creates a new logout command
func NewLogoutCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the refresh token from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Secrets.ForgetRefreshToken(); err != nil {
				return err
			}
			opts.Tokens.Revoke()
			pterm.Success.Println("refresh token removed from the keyring")
			return nil
		},
	}
}
