package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/gateway"
)

// NewSessionCommand は session コマンド
func NewSessionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start a new guest cart and print its token",
		Long: `Start a new guest cart and print its token.

Example:
  export CART_TOKEN=$(cartctl session --format json | jq -r .token)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			s, err := gateway.New(opts.cfg.APIURL, nil).StartSession(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, s)
			}
			fmt.Fprintf(out, "session:  %s\n", s.SessionID)
			fmt.Fprintf(out, "currency: %s\n", s.Currency)
			fmt.Fprintf(out, "expires:  %s\n", s.ExpiresAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "export CART_TOKEN=%s\n", s.Token)
			return nil
		},
	}
}
