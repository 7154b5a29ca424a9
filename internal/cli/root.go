// Package cli はカートエンジンを端末から操作する cartctl のコマンド群。
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/logging"
)

// RootOptions は全コマンド共通のフラグ
type RootOptions struct {
	APIURL  string
	Token   string
	Format  string // "json" | "text"
	Verbose bool

	cfg    config.Client
	logger *zap.Logger
}

// ValidFormats は出力形式の候補
var ValidFormats = []string{"text", "json"}

// NewRootCommand は cartctl のルートコマンド
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "Drive a storefront cart from the terminal",
		Long: `cartctl keeps a local copy of a guest cart in sync with the cart API.

Every change is applied locally first, sent to the server, and rolled back
with a message if the server refuses it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api", "", "cart API base URL (default $CART_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "cart session token (default $CART_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log sync activity")

	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewIncCommand(opts))
	cmd.AddCommand(NewDecCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))

	return cmd
}

// load は環境変数の設定にフラグを重ねる（フラグ優先）
func (o *RootOptions) load() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	if o.Token != "" {
		cfg.Token = o.Token
	}
	o.cfg = cfg

	if o.Verbose {
		o.logger = logging.Must(cfg.GoEnv)
	} else {
		o.logger = zap.NewNop()
	}
	return nil
}

// isValidFormat は出力形式が候補にあるか
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
