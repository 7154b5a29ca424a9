package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/internal/cartsync"
	"storefront/internal/gateway"
	"storefront/internal/notify"
)

// errRejected はサーバーが変更を拒否してロールバックしたとき
var errRejected = errors.New("cart change was not saved")

// session は設定したカートに紐づいたEngine
type session struct {
	opts   *RootOptions
	client *gateway.Client
	engine *cartsync.Engine
	notes  *notify.Recorder
}

func (o *RootOptions) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.cfg.RequestTimeout)
}

// openSession は新しいEngineにサーバーのカートを読み込む
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	if o.cfg.Token == "" {
		return nil, errors.New("no cart session: run `cartctl session` and set CART_TOKEN or --token")
	}

	client := gateway.New(o.cfg.APIURL, nil)
	client.SetToken(o.cfg.Token)

	notes := notify.Tee(notify.NewLogger(o.logger))
	engine := cartsync.New(client, notes, cartsync.Options{
		Currency:       o.cfg.Currency,
		DebounceWindow: o.cfg.DebounceWindow,
		RequestTimeout: o.cfg.RequestTimeout,
		Logger:         o.logger,
	})

	if err := engine.Load(cmd.Context()); err != nil {
		engine.Close()
		return nil, err
	}
	return &session{opts: o, client: client, engine: engine, notes: notes}, nil
}

// finish は未送信の更新を送り、照合を待ってからカートを表示する
func (s *session) finish(cmd *cobra.Command) error {
	s.engine.Flush()
	s.engine.Wait()
	s.engine.Close()

	if err := writeCart(cmd.OutOrStdout(), s.opts.Format, s.engine.Store().View()); err != nil {
		return err
	}
	for _, msg := range s.notes.Errors() {
		cmd.PrintErrln("error:", msg)
	}
	if len(s.notes.Errors()) > 0 {
		return errRejected
	}
	return nil
}

// mutate はEngineの操作を1つ実行する。
// 検証エラーは通知済みなので、エラー値だけ返す。
func (o *RootOptions) mutate(cmd *cobra.Command, op func(s *session) error) error {
	s, err := o.openSession(cmd)
	if err != nil {
		return err
	}
	opErr := op(s)
	finErr := s.finish(cmd)
	if opErr != nil {
		return opErr
	}
	return finErr
}

func parseQuantity(arg string) (int64, error) {
	q, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.New("quantity must be a whole number")
	}
	return q, nil
}

// NewShowCommand は show コマンド
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, func(s *session) error { return nil })
		},
	}
}

// NewAddCommand は add コマンド
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product (merges into an existing line)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.New("product id must be a number")
			}
			qty := int64(1)
			if len(args) == 2 {
				if qty, err = parseQuantity(args[1]); err != nil {
					return err
				}
			}

			return opts.mutate(cmd, func(s *session) error {
				ctx, cancel := opts.requestContext(cmd)
				defer cancel()
				p, err := s.client.GetProduct(ctx, id)
				if err != nil {
					return err
				}
				return s.engine.AddItem(p, qty)
			})
		},
	}
}

// NewIncCommand は inc コマンド
func NewIncCommand(opts *RootOptions) *cobra.Command {
	var times int
	cmd := &cobra.Command{
		Use:   "inc <line-key>",
		Short: "Increase a line by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, func(s *session) error {
				for i := 0; i < times; i++ {
					if err := s.engine.IncrementItem(args[0]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "repeat the increment")
	return cmd
}

// NewDecCommand は dec コマンド
func NewDecCommand(opts *RootOptions) *cobra.Command {
	var times int
	cmd := &cobra.Command{
		Use:   "dec <line-key>",
		Short: "Decrease a line by one (removes it at one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, func(s *session) error {
				for i := 0; i < times; i++ {
					if err := s.engine.DecrementItem(args[0]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "repeat the decrement")
	return cmd
}

// NewSetCommand は set コマンド
func NewSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <line-key> <quantity>",
		Short: "Set the quantity of a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			return opts.mutate(cmd, func(s *session) error {
				return s.engine.SetQuantity(args[0], qty)
			})
		},
	}
}

// NewRemoveCommand は rm コマンド
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <line-key>",
		Aliases: []string{"remove"},
		Short:   "Remove a line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, func(s *session) error {
				return s.engine.RemoveItem(args[0])
			})
		},
	}
}
