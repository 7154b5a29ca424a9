package cartsync

import "errors"

// ローカル検証で弾いたときのエラー。
// Engineは返す前に通知を済ませているので、呼び出し側は無視してよい。
var (
	ErrInvalidQuantity = errors.New("cartsync: invalid quantity")
	ErrStockLimit      = errors.New("cartsync: maximum stock reached")
	ErrUnknownLine     = errors.New("cartsync: line not in cart")
	ErrInvalidProduct  = errors.New("cartsync: invalid product")
	ErrClosed          = errors.New("cartsync: engine closed")
)

// 通知メッセージ
const (
	MsgStockLimit      = "maximum stock reached"
	MsgInvalidQuantity = "quantity must be between 1 and the available stock"
	MsgUnknownLine     = "this item is no longer in your cart"
	MsgInvalidProduct  = "this product cannot be added to the cart"
	MsgSyncFailed      = "We couldn't update your cart. Please try again."
)

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrStockLimit):
		return MsgStockLimit
	case errors.Is(err, ErrInvalidQuantity):
		return MsgInvalidQuantity
	case errors.Is(err, ErrUnknownLine):
		return MsgUnknownLine
	case errors.Is(err, ErrInvalidProduct):
		return MsgInvalidProduct
	default:
		return MsgSyncFailed
	}
}
