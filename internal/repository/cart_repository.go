package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// カートと明細の永続化。明細は line_key で指す。
type CartRepository interface {
	GetOrCreateActiveBySession(ctx context.Context, sessionID string, currency string) (model.Cart, error)
	FindActiveBySession(ctx context.Context, sessionID string) (model.Cart, error)
	Clear(ctx context.Context, cartID int64) error

	ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindItem(ctx context.Context, cartID int64, lineKey string) (model.CartItem, error)
	// 同一商品はプラス
	UpsertItem(ctx context.Context, item model.CartItem) error
	UpdateQuantity(ctx context.Context, cartID int64, lineKey string, qty int64) error
	DeleteItem(ctx context.Context, cartID int64, lineKey string) error
}
