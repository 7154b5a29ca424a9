package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/linekey"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートはゲストセッション単位、明細は line_key で指す。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	txm         repo.TransactionManager
	currency    string
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	productRepo repo.ProductRepository,
	txm repo.TransactionManager,
	currency string,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		txm:         txm,
		currency:    currency,
	}
}

// price は unit_price_snapshot（追加時点の価格）。
// stock_cap は現在の在庫で、クライアントの数量上限になる。
type CartLineResponse struct {
	LineKey   string `json:"line_key"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	StockCap  int64  `json:"stock_cap"`
	LineTotal int64  `json:"line_total"`
}

// subtotal は常に明細から計算し直す
type CartResponse struct {
	Lines    []CartLineResponse `json:"lines"`
	Subtotal int64              `json:"subtotal"`
	Currency string             `json:"currency"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateLineInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveBySession(ctx, sessionID, u.currency)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart)
}

// AddToCart はカートに追加（同一商品は数量加算、在庫超えは400）。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var cart model.Cart
	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		cart, err = r.Carts().GetOrCreateActiveBySession(ctx, sessionID, u.currency)
		if err != nil {
			return err
		}

		// 商品チェック（公開のみ）
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusBadRequest, "invalid product")
		}

		key := linekey.Of(p.ID)
		var existingQty int64
		item, err := r.Carts().FindItem(ctx, cart.ID, key)
		switch {
		case err == nil:
			existingQty = item.Quantity
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		if existingQty+in.Quantity > p.Stock {
			return NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}

		return r.Carts().UpsertItem(ctx, model.CartItem{
			CartID:            cart.ID,
			LineKey:           key,
			ProductID:         p.ID,
			Quantity:          in.Quantity,
			UnitPriceSnapshot: p.Price,
		})
	})
	if err != nil {
		return CartResponse{}, toHTTPError(err)
	}

	return u.buildCartResponse(ctx, cart)
}

// UpdateLine は数量を絶対値で置き換える（1..在庫）。
func (u *CartUsecase) UpdateLine(ctx context.Context, sessionID string, lineKey string, in UpdateLineInput) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !linekey.Valid(lineKey) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid line_key")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var cart model.Cart
	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		cart, err = r.Carts().FindActiveBySession(ctx, sessionID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		item, err := r.Carts().FindItem(ctx, cart.ID, lineKey)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		//商品の在庫チェック
		p, err := r.Products().FindByID(ctx, item.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if in.Quantity > p.Stock {
			return NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}

		err = r.Carts().UpdateQuantity(ctx, cart.ID, lineKey, in.Quantity)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return err
	})
	if err != nil {
		return CartResponse{}, toHTTPError(err)
	}

	return u.buildCartResponse(ctx, cart)
}

// DeleteLine は明細削除
func (u *CartUsecase) DeleteLine(ctx context.Context, sessionID string, lineKey string) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !linekey.Valid(lineKey) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid line_key")
	}

	cart, err := u.cartRepo.FindActiveBySession(ctx, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartRepo.DeleteItem(ctx, cart.ID, lineKey); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart)
}

// cartの明細をまとめてCartResponseを作る。非公開になった商品は出さない。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cart model.Cart) (CartResponse, error) {
	items, err := u.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := u.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	currency := cart.Currency
	if currency == "" {
		currency = u.currency
	}
	out := CartResponse{Lines: make([]CartLineResponse, 0, len(items)), Currency: currency}

	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			continue
		}

		lineTotal := it.UnitPriceSnapshot * it.Quantity
		out.Lines = append(out.Lines, CartLineResponse{
			LineKey:   it.LineKey,
			ProductID: it.ProductID,
			Title:     p.Title,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			StockCap:  p.Stock,
			LineTotal: lineTotal,
		})
		out.Subtotal += lineTotal
	}

	return out, nil
}

// Tx内で返したHTTPErrorはそのまま、それ以外は500
func toHTTPError(err error) error {
	if he, ok := AsHTTPError(err); ok {
		return he
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
