package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postgres unique_violation
const pgUniqueViolation = "23505"

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// セッションのACTIVEカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateActiveBySession(ctx context.Context, sessionID string, currency string) (model.Cart, error) {
	cart, err := r.FindActiveBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, err
	}

	newCart := model.Cart{
		SessionID: sessionID,
		Status:    model.CartStatusActive,
		Currency:  currency,
	}
	if err := r.db.WithContext(ctx).Create(&newCart).Error; err != nil {
		// 同時作成で負けた側は作られた方を読む
		if isUniqueViolation(err) {
			return r.FindActiveBySession(ctx, sessionID)
		}
		return model.Cart{}, err
	}
	return newCart, nil
}

// セッションのACTIVEカートを取得
func (r *CartGormRepository) FindActiveBySession(ctx context.Context, sessionID string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, model.CartStatusActive).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}

// カート明細を一覧取得（追加順）
func (r *CartGormRepository) ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 明細をline_keyで取得
func (r *CartGormRepository) FindItem(ctx context.Context, cartID int64, lineKey string) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND line_key = ?", cartID, lineKey).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 同一line_keyは数量加算。価格スナップショットは最初の追加時のまま。
func (r *CartGormRepository) UpsertItem(ctx context.Context, item model.CartItem) error {
	if item.Quantity <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "line_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(&item).Error
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartID int64, lineKey string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND line_key = ?", cartID, lineKey).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartGormRepository) DeleteItem(ctx context.Context, cartID int64, lineKey string) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND line_key = ?", cartID, lineKey).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
