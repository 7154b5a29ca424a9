package model

import "time"

// カートの明細
// line_key は商品IDから導出（linekey.Of）。クライアントも同じキーを使う。
// 追加時点の価格を unit_price_snapshot に保存。
type CartItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID            int64     `gorm:"not null;uniqueIndex:idx_cart_line" json:"cart_id"`
	LineKey           string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_cart_line" json:"line_key"`
	ProductID         int64     `gorm:"not null;index" json:"product_id"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
