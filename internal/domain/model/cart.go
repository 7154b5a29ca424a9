package model

import "time"

type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"
	CartStatusAbandoned CartStatus = "ABANDONED"
)

// ゲストセッションにつきACTIVEは1つ
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_active_session,where:status = 'ACTIVE'" json:"session_id"`
	Status    CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Currency  string     `gorm:"type:char(3);not null" json:"currency"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
