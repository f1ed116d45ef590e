package models

import (
	"time"
)

type Payment struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           uint   `gorm:"not null;index"`
	User             User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Credits          int    `gorm:"not null"`
	Stars            int    `gorm:"not null"`
	TelegramChargeID string `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
