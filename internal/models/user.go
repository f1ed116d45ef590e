package models

import (
	"time"
)

type User struct {
	ID               uint    `gorm:"primaryKey"`
	TelegramID       int64   `gorm:"uniqueIndex;not null"`
	Username         string  `gorm:"size:255"`
	FirstName        string  `gorm:"size:255"`
	LastName         string  `gorm:"size:255"`
	CreditsRemaining int     `gorm:"not null;default:125"`
	CreditsUsed      int     `gorm:"not null;default:0"`
	ReferralCode     *string `gorm:"size:32;uniqueIndex"`
	ReferredByID     *uint   `gorm:"index"`
	ReferralEarnings int     `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
