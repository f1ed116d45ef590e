package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kartochka-bot/internal/models"
)

// Starting balances in credits.
const (
	DefaultCredits  = 125
	ReferredCredits = 225
)

// Ledger owns every mutation of a user's credit columns. No other
// component writes credits_remaining, credits_used or referral_earnings.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// Display carries the cached profile fields refreshed on every contact.
type Display struct {
	Username  string
	FirstName string
	LastName  string
}

// GetOrCreate fetches the user by Telegram ID, creating the row on first
// contact. referrerID is the Telegram ID of the inviting user; zero means
// no referrer. A self-referral or an unknown referrer is silently dropped
// and the user is created as a normal registration. Creation is an
// insert-or-nothing on the unique telegram_id, so a duplicate-insert race
// degrades to "someone else created it, re-fetch".
func (l *Ledger) GetOrCreate(ctx context.Context, telegramID int64, display Display, referrerID int64) (*models.User, bool, error) {
	var existing models.User
	err := l.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&existing).Error
	if err == nil {
		if err := l.refreshDisplay(ctx, &existing, display); err != nil {
			log.Printf("Failed to refresh display fields for %d: %v", telegramID, err)
		}
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to fetch user %d: %w", telegramID, err)
	}

	user := models.User{
		TelegramID:       telegramID,
		Username:         display.Username,
		FirstName:        display.FirstName,
		LastName:         display.LastName,
		CreditsRemaining: DefaultCredits,
	}

	if referrerID != 0 && referrerID != telegramID {
		var referrer models.User
		if err := l.DB.WithContext(ctx).Where("telegram_id = ?", referrerID).First(&referrer).Error; err == nil {
			user.ReferredByID = &referrer.ID
			user.CreditsRemaining = ReferredCredits
		}
	}

	res := l.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "telegram_id"}}, DoNothing: true}).
		Create(&user)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create user %d: %w", telegramID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the creation race, the row exists now.
		if err := l.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("failed to re-fetch user %d: %w", telegramID, err)
		}
		return &existing, false, nil
	}

	return &user, true, nil
}

func (l *Ledger) refreshDisplay(ctx context.Context, user *models.User, display Display) error {
	if user.Username == display.Username &&
		user.FirstName == display.FirstName &&
		user.LastName == display.LastName {
		return nil
	}
	user.Username = display.Username
	user.FirstName = display.FirstName
	user.LastName = display.LastName
	return l.DB.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"username":   display.Username,
		"first_name": display.FirstName,
		"last_name":  display.LastName,
	}).Error
}

// Get returns the user or gorm.ErrRecordNotFound.
func (l *Ledger) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	if err := l.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// HasSufficient reports whether the user exists and holds at least amount
// credits. An unknown user is simply "not sufficient", never an error.
func (l *Ledger) HasSufficient(ctx context.Context, telegramID int64, amount int) (bool, error) {
	user, err := l.Get(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.CreditsRemaining >= amount, nil
}

// Debit removes amount credits and bumps the lifetime used counter as one
// conditional UPDATE. Returns false without mutating when the user is
// unknown or the balance is short.
func (l *Ledger) Debit(ctx context.Context, telegramID int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	res := l.DB.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ? AND credits_remaining >= ?", telegramID, amount).
		Updates(map[string]interface{}{
			"credits_remaining": gorm.Expr("credits_remaining - ?", amount),
			"credits_used":      gorm.Expr("credits_used + ?", amount),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to debit %d credits from %d: %w", amount, telegramID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Credit adds amount credits to the spendable balance.
func (l *Ledger) Credit(ctx context.Context, telegramID int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	res := l.DB.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		Update("credits_remaining", gorm.Expr("credits_remaining + ?", amount))
	if res.Error != nil {
		return false, fmt.Errorf("failed to credit %d credits to %d: %w", amount, telegramID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AddReferralEarnings bumps the lifetime referral earnings counter. It does
// not touch the spendable balance; bonuses are delivered via Credit.
func (l *Ledger) AddReferralEarnings(ctx context.Context, telegramID int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("earnings amount must be positive, got %d", amount)
	}
	res := l.DB.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		Update("referral_earnings", gorm.Expr("referral_earnings + ?", amount))
	if res.Error != nil {
		return false, fmt.Errorf("failed to add referral earnings to %d: %w", telegramID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// EnsureReferralCode lazily assigns the deterministic referral code and
// returns it. Repeated calls return the same code.
func (l *Ledger) EnsureReferralCode(ctx context.Context, telegramID int64) (string, error) {
	user, err := l.Get(ctx, telegramID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user %d: %w", telegramID, err)
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}
	code := fmt.Sprintf("ref_%d", telegramID)
	err = l.DB.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ? AND referral_code IS NULL", telegramID).
		Update("referral_code", code).Error
	if err != nil {
		return "", fmt.Errorf("failed to set referral code for %d: %w", telegramID, err)
	}
	return code, nil
}

// ReferralCount counts users referred by the given user, recomputed on
// demand.
func (l *Ledger) ReferralCount(ctx context.Context, telegramID int64) (int64, error) {
	user, err := l.Get(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int64
	err = l.DB.WithContext(ctx).Model(&models.User{}).
		Where("referred_by_id = ?", user.ID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals of %d: %w", telegramID, err)
	}
	return count, nil
}
