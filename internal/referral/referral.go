package referral

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/models"
)

// BonusPercent of every purchase goes to the referrer, floored to whole
// credits.
const BonusPercent = 20

// Notifier delivers the bonus notification to the referrer. Failures are
// logged and swallowed, they never reach the purchaser-facing flow.
type Notifier interface {
	NotifyBonus(ctx context.Context, referrerID int64, bonus int, purchaserID int64) error
}

type Service struct {
	Ledger   *ledger.Ledger
	DB       *gorm.DB
	Notifier Notifier
}

func NewService(l *ledger.Ledger, db *gorm.DB, notifier Notifier) *Service {
	return &Service{Ledger: l, DB: db, Notifier: notifier}
}

// Bonus computes the referrer's cut of a purchase.
func Bonus(amount int) int {
	return amount * BonusPercent / 100
}

// ApplyPurchaseBonus runs after a purchase of amount credits by
// purchaserID. If the purchaser was referred, the referrer is credited the
// bonus and the earnings counter is bumped. The two ledger writes are
// independent best-effort steps: a failed earnings bump after a successful
// credit is logged, not rolled back.
func (s *Service) ApplyPurchaseBonus(ctx context.Context, purchaserID int64, amount int) error {
	purchaser, err := s.Ledger.Get(ctx, purchaserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch purchaser %d: %w", purchaserID, err)
	}
	if purchaser.ReferredByID == nil {
		return nil
	}

	bonus := Bonus(amount)
	if bonus <= 0 {
		return nil
	}

	var referrer models.User
	if err := s.DB.WithContext(ctx).First(&referrer, *purchaser.ReferredByID).Error; err != nil {
		log.Printf("Referrer %d of user %d not found: %v", *purchaser.ReferredByID, purchaserID, err)
		return nil
	}

	ok, err := s.Ledger.Credit(ctx, referrer.TelegramID, bonus)
	if err != nil || !ok {
		return fmt.Errorf("failed to credit referral bonus to %d: %w", referrer.TelegramID, err)
	}
	if _, err := s.Ledger.AddReferralEarnings(ctx, referrer.TelegramID, bonus); err != nil {
		log.Printf("Failed to record referral earnings for %d: %v", referrer.TelegramID, err)
	}

	tx := models.ReferralTransaction{
		ReferrerID:    referrer.ID,
		InvitedUserID: purchaser.ID,
		Credits:       bonus,
	}
	if err := s.DB.WithContext(ctx).Create(&tx).Error; err != nil {
		log.Printf("Failed to record referral transaction: %v", err)
	}

	log.Printf("Awarded %d referral bonus credits to user %d", bonus, referrer.TelegramID)

	if s.Notifier != nil {
		go func(referrerID int64) {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Notifier.NotifyBonus(notifyCtx, referrerID, bonus, purchaserID); err != nil {
				log.Printf("Failed to send referral bonus notification to %d: %v", referrerID, err)
			}
		}(referrer.TelegramID)
	}

	return nil
}

// Stats is the referrer-facing summary shown in the partner menu.
type Stats struct {
	Invited int64
	Earned  int
}

func (s *Service) Stats(ctx context.Context, telegramID int64) (Stats, error) {
	user, err := s.Ledger.Get(ctx, telegramID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to fetch user %d: %w", telegramID, err)
	}
	invited, err := s.Ledger.ReferralCount(ctx, telegramID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Invited: invited, Earned: user.ReferralEarnings}, nil
}

// Link builds the invitation deep link for a referral code.
func Link(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}
