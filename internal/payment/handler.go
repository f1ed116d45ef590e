package payment

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/models"
	"kartochka-bot/internal/referral"
)

// Handler settles successful Stars payments: it credits the purchaser,
// records the payment and runs the referral bonus flow.
type Handler struct {
	Ledger   *ledger.Ledger
	Referral *referral.Service
	DB       *gorm.DB
}

func NewHandler(l *ledger.Ledger, ref *referral.Service, db *gorm.DB) *Handler {
	return &Handler{Ledger: l, Referral: ref, DB: db}
}

// ErrMalformedPayload is surfaced to the user as a generic "contact
// support" message; no ledger mutation happens for such payments.
type ErrMalformedPayload struct {
	Payload string
}

func (e *ErrMalformedPayload) Error() string {
	return fmt.Sprintf("malformed payment payload %q", e.Payload)
}

// Settle processes one successful payment event. It returns the number of
// credits delivered to the purchaser. Each call applies once; the caller
// is responsible for invoking it exactly once per payment.
func (h *Handler) Settle(ctx context.Context, telegramID int64, payload, chargeID string, stars int) (int, error) {
	credits, err := ParsePayload(payload)
	if err != nil {
		log.Printf("Invalid payload in successful payment from %d: %v", telegramID, err)
		return 0, &ErrMalformedPayload{Payload: payload}
	}

	user, err := h.Ledger.Get(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("purchaser %d not found in ledger: %w", telegramID, err)
	}

	ok, err := h.Ledger.Credit(ctx, telegramID, credits)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("purchaser %d not found in ledger", telegramID)
	}

	log.Printf("Successful payment from %d: %d credits for %d stars (charge %s)", telegramID, credits, stars, chargeID)

	record := models.Payment{
		UserID:           user.ID,
		Credits:          credits,
		Stars:            stars,
		TelegramChargeID: chargeID,
	}
	if err := h.DB.WithContext(ctx).Create(&record).Error; err != nil {
		log.Printf("Failed to record payment for %d: %v", telegramID, err)
	}

	if err := h.Referral.ApplyPurchaseBonus(ctx, telegramID, credits); err != nil {
		log.Printf("Failed to apply referral bonus for purchase by %d: %v", telegramID, err)
	}

	return credits, nil
}
