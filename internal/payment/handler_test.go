package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/models"
	"kartochka-bot/internal/referral"
)

func newTestHandler(t *testing.T) (*Handler, *ledger.Ledger) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Payment{}, &models.ReferralTransaction{}))
	l := ledger.NewLedger(db)
	ref := referral.NewService(l, db, nil)
	return NewHandler(l, ref, db), l
}

func TestSettleCreditsAndRecords(t *testing.T) {
	h, l := newTestHandler(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, ledger.Display{}, 0)
	require.NoError(t, err)

	credits, err := h.Settle(ctx, 100, EncodePayload(500), "charge-1", 250)
	require.NoError(t, err)
	assert.Equal(t, 500, credits)

	user, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultCredits+500, user.CreditsRemaining)

	var record models.Payment
	require.NoError(t, h.DB.First(&record).Error)
	assert.Equal(t, user.ID, record.UserID)
	assert.Equal(t, 500, record.Credits)
	assert.Equal(t, 250, record.Stars)
	assert.Equal(t, "charge-1", record.TelegramChargeID)
}

func TestSettleTriggersReferralBonus(t *testing.T) {
	h, l := newTestHandler(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, ledger.Display{}, 0)
	require.NoError(t, err)
	_, _, err = l.GetOrCreate(ctx, 200, ledger.Display{}, 100)
	require.NoError(t, err)

	_, err = h.Settle(ctx, 200, EncodePayload(160), "charge-2", 100)
	require.NoError(t, err)

	referrer, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultCredits+32, referrer.CreditsRemaining)
	assert.Equal(t, 32, referrer.ReferralEarnings)
}

func TestSettleMalformedPayload(t *testing.T) {
	h, l := newTestHandler(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, ledger.Display{}, 0)
	require.NoError(t, err)

	_, err = h.Settle(ctx, 100, "subscribe:monthly", "charge-3", 100)
	var malformed *ErrMalformedPayload
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "subscribe:monthly", malformed.Payload)

	// No credits were delivered.
	user, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultCredits, user.CreditsRemaining)
}

func TestSettleUnknownPurchaser(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Settle(context.Background(), 999, EncodePayload(70), "charge-4", 50)
	assert.Error(t, err)
	assert.False(t, errors.As(err, new(*ErrMalformedPayload)))
}
