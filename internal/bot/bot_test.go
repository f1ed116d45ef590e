package bot

import (
	"context"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/models"
)

func newBotWithLedger(t *testing.T) *Bot {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return &Bot{
		Ledger:   ledger.NewLedger(db),
		limiters: newUserLimiters(),
	}
}

func startUpdate(from *telego.User, text string) telego.Update {
	return telego.Update{Message: &telego.Message{From: from, Text: text}}
}

func TestParseReferralArg(t *testing.T) {
	assert.Equal(t, int64(123456), parseReferralArg("ref_123456"))
	assert.Equal(t, int64(0), parseReferralArg(""))
	assert.Equal(t, int64(0), parseReferralArg("ref_"))
	assert.Equal(t, int64(0), parseReferralArg("ref_abc"))
	assert.Equal(t, int64(0), parseReferralArg("ref_-5"))
	assert.Equal(t, int64(0), parseReferralArg("ref_0"))
	assert.Equal(t, int64(0), parseReferralArg("promo_123"))
	assert.Equal(t, int64(0), parseReferralArg("123456"))
}

func TestIsStartCommand(t *testing.T) {
	from := &telego.User{ID: 100}

	assert.True(t, isStartCommand(startUpdate(from, "/start")))
	assert.True(t, isStartCommand(startUpdate(from, "/start ref_123")))
	assert.True(t, isStartCommand(startUpdate(from, "/start@kartochka_bot ref_123")))
	assert.False(t, isStartCommand(startUpdate(from, "/buy_credits")))
	assert.False(t, isStartCommand(startUpdate(from, "/startover")))
	assert.False(t, isStartCommand(startUpdate(from, "произвольный текст")))
	assert.False(t, isStartCommand(telego.Update{CallbackQuery: &telego.CallbackQuery{From: *from}}))
}

func TestEnsureUserSkipsStartSoReferralSurvives(t *testing.T) {
	b := newBotWithLedger(t)
	ctx := context.Background()

	_, _, err := b.Ledger.GetOrCreate(ctx, 100, ledger.Display{Username: "referrer"}, 0)
	require.NoError(t, err)

	// A brand-new user's very first update is /start with a referral deep
	// link. The middleware runs before the /start handler and must not
	// register the user itself.
	newcomer := &telego.User{ID: 200, Username: "invited"}
	update := startUpdate(newcomer, "/start ref_100")

	b.ensureUser(ctx, update)
	_, err = b.Ledger.Get(ctx, 200)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The /start handler then registers with the parsed referrer.
	args := "ref_100"
	user, created, err := b.Ledger.GetOrCreate(ctx, 200, displayOf(newcomer), parseReferralArg(args))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ledger.ReferredCredits, user.CreditsRemaining)
	require.NotNil(t, user.ReferredByID)
}

func TestEnsureUserRegistersNonStartUpdates(t *testing.T) {
	b := newBotWithLedger(t)
	ctx := context.Background()

	from := &telego.User{ID: 300, Username: "wanderer"}
	b.ensureUser(ctx, telego.Update{CallbackQuery: &telego.CallbackQuery{From: *from}})

	user, err := b.Ledger.Get(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultCredits, user.CreditsRemaining)
	assert.Nil(t, user.ReferredByID)
}

func TestUpdateFrom(t *testing.T) {
	user := telego.User{ID: 100}

	assert.Nil(t, updateFrom(telego.Update{}))
	assert.Equal(t, &user, updateFrom(telego.Update{Message: &telego.Message{From: &user}}))

	fromCallback := updateFrom(telego.Update{CallbackQuery: &telego.CallbackQuery{From: user}})
	assert.Equal(t, int64(100), fromCallback.ID)

	fromPreCheckout := updateFrom(telego.Update{PreCheckoutQuery: &telego.PreCheckoutQuery{From: user}})
	assert.Equal(t, int64(100), fromPreCheckout.ID)
}

func TestPredicates(t *testing.T) {
	ctx := context.Background()

	assert.False(t, predicateMessageWithPhoto(ctx, telego.Update{}))
	assert.False(t, predicateMessageWithPhoto(ctx, telego.Update{Message: &telego.Message{}}))
	assert.True(t, predicateMessageWithPhoto(ctx, telego.Update{Message: &telego.Message{
		Photo: []telego.PhotoSize{{FileID: "file-1"}},
	}}))

	assert.False(t, predicateSuccessfulPayment(ctx, telego.Update{Message: &telego.Message{}}))
	assert.True(t, predicateSuccessfulPayment(ctx, telego.Update{Message: &telego.Message{
		SuccessfulPayment: &telego.SuccessfulPayment{},
	}}))

	assert.False(t, predicatePreCheckout(ctx, telego.Update{}))
	assert.True(t, predicatePreCheckout(ctx, telego.Update{PreCheckoutQuery: &telego.PreCheckoutQuery{}}))
}
