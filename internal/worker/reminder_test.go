package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kartochka-bot/internal/models"
)

type recordingSender struct {
	sent []int64
}

func (s *recordingSender) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	s.sent = append(s.sent, params.ChatID.ID)
	return &telego.Message{}, nil
}

func newTestReminder(t *testing.T, threshold int) (*Reminder, *recordingSender, *miniredis.Miniredis) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sender := &recordingSender{}
	return NewReminder(db, rdb, sender, threshold), sender, mr
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64, remaining, used int) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		TelegramID:       telegramID,
		CreditsRemaining: remaining,
		CreditsUsed:      used,
	}).Error)
}

func TestCheckBalancesRemindsSpendersBelowThreshold(t *testing.T) {
	r, sender, _ := newTestReminder(t, 40)

	seedUser(t, r.DB, 100, 5, 120)  // spender, low balance
	seedUser(t, r.DB, 200, 125, 0)  // never spent
	seedUser(t, r.DB, 300, 80, 45)  // spender, enough left
	seedUser(t, r.DB, 400, 39, 1)   // spender, just under

	r.checkBalances()

	assert.ElementsMatch(t, []int64{100, 400}, sender.sent)
}

func TestCheckBalancesDeduplicates(t *testing.T) {
	r, sender, _ := newTestReminder(t, 40)

	seedUser(t, r.DB, 100, 5, 120)

	r.checkBalances()
	r.checkBalances()

	assert.Equal(t, []int64{100}, sender.sent)
}

func TestCheckBalancesRemindsAgainAfterDedupeWindow(t *testing.T) {
	r, sender, mr := newTestReminder(t, 40)

	seedUser(t, r.DB, 100, 5, 120)

	r.checkBalances()
	mr.FastForward(reminderDedupeTTL + time.Minute)
	r.checkBalances()

	assert.Equal(t, []int64{100, 100}, sender.sent)
}
