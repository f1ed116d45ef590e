package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"kartochka-bot/internal/models"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Sender is the message-sending part of the bot the worker needs.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Reminder nudges users who have generated before but no longer hold
// enough credits for a photo edit. Each user is reminded at most once per
// dedupe window, tracked through Redis TTL keys.
type Reminder struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Bot       Sender
	Threshold int
}

const (
	reminderInterval  = time.Hour
	reminderDedupeTTL = 7 * 24 * time.Hour
)

func NewReminder(db *gorm.DB, rdb *redis.Client, bot Sender, threshold int) *Reminder {
	return &Reminder{
		DB:        db,
		Redis:     rdb,
		Bot:       bot,
		Threshold: threshold,
	}
}

func (r *Reminder) Start() {
	ticker := time.NewTicker(reminderInterval)
	log.Println("Low balance reminder worker started")

	// Run once at start
	r.checkBalances()

	for range ticker.C {
		r.checkBalances()
	}
}

func (r *Reminder) checkBalances() {
	ctx := context.Background()

	var lowBalance []models.User
	err := r.DB.Where("credits_remaining < ? AND credits_used > 0", r.Threshold).Find(&lowBalance).Error
	if err != nil {
		log.Printf("Error querying low balance users: %v", err)
		return
	}

	for _, user := range lowBalance {
		key := fmt.Sprintf("lowbal_notified_%d", user.TelegramID)
		exists, _ := r.Redis.Exists(ctx, key).Result()
		if exists != 0 {
			continue
		}

		_, err := r.Bot.SendMessage(ctx, tu.Message(
			tu.ID(user.TelegramID),
			fmt.Sprintf("💎 На вашем балансе осталось %d кредитов. Пополните баланс командой /buy_credits, чтобы продолжить генерации.", user.CreditsRemaining),
		))
		if err != nil {
			log.Printf("Failed to send low balance reminder to %d: %v", user.TelegramID, err)
			continue
		}
		r.Redis.Set(ctx, key, "true", reminderDedupeTTL)
		log.Printf("Sent low balance reminder to user %d", user.TelegramID)
	}
}
