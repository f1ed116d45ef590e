package bot

import (
	"log"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"golang.org/x/time/rate"
)

// One event per second with a small burst is plenty for a conversational
// flow; anything faster is a stuck client or abuse.
const (
	limiterRate  = rate.Limit(1)
	limiterBurst = 5
)

type userLimiters struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	lastSeen map[int64]time.Time
}

func newUserLimiters() *userLimiters {
	return &userLimiters{
		limiters: make(map[int64]*rate.Limiter),
		lastSeen: make(map[int64]time.Time),
	}
}

func (u *userLimiters) allow(telegramID int64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	lim, ok := u.limiters[telegramID]
	if !ok {
		lim = rate.NewLimiter(limiterRate, limiterBurst)
		u.limiters[telegramID] = lim
	}
	u.lastSeen[telegramID] = time.Now()

	if len(u.limiters) > 10000 {
		u.evictStale()
	}
	return lim.Allow()
}

func (u *userLimiters) evictStale() {
	cutoff := time.Now().Add(-time.Hour)
	for id, seen := range u.lastSeen {
		if seen.Before(cutoff) {
			delete(u.limiters, id)
			delete(u.lastSeen, id)
		}
	}
}

func (b *Bot) rateLimitMiddleware(ctx *th.Context, update telego.Update) error {
	if from := updateFrom(update); from != nil {
		if !b.limiters.allow(from.ID) {
			log.Printf("Rate limited update from user %d", from.ID)
			return nil
		}
	}
	return ctx.Next(update)
}
