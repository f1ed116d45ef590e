package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conversation states for the multi-step flows.
const (
	StateCardWaitingPhoto         = "CARD_WAITING_PHOTO"
	StateCardWaitingName          = "CARD_WAITING_NAME"
	StateCardWaitingBrand         = "CARD_WAITING_BRAND"
	StateCardWaitingCategory      = "CARD_WAITING_CATEGORY"
	StateCardWaitingAudience      = "CARD_WAITING_AUDIENCE"
	StateCardWaitingSellingPoints = "CARD_WAITING_SELLING_POINTS"
	StatePhotoWaitingPhoto        = "PHOTO_WAITING_PHOTO"
	StatePhotoWaitingPrompt       = "PHOTO_WAITING_PROMPT"
)

// Session holds the data collected so far in a user's active flow.
type Session struct {
	State           string            `json:"state"`
	PhotoFileID     string            `json:"photo_file_id,omitempty"`
	Characteristics map[string]string `json:"characteristics,omitempty"`
	TargetAudience  string            `json:"target_audience,omitempty"`
	SellingPoints   string            `json:"selling_points,omitempty"`
	Prompt          string            `json:"prompt,omitempty"`
}

// Store keeps one session per user in Redis so an abandoned flow expires
// on its own and an in-flight one survives a bot restart.
type Store struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{Redis: rdb, TTL: ttl}
}

func key(telegramID int64) string {
	return fmt.Sprintf("session:%d", telegramID)
}

// Get returns the active session, or nil when the user is idle.
func (s *Store) Get(ctx context.Context, telegramID int64) (*Session, error) {
	data, err := s.Redis.Get(ctx, key(telegramID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %d: %w", telegramID, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session for %d: %w", telegramID, err)
	}
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, telegramID int64, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session for %d: %w", telegramID, err)
	}
	if err := s.Redis.Set(ctx, key(telegramID), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store session for %d: %w", telegramID, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, telegramID int64) error {
	if err := s.Redis.Del(ctx, key(telegramID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session for %d: %w", telegramID, err)
	}
	return nil
}
