package genservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FileResolver turns a Telegram file_id into a directly downloadable URL.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// TelegramFileResolver resolves file_ids through the Bot API getFile call.
type TelegramFileResolver struct {
	BotToken   string
	HTTPClient *http.Client
}

func NewTelegramFileResolver(botToken string) *TelegramFileResolver {
	return &TelegramFileResolver{
		BotToken: botToken,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (r *TelegramFileResolver) FileURL(ctx context.Context, fileID string) (string, error) {
	reqBody, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal getFile request: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/getFile", r.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create getFile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("getFile request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read getFile response: %w", err)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal getFile response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("telegram api error: %s", result.Description)
	}

	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.BotToken, result.Result.FilePath), nil
}
