package gencli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"kartochka-bot/internal/ledger"
)

// Client talks to the generation service. Each call is bounded by the
// caller's context; the gate owns the timeout.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
	}
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	url := fmt.Sprintf("%s%s", strings.TrimRight(c.BaseURL, "/"), endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.APIKey)
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("generation service error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	return respBody, nil
}

// GenerateCard asks the service for a product card text. A vendor-reported
// failure comes back as *ledger.ExternalError so the gate can tell it from
// an unreachable service.
func (c *Client) GenerateCard(ctx context.Context, req CardRequest) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/card/generate", req)
	if err != nil {
		return "", err
	}

	var result CardResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal card response: %w", err)
	}

	if result.Status != "success" || strings.HasPrefix(result.Card, "ERROR:") {
		msg := strings.TrimSpace(strings.TrimPrefix(result.Card, "ERROR:"))
		if msg == "" {
			msg = "card generation failed"
		}
		return "", &ledger.ExternalError{Message: msg}
	}

	return result.Card, nil
}

// ProcessPhoto asks the service to edit a photo by prompt and returns the
// resulting photo URL (possibly a data URI).
func (c *Client) ProcessPhoto(ctx context.Context, req PhotoRequest) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/photo/process", req)
	if err != nil {
		return "", err
	}

	var result PhotoResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal photo response: %w", err)
	}

	if result.Status != "success" {
		msg := result.Message
		if msg == "" {
			msg = "photo processing failed"
		}
		return "", &ledger.ExternalError{Message: msg}
	}
	if result.Result.PhotoURL == "" {
		return "", &ledger.ExternalError{Message: "no result returned"}
	}

	return result.Result.PhotoURL, nil
}
