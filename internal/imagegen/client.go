package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const maxAttempts = 3

// Client talks to a Gemini-compatible generateContent endpoint for both
// image-to-image edits and text generation.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	return &Client{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ProcessImages downloads the source images, sends them with the prompt to
// the vendor and returns the result as a data:image/...;base64 URI ready
// for Telegram.
func (c *Client) ProcessImages(ctx context.Context, imageURLs []string, prompt string) (string, error) {
	start := time.Now()

	parts := []Part{{Text: prompt}}
	for _, url := range imageURLs {
		part, err := c.downloadAndPrepare(ctx, url)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	body := GenerateRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: parts,
		}},
		GenerationConfig: GenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	result, err := c.generateWithRetry(ctx, body)
	if err != nil {
		return "", err
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if inline := part.inline(); inline != nil && inline.Data != "" {
			log.Printf("Image generation took %.2fs", time.Since(start).Seconds())
			return fmt.Sprintf("data:%s;base64,%s", inline.mimeType(), inline.Data), nil
		}
	}
	return "", fmt.Errorf("no image returned by vendor")
}

// GenerateText sends a text-only prompt and returns the concatenated text
// parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	body := GenerateRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: prompt}},
		}},
		GenerationConfig: GenerationConfig{
			ResponseModalities: []string{"TEXT"},
		},
	}

	result, err := c.generateWithRetry(ctx, body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text returned by vendor")
	}
	return text, nil
}

func (c *Client) generateWithRetry(ctx context.Context, body GenerateRequest) (*GenerateResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.generate(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Printf("Generation attempt %d/%d failed: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func (c *Client) downloadAndPrepare(ctx context.Context, imageURL string) (Part, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Part{}, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Part{}, fmt.Errorf("failed to download source image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Part{}, fmt.Errorf("failed to download source image: status %d", resp.StatusCode)
	}

	imageBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Part{}, fmt.Errorf("failed to read source image: %w", err)
	}

	mimeType := http.DetectContentType(imageBytes)

	return Part{
		InlineData: &InlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(imageBytes),
		},
	}, nil
}

func (c *Client) generate(ctx context.Context, body GenerateRequest) (*GenerateResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("vendor api error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var result GenerateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("vendor returned no candidates")
	}

	return &result, nil
}
