package gencli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kartochka-bot/internal/ledger"
)

func TestGenerateCardSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/card/generate", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req CardRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(100), req.TelegramID)
		assert.Equal(t, "Кружка", req.Characteristics["name"])

		json.NewEncoder(w).Encode(CardResponse{Status: "success", Card: "Готовая карточка"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	card, err := c.GenerateCard(context.Background(), CardRequest{
		TelegramID:      100,
		Characteristics: map[string]string{"name": "Кружка"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Готовая карточка", card)
}

func TestGenerateCardVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CardResponse{Status: "error", Card: "ERROR: описание слишком короткое"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.GenerateCard(context.Background(), CardRequest{TelegramID: 100})

	var extErr *ledger.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "описание слишком короткое", extErr.Message)
}

func TestGenerateCardErrorPrefixDespiteSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CardResponse{Status: "success", Card: "ERROR: модель недоступна"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.GenerateCard(context.Background(), CardRequest{TelegramID: 100})

	var extErr *ledger.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "модель недоступна", extErr.Message)
}

func TestGenerateCardHTTPErrorIsNotExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.GenerateCard(context.Background(), CardRequest{TelegramID: 100})
	require.Error(t, err)

	// A transport-level failure must not look like a vendor-reported one.
	var extErr *ledger.ExternalError
	assert.False(t, errors.As(err, &extErr))
}

func TestProcessPhotoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/photo/process", r.URL.Path)

		var req PhotoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"file-1"}, req.PhotoFileIDs)
		assert.Equal(t, "замени фон", req.Prompt)

		json.NewEncoder(w).Encode(PhotoResponse{
			Status: "success",
			Result: PhotoResult{PhotoURL: "data:image/png;base64,aGVsbG8=", ProcessingTime: 1.5},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	url, err := c.ProcessPhoto(context.Background(), PhotoRequest{
		PhotoFileIDs: []string{"file-1"},
		Prompt:       "замени фон",
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", url)
}

func TestProcessPhotoVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PhotoResponse{Status: "error", Message: "сервис перегружен"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.ProcessPhoto(context.Background(), PhotoRequest{PhotoFileIDs: []string{"file-1"}, Prompt: "x"})

	var extErr *ledger.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "сервис перегружен", extErr.Message)
}

func TestProcessPhotoEmptyResultURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PhotoResponse{Status: "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.ProcessPhoto(context.Background(), PhotoRequest{PhotoFileIDs: []string{"file-1"}, Prompt: "x"})

	var extErr *ledger.ExternalError
	require.ErrorAs(t, err, &extErr)
}

func TestProcessPhotoContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can notice the client abort and
		// cancel the request context; otherwise this blocks forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ProcessPhoto(ctx, PhotoRequest{PhotoFileIDs: []string{"file-1"}, Prompt: "x"})
	require.Error(t, err)

	var extErr *ledger.ExternalError
	assert.False(t, errors.As(err, &extErr))
}
