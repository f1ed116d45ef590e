package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateDeliversAndDebits(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, Display{}, 0)
	require.NoError(t, err)

	gate := NewGate(l, time.Minute)
	called := false
	outcome, err := gate.Run(ctx, 100, 40, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, StatusDelivered, outcome.Status)

	user, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, DefaultCredits-40, user.CreditsRemaining)
	assert.Equal(t, 40, user.CreditsUsed)
}

func TestGateInsufficientSkipsAction(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, Display{}, 0)
	require.NoError(t, err)
	ok, err := l.Debit(ctx, 100, DefaultCredits-39)
	require.NoError(t, err)
	require.True(t, ok)

	gate := NewGate(l, time.Minute)
	called := false
	outcome, err := gate.Run(ctx, 100, 40, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, StatusInsufficient, outcome.Status)
	assert.Equal(t, 40, outcome.Needed)
	assert.Equal(t, 39, outcome.Have)

	// Nothing was debited.
	user, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 39, user.CreditsRemaining)
}

func TestGateUnknownUserIsInsufficient(t *testing.T) {
	l := newTestLedger(t)

	gate := NewGate(l, time.Minute)
	outcome, err := gate.Run(context.Background(), 999, 40, func(ctx context.Context) error {
		t.Fatal("action must not run for unknown user")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficient, outcome.Status)
	assert.Equal(t, 40, outcome.Needed)
	assert.Equal(t, 0, outcome.Have)
}

func TestGateExternalErrorKeepsDebit(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, Display{}, 0)
	require.NoError(t, err)

	gate := NewGate(l, time.Minute)
	outcome, err := gate.Run(ctx, 100, 40, func(ctx context.Context) error {
		return &ExternalError{Message: "generation failed"}
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExternalError, outcome.Status)
	assert.Equal(t, "generation failed", outcome.Message)

	// Debit stands even though the action failed.
	user, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, DefaultCredits-40, user.CreditsRemaining)
}

func TestGateTimeoutKeepsDebit(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, Display{}, 0)
	require.NoError(t, err)
	ok, err := l.Debit(ctx, 100, DefaultCredits-1)
	require.NoError(t, err)
	require.True(t, ok)

	gate := NewGate(l, 10*time.Millisecond)
	outcome, err := gate.Run(ctx, 100, 1, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, StatusUnreachable, outcome.Status)

	// The last credit is gone.
	user, err := l.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, user.CreditsRemaining)
}

func TestGateTransportErrorIsUnreachable(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, Display{}, 0)
	require.NoError(t, err)

	gate := NewGate(l, time.Minute)
	outcome, err := gate.Run(ctx, 100, 1, func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	require.NoError(t, err)
	assert.Equal(t, StatusUnreachable, outcome.Status)
}

func TestGateWrappedExternalError(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.GetOrCreate(ctx, 100, Display{}, 0)
	require.NoError(t, err)

	gate := NewGate(l, time.Minute)
	wrapped := errors.Join(errors.New("request failed"), &ExternalError{Message: "ERROR: bad prompt"})
	outcome, err := gate.Run(ctx, 100, 1, func(ctx context.Context) error {
		return wrapped
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExternalError, outcome.Status)
	assert.Equal(t, "ERROR: bad prompt", outcome.Message)
}
