package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// Status is the outcome of running a paid action through the gate.
type Status int

const (
	StatusDelivered Status = iota
	StatusInsufficient
	StatusExternalError
	StatusUnreachable
)

// Outcome reports how a gated action ended. Needed and Have are filled for
// StatusInsufficient, Message for StatusExternalError.
type Outcome struct {
	Status  Status
	Needed  int
	Have    int
	Message string
}

// ExternalError marks an application-level failure reported by the
// downstream service, as opposed to a transport failure or timeout.
type ExternalError struct {
	Message string
}

func (e *ExternalError) Error() string {
	return e.Message
}

// Action is the external collaborator invoked after the debit.
type Action func(ctx context.Context) error

// Gate guards a paid action: it checks the balance, debits the fixed cost
// and only then invokes the collaborator with a bounded timeout. The debit
// is not reversed when the collaborator fails; retrying a failed action
// costs again, a retried success is never free.
type Gate struct {
	Ledger  *Ledger
	Timeout time.Duration
}

func NewGate(l *Ledger, timeout time.Duration) *Gate {
	return &Gate{Ledger: l, Timeout: timeout}
}

// Run executes action for telegramID at the given cost. The returned error
// is only for ledger-side failures; collaborator failures are reported
// through the Outcome.
func (g *Gate) Run(ctx context.Context, telegramID int64, cost int, action Action) (Outcome, error) {
	user, err := g.Ledger.Get(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Outcome{Status: StatusInsufficient, Needed: cost, Have: 0}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	if user.CreditsRemaining < cost {
		return Outcome{Status: StatusInsufficient, Needed: cost, Have: user.CreditsRemaining}, nil
	}

	ok, err := g.Ledger.Debit(ctx, telegramID, cost)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		// Balance changed between the check and the debit.
		have := 0
		if u, err := g.Ledger.Get(ctx, telegramID); err == nil {
			have = u.CreditsRemaining
		}
		return Outcome{Status: StatusInsufficient, Needed: cost, Have: have}, nil
	}

	actionCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	if err := action(actionCtx); err != nil {
		return classify(err), nil
	}
	return Outcome{Status: StatusDelivered}, nil
}

func classify(err error) Outcome {
	var extErr *ExternalError
	if errors.As(err, &extErr) {
		return Outcome{Status: StatusExternalError, Message: extErr.Message}
	}
	// Timeouts, transport errors and everything else the collaborator could
	// not turn into an answer.
	log.Printf("Gated action unreachable: %v", err)
	return Outcome{Status: StatusUnreachable}
}
