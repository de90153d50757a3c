package ai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sitesmith/internal/keys"
	"sitesmith/internal/metrics"
)

const (
	// MaxAttempts is the per-call retry budget.
	MaxAttempts = 3
	// BackoffUnit scales the linear backoff: the wait after attempt k is
	// k times this value.
	BackoffUnit = time.Second
)

// Invoker drives provider calls through the credential selector with a
// bounded retry budget. Each attempt selects a credential afresh, so a
// failure rotates the next attempt onto a different key; failures are
// recorded against the credential that served them.
type Invoker struct {
	client   Client
	selector *keys.Selector
	log      *zap.Logger

	// sleep is swapped out by tests to observe backoff delays.
	sleep func(time.Duration)
}

// NewInvoker wires a provider client to a credential selector. A nil logger
// is replaced with a no-op logger.
func NewInvoker(client Client, selector *keys.Selector, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{
		client:   client,
		selector: selector,
		log:      log,
		sleep:    time.Sleep,
	}
}

// Do performs up to MaxAttempts provider calls and returns the first raw
// text response. An empty credential pool fails immediately with
// keys.ErrNoCredentials; retrying cannot help there. Once the budget is
// spent the last classified error is wrapped in an *ExhaustedError.
func (inv *Invoker) Do(ctx context.Context, req CallRequest) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		cred, idx, err := inv.selector.Select()
		if err != nil {
			return "", err
		}

		start := time.Now()
		text, err := inv.client.Call(ctx, req, cred)
		if err == nil {
			metrics.Get().RecordProviderAttempt("success", time.Since(start))
			return text, nil
		}

		kind := Classify(err)
		metrics.Get().RecordProviderAttempt(string(kind), time.Since(start))
		inv.selector.RecordFailure(idx)
		lastErr = err

		inv.log.Warn("provider attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("credential_index", idx),
			zap.String("key", keys.Mask(cred.Key)),
			zap.String("kind", string(kind)),
			zap.Error(err))

		if attempt < MaxAttempts {
			inv.sleep(time.Duration(attempt) * BackoffUnit)
		}
	}

	metrics.Get().RecordProviderExhausted()
	return "", &ExhaustedError{Attempts: MaxAttempts, Last: lastErr}
}
