package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesmith/internal/keys"
)

// scriptedClient returns canned results in order and records the credential
// used for every call. The last script entry repeats once the script runs out.
type scriptedClient struct {
	script []scriptedResult
	creds  []keys.Credential
}

type scriptedResult struct {
	text string
	err  error
}

func (s *scriptedClient) Call(_ context.Context, _ CallRequest, cred keys.Credential) (string, error) {
	s.creds = append(s.creds, cred)
	i := len(s.creds) - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	r := s.script[i]
	return r.text, r.err
}

func newTestInvoker(client Client, poolSize int) (*Invoker, *[]time.Duration) {
	rawKeys := make([]string, poolSize)
	for i := range rawKeys {
		rawKeys[i] = "invoker-test-key-" + string(rune('a'+i)) + "0123456789"
	}
	sel := keys.NewSelector(keys.NewPool(rawKeys...), nil)
	inv := NewInvoker(client, sel, nil)

	var sleeps []time.Duration
	inv.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return inv, &sleeps
}

func TestDoSucceedsAfterTwoFailures(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptedResult{
		{err: errTransient(500, "service unavailable")},
		{err: errRateLimited(429, "rate limit exceeded")},
		{text: "<html>generated</html>"},
	}}
	inv, sleeps := newTestInvoker(client, 3)

	text, err := inv.Do(context.Background(), CallRequest{Messages: UserMessage("build a site")})
	require.NoError(t, err)
	assert.Equal(t, "<html>generated</html>", text)

	// Backoff delays grow strictly, one per non-final failed attempt.
	require.Len(t, *sleeps, 2)
	assert.Equal(t, 1*time.Second, (*sleeps)[0])
	assert.Equal(t, 2*time.Second, (*sleeps)[1])
	assert.Less(t, (*sleeps)[0], (*sleeps)[1])

	// Every attempt used a freshly selected credential.
	require.Len(t, client.creds, 3)
	assert.NotEqual(t, client.creds[0].Key, client.creds[1].Key)
	assert.NotEqual(t, client.creds[1].Key, client.creds[2].Key)
}

func TestDoEmptyPoolFailsFast(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptedResult{{text: "never reached"}}}
	inv, sleeps := newTestInvoker(client, 0)

	_, err := inv.Do(context.Background(), CallRequest{Messages: UserMessage("anything")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keys.ErrNoCredentials))
	assert.Empty(t, client.creds, "no network call may happen without a credential")
	assert.Empty(t, *sleeps, "no backoff without an attempt")
}

func TestDoExhaustsBudget(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptedResult{
		{err: errTransient(503, "down")},
	}}
	inv, sleeps := newTestInvoker(client, 2)

	_, err := inv.Do(context.Background(), CallRequest{Messages: UserMessage("anything")})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, MaxAttempts, exhausted.Attempts)
	assert.True(t, IsExhausted(err))

	// The causal chain keeps the boundary classification.
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindTransient, perr.Kind)

	assert.Len(t, client.creds, MaxAttempts)
	assert.Len(t, *sleeps, MaxAttempts-1, "no backoff after the final attempt")
}

func TestDoRecordsFailuresAgainstCredentials(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptedResult{
		{err: errTransient(500, "down")},
	}}

	rawKeys := []string{"failure-test-key-a-0123456789", "failure-test-key-b-0123456789", "failure-test-key-c-0123456789"}
	sel := keys.NewSelector(keys.NewPool(rawKeys...), nil)
	inv := NewInvoker(client, sel, nil)
	inv.sleep = func(time.Duration) {}

	_, err := inv.Do(context.Background(), CallRequest{Messages: UserMessage("anything")})
	require.Error(t, err)

	snap := sel.Snapshot()
	unhealthy := 0
	for _, status := range snap.Credentials {
		if !status.Healthy {
			unhealthy++
			assert.Equal(t, 1, status.ConsecutiveErrors)
		}
	}
	assert.Equal(t, MaxAttempts, unhealthy, "each failed attempt marks the credential it used")
}
