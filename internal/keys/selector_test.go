package keys

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(n int) *Pool {
	rawKeys := make([]string, n)
	for i := range rawKeys {
		rawKeys[i] = fmt.Sprintf("test-key-%02d-abcdef", i)
	}
	return NewPool(rawKeys...)
}

func TestSelectEmptyPool(t *testing.T) {
	t.Parallel()

	sel := NewSelector(NewPool(), nil)

	_, _, err := sel.Select()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestStickySelectionStable(t *testing.T) {
	t.Parallel()

	sel := NewSelector(testPool(3), nil)

	first, firstIdx, err := sel.Select()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		cred, idx, err := sel.Select()
		require.NoError(t, err)
		assert.Equal(t, firstIdx, idx, "selection %d rotated without a failure", i)
		assert.Equal(t, first.Key, cred.Key)
	}
}

func TestFailureRotatesPastCursor(t *testing.T) {
	t.Parallel()

	sel := NewSelector(testPool(3), nil)

	_, idx, err := sel.Select()
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	sel.RecordFailure(0)

	_, idx, err = sel.Select()
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "selection after failure should start past the failed credential")

	sel.RecordFailure(1)

	_, idx, err = sel.Select()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestFullPoolSelfHeal(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 5, 8} {
		n := n
		t.Run(fmt.Sprintf("pool_size_%d", n), func(t *testing.T) {
			t.Parallel()

			sel := NewSelector(testPool(n), nil)

			// Fail every distinct credential once.
			for i := 0; i < n; i++ {
				_, idx, err := sel.Select()
				require.NoError(t, err)
				sel.RecordFailure(idx)
			}

			// The next selection must clear all health state and return
			// credential 0.
			_, idx, err := sel.Select()
			require.NoError(t, err)
			assert.Equal(t, 0, idx)

			snap := sel.Snapshot()
			assert.Equal(t, 0, snap.StickyIndex)
			assert.Equal(t, 0, snap.Cursor)
			for _, status := range snap.Credentials {
				assert.True(t, status.Healthy, "credential %d still unhealthy after reset", status.Index)
			}
		})
	}
}

func TestCooldownBoundary(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	sel := NewSelector(testPool(2), nil)
	sel.now = func() time.Time { return clock }

	_, idx, err := sel.Select()
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	sel.RecordFailure(0)

	// Just under the window (elapsed == cooldown is not strictly older):
	// the record must survive the sweep.
	clock = base.Add(CooldownWindow)
	_, idx, err = sel.Select()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	snap := sel.Snapshot()
	assert.False(t, snap.Credentials[0].Healthy, "record cleared at exactly the cooldown boundary")

	// Just over the window: the record must be gone.
	clock = base.Add(CooldownWindow + time.Nanosecond)
	snap = sel.Snapshot()
	assert.True(t, snap.Credentials[0].Healthy, "record survived past the cooldown window")

	// Recovery does not steal stickiness from the working credential.
	_, idx, err = sel.Select()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestConsecutiveErrorsAccumulate(t *testing.T) {
	t.Parallel()

	sel := NewSelector(testPool(2), nil)

	sel.RecordFailure(0)
	sel.RecordFailure(0)
	sel.RecordFailure(0)

	snap := sel.Snapshot()
	assert.Equal(t, 3, snap.Credentials[0].ConsecutiveErrors)
	assert.False(t, snap.Credentials[0].Healthy)
	assert.True(t, snap.Credentials[1].Healthy)
}

func TestRecordFailureIgnoresBadIndex(t *testing.T) {
	t.Parallel()

	sel := NewSelector(testPool(2), nil)
	sel.RecordFailure(-1)
	sel.RecordFailure(99)

	snap := sel.Snapshot()
	for _, status := range snap.Credentials {
		assert.True(t, status.Healthy)
	}
}

func TestSnapshotMasksKeys(t *testing.T) {
	t.Parallel()

	sel := NewSelector(NewPool("sk-live-secret-value-123456"), nil)

	snap := sel.Snapshot()
	require.Len(t, snap.Credentials, 1)
	assert.NotContains(t, snap.Credentials[0].Key, "secret-value")
	assert.True(t, strings.Contains(snap.Credentials[0].Key, "..."))
}

func TestSnapshotReportsCooldownRemaining(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	sel := NewSelector(testPool(1), nil)
	sel.now = func() time.Time { return clock }

	sel.RecordFailure(0)
	clock = base.Add(2 * time.Minute)

	snap := sel.Snapshot()
	require.False(t, snap.Credentials[0].Healthy)
	assert.Equal(t, 180, snap.Credentials[0].CooldownSeconds)
}
