package keys

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"sitesmith/internal/metrics"
)

// CooldownWindow is how long a failed credential stays out of rotation
// before it is presumed recovered.
const CooldownWindow = 5 * time.Minute

// credentialHealth exists only while a credential is considered unhealthy.
// Absence of a record means healthy.
type credentialHealth struct {
	failedAt          time.Time
	consecutiveErrors int
}

// Selector picks which credential to use for the next provider attempt.
// Selection prefers the current sticky credential while it stays healthy,
// which keeps a whole multi-step generation on one key (providers rate-limit
// per key per minute, so churn is expensive). Failed credentials rotate out
// via a round-robin cursor until their cooldown passes; when the entire pool
// is unhealthy all health state is cleared and selection restarts from the
// first credential rather than failing the caller.
//
// One Selector instance serves the process. The mutex exists so the status
// endpoint can snapshot health while a generation run mutates it; pipeline
// runs themselves are sequential.
type Selector struct {
	pool *Pool
	log  *zap.Logger

	mu     sync.Mutex
	sticky int
	cursor int
	health map[int]*credentialHealth

	now func() time.Time
}

// NewSelector creates a selector over pool. A nil logger is replaced with a
// no-op logger.
func NewSelector(pool *Pool, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Get().SetKeyPoolSize(pool.Count())
	return &Selector{
		pool:   pool,
		log:    log,
		health: make(map[int]*credentialHealth),
		now:    time.Now,
	}
}

// Select returns the credential to use for the next attempt along with its
// pool index. It returns ErrNoCredentials when the pool is empty.
func (s *Selector) Select() (Credential, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.pool.Count()
	if n == 0 {
		return Credential{}, -1, ErrNoCredentials
	}

	s.sweepExpired()

	if _, unhealthy := s.health[s.sticky]; !unhealthy {
		return s.pool.At(s.sticky), s.sticky, nil
	}

	// Sticky credential is cooling down. Scan forward from the cursor,
	// wrapping the pool exactly once; the first healthy credential becomes
	// the new sticky one.
	for step := 0; step < n; step++ {
		i := (s.cursor + step) % n
		if _, unhealthy := s.health[i]; unhealthy {
			continue
		}
		s.sticky = i
		s.cursor = (i + 1) % n
		s.log.Info("rotated to healthy credential",
			zap.Int("index", i),
			zap.Int("slot", s.pool.At(i).Slot),
			zap.String("key", Mask(s.pool.At(i).Key)))
		metrics.Get().RecordKeyRotation(s.pool.At(i).Slot)
		return s.pool.At(i), i, nil
	}

	// Whole pool unhealthy. Give every credential another chance instead of
	// failing the caller.
	s.health = make(map[int]*credentialHealth)
	s.sticky = 0
	s.cursor = 0
	s.log.Warn("all credentials unhealthy, resetting pool health",
		zap.Int("pool_size", n))
	metrics.Get().RecordKeyPoolReset()
	return s.pool.At(0), 0, nil
}

// RecordFailure marks one failed attempt against the credential at pool
// index i and moves the round-robin cursor past it so the next selection
// does not immediately retry it.
func (s *Selector) RecordFailure(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.pool.Count()
	if n == 0 || i < 0 || i >= n {
		return
	}

	h := s.health[i]
	if h == nil {
		h = &credentialHealth{}
		s.health[i] = h
	}
	h.consecutiveErrors++
	h.failedAt = s.now()
	s.cursor = (i + 1) % n

	s.log.Warn("credential failed",
		zap.Int("index", i),
		zap.Int("slot", s.pool.At(i).Slot),
		zap.Int("consecutive_errors", h.consecutiveErrors))
	metrics.Get().RecordKeyFailure(s.pool.At(i).Slot)
}

// sweepExpired drops health records whose failure is strictly older than the
// cooldown window. Caller must hold mu.
func (s *Selector) sweepExpired() {
	now := s.now()
	for i, h := range s.health {
		if now.Sub(h.failedAt) > CooldownWindow {
			delete(s.health, i)
		}
	}
}

// CredentialStatus describes one credential for status payloads. The key
// never leaves the package unmasked.
type CredentialStatus struct {
	Index             int    `json:"index"`
	Slot              int    `json:"slot"`
	Key               string `json:"key"` // masked
	Healthy           bool   `json:"healthy"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	CooldownSeconds   int    `json:"cooldown_seconds,omitempty"`
}

// Snapshot is a point-in-time view of the selector for the status endpoint.
type Snapshot struct {
	PoolSize    int                `json:"pool_size"`
	StickyIndex int                `json:"sticky_index"`
	Cursor      int                `json:"round_robin_cursor"`
	Credentials []CredentialStatus `json:"credentials"`
}

// Snapshot reports pool size, rotation state, and per-credential health.
func (s *Selector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepExpired()

	now := s.now()
	snap := Snapshot{
		PoolSize:    s.pool.Count(),
		StickyIndex: s.sticky,
		Cursor:      s.cursor,
	}
	for i := 0; i < s.pool.Count(); i++ {
		cred := s.pool.At(i)
		status := CredentialStatus{
			Index:   i,
			Slot:    cred.Slot,
			Key:     Mask(cred.Key),
			Healthy: true,
		}
		if h, ok := s.health[i]; ok {
			status.Healthy = false
			status.ConsecutiveErrors = h.consecutiveErrors
			if remaining := CooldownWindow - now.Sub(h.failedAt); remaining > 0 {
				status.CooldownSeconds = int(remaining.Seconds())
			}
		}
		snap.Credentials = append(snap.Credentials, status)
	}
	return snap
}
