// Package keys loads the provider credential pool and decides which
// credential each provider call should use.
package keys

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MaxNumberedSlots is how many numbered credential env slots are scanned.
const MaxNumberedSlots = 20

const slotPrefix = "GEMINI_API_KEY"

// ErrNoCredentials is returned when a credential is requested from an empty
// pool. Retrying cannot help, so callers must not retry on it.
var ErrNoCredentials = errors.New("no API credentials configured")

// Credential is one provider API key plus the env slot it was loaded from.
// Credentials are immutable after load and owned by the pool; everything
// else references them by pool index.
type Credential struct {
	Key  string
	Slot int // 1..20 for numbered slots, 0 for the unnumbered fallback
}

// Pool holds the configured credentials in priority order.
type Pool struct {
	creds []Credential
}

// Aliases accepted for the unnumbered fallback slot.
var fallbackEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "GOOGLE_GEMINI_API_KEY"}

// LoadFromEnv collects credentials from GEMINI_API_KEY_1..GEMINI_API_KEY_20
// in ascending slot order (gaps allowed). When no numbered slot is populated
// it falls back to the single unnumbered GEMINI_API_KEY or an accepted
// alias. An empty pool is valid at load time; the first selection fails
// instead.
func LoadFromEnv() *Pool {
	var creds []Credential
	for slot := 1; slot <= MaxNumberedSlots; slot++ {
		key := normalizeKey(os.Getenv(fmt.Sprintf("%s_%d", slotPrefix, slot)))
		if key == "" {
			continue
		}
		creds = append(creds, Credential{Key: key, Slot: slot})
	}
	if len(creds) == 0 {
		for _, name := range fallbackEnvVars {
			if key := normalizeKey(os.Getenv(name)); key != "" {
				creds = append(creds, Credential{Key: key, Slot: 0})
				break
			}
		}
	}
	return &Pool{creds: creds}
}

// NewPool builds a pool from explicit keys, in order. Keys that are empty
// after hygiene are skipped.
func NewPool(rawKeys ...string) *Pool {
	var creds []Credential
	for i, raw := range rawKeys {
		key := normalizeKey(raw)
		if key == "" {
			continue
		}
		creds = append(creds, Credential{Key: key, Slot: i + 1})
	}
	return &Pool{creds: creds}
}

// Count returns the number of configured credentials.
func (p *Pool) Count() int {
	return len(p.creds)
}

// At returns the credential at pool index i. i must be in [0, Count()).
func (p *Pool) At(i int) Credential {
	return p.creds[i]
}

// normalizeKey strips formatting noise that commonly appears in env-var values.
func normalizeKey(raw string) string {
	key := strings.TrimSpace(raw)
	if key == "" {
		return ""
	}

	key = strings.Trim(key, `"'`)
	key = strings.TrimSpace(key)
	if len(key) >= len("bearer ") && strings.EqualFold(key[:len("bearer ")], "bearer ") {
		key = strings.TrimSpace(key[len("bearer "):])
	}

	// Strip both literal escapes and actual control characters.
	key = strings.ReplaceAll(key, `\r`, "")
	key = strings.ReplaceAll(key, `\n`, "")
	key = strings.ReplaceAll(key, "\r", "")
	key = strings.ReplaceAll(key, "\n", "")
	key = strings.ReplaceAll(key, "\t", "")

	// Keep only visible ASCII bytes so the key is safe in a query string.
	filtered := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		b := key[i]
		if b >= 33 && b <= 126 {
			filtered = append(filtered, b)
		}
	}

	return strings.TrimSpace(string(filtered))
}

// Mask returns a redacted form of a key safe for logs and status payloads.
func Mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-2:]
}
