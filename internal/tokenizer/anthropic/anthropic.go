// Package anthropic counts tokens for Claude models. The default path is
// a local rune-ratio estimator; when an API key is configured the official
// count-tokens endpoint is consulted first, with result caching, a
// fixed-window rate limit, and fallback to the estimator on any failure.
package anthropic

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/everstacklabs/tokengate/internal/registry"
	"github.com/everstacklabs/tokengate/internal/tokenizer"
)

// estimatorCharsPerToken is the approximate rune-to-token ratio of the
// Claude tokenizer for English text.
const estimatorCharsPerToken = 4.0

// Anthropic is the Claude family counter.
type Anthropic struct {
	mu     sync.RWMutex
	remote *remoteCounter
}

func init() {
	tokenizer.Register(&Anthropic{})
}

// Family returns the provider family name.
func (a *Anthropic) Family() string { return "anthropic" }

// Configure enables or disables the remote counting path. An empty API key
// disables it. rpm bounds requests per fixed one-minute window; timeout
// bounds each API call.
func (a *Anthropic) Configure(apiKey, baseURL string, rpm int, timeout time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if strings.TrimSpace(apiKey) == "" {
		a.remote = nil
		return
	}
	a.remote = newRemoteCounter(apiKey, baseURL, rpm, timeout)
}

// Count returns the token count for text under a Claude model. The remote
// path is best-effort: any API error, rate-limit rejection, or timeout
// falls back to the local estimate. Count itself never fails.
func (a *Anthropic) Count(ctx context.Context, text string, model *registry.ModelConfig) (int, error) {
	a.mu.RLock()
	remote := a.remote
	a.mu.RUnlock()

	if remote != nil {
		n, err := remote.Count(ctx, text, model.Name)
		if err == nil {
			return n, nil
		}
		slog.Warn("remote token count failed, using local estimate",
			"model", model.Name, "error", err)
	}
	return estimate(text), nil
}

// estimate applies the ~4 characters per token ratio, counting runes
// rather than bytes, rounded to nearest.
func estimate(text string) int {
	runes := utf8.RuneCountInString(text)
	return int(float64(runes)/estimatorCharsPerToken + 0.5)
}
