package anthropic

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/everstacklabs/tokengate/internal/cache"
)

const (
	defaultRPM     = 40
	defaultTimeout = 10 * time.Second
	cacheSize      = 256
	cacheTTL       = 24 * time.Hour
)

var errRateLimited = errors.New("request budget for the current window is exhausted")

// remoteCounter calls the Anthropic count-tokens endpoint with per-
// (text,model) caching and a requests-per-minute limit.
type remoteCounter struct {
	client  sdk.Client
	cache   *cache.CountCache
	window  *rpmWindow
	timeout time.Duration
}

func newRemoteCounter(apiKey, baseURL string, rpm int, timeout time.Duration) *remoteCounter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if rpm <= 0 {
		rpm = defaultRPM
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &remoteCounter{
		client:  sdk.NewClient(opts...),
		cache:   cache.NewCountCache(cacheSize, cacheTTL),
		window:  newRPMWindow(rpm),
		timeout: timeout,
	}
}

func (r *remoteCounter) Count(ctx context.Context, text, model string) (int, error) {
	key := cache.Key(model, text)
	if n, ok := r.cache.Get(key); ok {
		return n, nil
	}
	if !r.window.Allow() {
		return 0, errRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.client.Messages.CountTokens(ctx, sdk.MessageCountTokensParams{
		Model: sdk.Model(model),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(text)),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}

	n := int(res.InputTokens)
	r.cache.Set(key, n)
	return n, nil
}
