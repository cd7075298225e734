package pricing

import (
	"context"
	"fmt"

	"github.com/everstacklabs/tokengate/internal/httpclient"
)

// Fetch retrieves a fresh pricing table from a remote feed. The feed uses
// the same document shape as the embedded snapshot.
func Fetch(ctx context.Context, client *httpclient.Client, url string) (*Table, error) {
	body, err := client.Get(ctx, url, map[string]string{"Accept": "application/yaml"})
	if err != nil {
		return nil, fmt.Errorf("fetching pricing feed: %w", err)
	}
	return parse(body)
}
