package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/everstacklabs/tokengate/internal/registry"
)

func TestEstimate(t *testing.T) {
	cases := map[string]int{
		"":           0,
		"ab":         1, // 0.5 rounds up
		"a":          0, // 0.25 rounds down
		"abcd":       1,
		"abcdefghij": 3, // 2.5 rounds up
		"日本語の文章八字":   2, // 8 runes, not bytes
	}
	for in, want := range cases {
		if got := estimate(in); got != want {
			t.Errorf("estimate(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestCount_WithoutRemoteUsesEstimate(t *testing.T) {
	a := &Anthropic{}
	m := &registry.ModelConfig{Name: "claude-sonnet-4-5", Provider: "anthropic"}

	got, err := a.Count(context.Background(), "abcdefgh", m)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestConfigure_EmptyKeyDisablesRemote(t *testing.T) {
	a := &Anthropic{}

	a.Configure("sk-test", "", 40, 10*time.Second)
	if a.remote == nil {
		t.Fatal("expected remote counter after configuring a key")
	}

	a.Configure("   ", "", 40, 10*time.Second)
	if a.remote != nil {
		t.Error("blank key must disable the remote path")
	}
}

func TestRPMWindow(t *testing.T) {
	w := newRPMWindow(2)
	clock := time.Now()
	w.now = func() time.Time { return clock }

	if !w.Allow() || !w.Allow() {
		t.Fatal("first two requests must fit the window")
	}
	if w.Allow() {
		t.Error("third request exceeded the window limit")
	}

	// A new window resets the counter entirely.
	clock = clock.Add(time.Minute)
	if !w.Allow() {
		t.Error("request rejected after window reset")
	}
}
