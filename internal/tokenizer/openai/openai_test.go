package openai

import (
	"context"
	"testing"

	"github.com/everstacklabs/tokengate/internal/registry"
)

func TestEncodingFor(t *testing.T) {
	if got := encodingFor(nil); got != BaselineEncoding {
		t.Errorf("nil model: expected %s, got %s", BaselineEncoding, got)
	}
	if got := encodingFor(&registry.ModelConfig{Name: "gpt-4o"}); got != BaselineEncoding {
		t.Errorf("empty encoding: expected %s, got %s", BaselineEncoding, got)
	}
	m := &registry.ModelConfig{Name: "gpt-4", Encoding: "cl100k_base"}
	if got := encodingFor(m); got != "cl100k_base" {
		t.Errorf("expected cl100k_base, got %s", got)
	}
}

func TestCount_UnknownEncodingIsError(t *testing.T) {
	b := &BPE{}
	m := &registry.ModelConfig{Name: "gpt-4o", Encoding: "no_such_encoding"}

	_, err := b.Count(context.Background(), "some text", m)
	if err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}
