// Package openai counts tokens for BPE-encoded model families via
// tiktoken. It also serves as the fallback family for providers without a
// dedicated counter.
package openai

import (
	"context"
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/everstacklabs/tokengate/internal/registry"
	"github.com/everstacklabs/tokengate/internal/tokenizer"
)

// BaselineEncoding is used when a model config carries no encoding
// selector.
const BaselineEncoding = "o200k_base"

// BPE is the byte-pair-encoding counter.
type BPE struct{}

func init() {
	tokenizer.Register(&BPE{})
}

// Family returns the provider family name.
func (b *BPE) Family() string { return "openai" }

// Count encodes text with the model's encoding and returns the token
// count. Encoder construction and encode failures — including panics from
// the encoder — surface as errors so the dispatcher can approximate.
func (b *BPE) Count(ctx context.Context, text string, model *registry.ModelConfig) (n int, err error) {
	encoding := encodingFor(model)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encoding with %q: panic: %v", encoding, r)
		}
	}()

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return 0, fmt.Errorf("constructing encoder %q: %w", encoding, err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func encodingFor(model *registry.ModelConfig) string {
	if model != nil && model.Encoding != "" {
		return model.Encoding
	}
	return BaselineEncoding
}
