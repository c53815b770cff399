// Package tokenizer provides deterministic token counting for the chat
// budget path (pkg/agent, pkg/session), using the same cl100k_base
// encoding as the OpenAI-compatible models pkg/llmclient talks to. Grounded
// on the teacher pack's token-counting contract
// (cklxx-elephant.ai/internal/shared/token): a package-level encoder,
// lazily initialized once, with a Count function that must never fall
// back to a byte/rune approximation in the chat-budget path.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once     sync.Once
	encoding *tiktoken.Tiktoken
	initErr  error
)

func encoder() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		encoding, initErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoding, initErr
}

// Count returns the number of cl100k_base tokens in text. Panics if the
// encoding failed to load — a misconfigured encoding data path is a
// startup-time defect, not a per-request one.
func Count(text string) int {
	enc, err := encoder()
	if err != nil {
		panic(fmt.Sprintf("tokenizer: loading cl100k_base encoding: %v", err))
	}
	if text == "" {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// CountAll sums Count across multiple strings, for tallying a message
// history's total token footprint.
func CountAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += Count(t)
	}
	return total
}

// TruncateToTokens trims text to at most maxTokens tokens, cutting on a
// token boundary rather than a byte boundary.
func TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	enc, err := encoder()
	if err != nil {
		panic(fmt.Sprintf("tokenizer: loading cl100k_base encoding: %v", err))
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
