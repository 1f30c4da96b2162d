// Package tokens counts and truncates text in cl100k_base tokens.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encoding = "cl100k_base"

// runesPerToken approximates token counts when the BPE ranks cannot be loaded.
const runesPerToken = 4

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func tokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encoding)
		if err == nil {
			tk = enc
		}
	})
	return tk
}

func Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := tokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + runesPerToken - 1) / runesPerToken
}

// Truncate returns the longest prefix of text that fits in maxTokens.
// maxTokens <= 0 disables truncation.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}

	if enc := tokenizer(); enc != nil {
		ids := enc.Encode(text, nil, nil)
		if len(ids) <= maxTokens {
			return text
		}
		return enc.Decode(ids[:maxTokens])
	}

	runes := []rune(text)
	limit := maxTokens * runesPerToken
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
