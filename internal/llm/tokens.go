package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingMu    sync.Mutex
	encodingCache = map[string]*tiktoken.Tiktoken{}
)

// EstimateTokens approximates the token count of text for the given model.
// Used only when a provider response omits usage numbers; falls back to a
// bytes/4 heuristic when no encoding is available (e.g. offline test runs).
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := encodingFor(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

func encodingFor(model string) *tiktoken.Tiktoken {
	encodingMu.Lock()
	defer encodingMu.Unlock()
	if enc, ok := encodingCache[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			encodingCache[model] = nil
			return nil
		}
	}
	encodingCache[model] = enc
	return enc
}
