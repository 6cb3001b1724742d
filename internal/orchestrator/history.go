package orchestrator

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/vea-app/vea/internal/types"
	"github.com/vea-app/vea/pkg/llm"
)

// HistoryBudget assembles token-budgeted prompts from session history.
type HistoryBudget struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// NewHistoryBudget creates a budget for the given model's tokenizer.
// maxTokens is the model's context window; reserve is held back for the
// response.
func NewHistoryBudget(model string, maxTokens, reserve int) (*HistoryBudget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	if maxTokens <= 0 {
		maxTokens = 128000
	}
	if reserve <= 0 {
		reserve = 4096
	}
	return &HistoryBudget{tokenizer: enc, maxTokens: maxTokens, reserve: reserve}, nil
}

func (b *HistoryBudget) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Build assembles the message list for a completion: the system prompt
// followed by as much recent history as fits the input budget. History is
// dropped oldest-first; in-flight media placeholders are summarized rather
// than sent verbatim.
func (b *HistoryBudget) Build(system string, history []*types.Message) []llm.Message {
	remaining := b.maxTokens - b.reserve - b.countTokens(system)

	var recent []llm.Message
	for i := len(history) - 1; i >= 0; i-- {
		m := historyMessage(history[i])
		cost := b.countTokens(m.Content)
		if cost > remaining {
			break
		}
		remaining -= cost
		recent = append(recent, m)
	}

	out := make([]llm.Message, 0, len(recent)+1)
	out = append(out, llm.Message{Role: "system", Content: system})
	for i := len(recent) - 1; i >= 0; i-- {
		out = append(out, recent[i])
	}
	return out
}

// historyMessage converts a stored message for the completion request. Media
// messages carry a short textual stand-in so the model knows what happened
// without seeing placeholder content or task ids.
func historyMessage(m *types.Message) llm.Message {
	content := m.Content
	switch {
	case m.MediaType != "" && m.IsGenerating:
		content = fmt.Sprintf("[%s generation in progress]", m.MediaType)
	case m.MediaType != "" && m.MediaURL != "":
		content = fmt.Sprintf("[generated %s: %s]", m.MediaType, m.MediaURL)
	}
	return llm.Message{Role: string(m.Role), Content: content}
}
