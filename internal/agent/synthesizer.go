// README: Response synthesizer; second LLM pass over structured results.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"andino/internal/ai"
)

// Synthesizer turns an expert's structured draft into natural Spanish using
// the expert-supplied prompt hint. Any failure keeps the deterministic draft
// so the turn always has a reply.
type Synthesizer struct {
	provider ai.LLMProvider
	logger   *zap.Logger
}

func NewSynthesizer(provider ai.LLMProvider, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{provider: provider, logger: logger}
}

func (s *Synthesizer) Compose(ctx context.Context, turn *TurnContext, resp *Response) string {
	if s.provider == nil || resp.PromptHint == "" {
		return resp.Message
	}

	prompt := s.buildPrompt(turn, resp)
	text, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("synthesis degraded to draft", zap.Error(err))
		return resp.Message
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return resp.Message
	}
	return text
}

func (s *Synthesizer) buildPrompt(turn *TurnContext, resp *Response) string {
	var b strings.Builder
	b.WriteString(`Role: You are "Andino", a warm Spanish-speaking travel assistant for Colombian towns.

Rewrite the draft reply below into natural conversational Spanish (Colombian register, "tú"). Keep every fact from the structured results; invent nothing. Maximum 4 sentences. No markdown.

`)
	fmt.Fprintf(&b, "Instruction from the handler: %s\n\n", resp.PromptHint)
	fmt.Fprintf(&b, "User message: %s\n", turn.Message)
	fmt.Fprintf(&b, "Draft reply: %s\n", resp.Message)

	if len(resp.Cards) > 0 {
		if raw, err := json.Marshal(resp.Cards); err == nil {
			fmt.Fprintf(&b, "Structured results: %s\n", raw)
		}
	}
	if len(resp.FollowUpQuestions) > 0 {
		fmt.Fprintf(&b, "End by asking: %s\n", resp.FollowUpQuestions[0])
	}
	return b.String()
}
