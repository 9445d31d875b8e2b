// README: Intent classifier; LLM call behind a strict output schema.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"andino/internal/ai"
	"andino/internal/modules/conversation"
	"andino/internal/modules/trip"
)

// Classifier wraps the structured-output LLM call. It never returns an
// error: malformed or non-schema model output degrades to the sentinel
// {unknown, 0, reasoning} so a bad completion cannot abort a turn.
type Classifier struct {
	provider ai.LLMProvider
	logger   *zap.Logger
}

func NewClassifier(provider ai.LLMProvider, logger *zap.Logger) *Classifier {
	return &Classifier{provider: provider, logger: logger}
}

// classifierWire matches the JSON the model is asked to emit.
type classifierWire struct {
	Intent     string        `json:"intent"`
	Confidence float64       `json:"confidence"`
	Extracted  ExtractedData `json:"extracted_data"`
	Reasoning  string        `json:"reasoning"`
}

func (c *Classifier) Classify(ctx context.Context, message string, state *trip.State, history []conversation.Message) ClassificationResult {
	prompt := buildClassifierPrompt(message, state, history)

	raw, err := c.provider.CompleteJSON(ctx, prompt)
	if err != nil {
		return c.sentinel(fmt.Sprintf("llm call failed: %v", err))
	}

	var wire classifierWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return c.sentinel(fmt.Sprintf("unparseable model output: %v", err))
	}

	intent, ok := ParseIntent(wire.Intent)
	if !ok {
		return c.sentinel(fmt.Sprintf("intent %q outside taxonomy", wire.Intent))
	}
	if wire.Confidence < 0 || wire.Confidence > 1 {
		return c.sentinel(fmt.Sprintf("confidence %v outside [0,1]", wire.Confidence))
	}
	if _, err := wire.Extracted.StateUpdates(); err != nil {
		return c.sentinel(fmt.Sprintf("invalid extraction: %v", err))
	}

	return ClassificationResult{
		Intent:     intent,
		Confidence: wire.Confidence,
		Extracted:  wire.Extracted,
		Reasoning:  wire.Reasoning,
	}
}

func (c *Classifier) sentinel(reason string) ClassificationResult {
	c.logger.Warn("classification degraded", zap.String("reason", reason))
	return ClassificationResult{
		Intent:     IntentUnknown,
		Confidence: 0,
		Reasoning:  reason,
	}
}

// promptIntentOrder fixes the enumeration order in the prompt so runs are
// reproducible.
var promptIntentOrder = []Intent{
	IntentSearchLodging, IntentSearchRestaurant, IntentSearchExperience,
	IntentSearchPlace, IntentSearchGuide, IntentSearchTransport,
	IntentSearchCommerce, IntentSelectEntity, IntentPlanItinerary,
	IntentCalculateBudget, IntentCreateLead, IntentProvideInfo,
	IntentGreeting, IntentFarewell, IntentGeneralQuestion, IntentUnknown,
}

func buildClassifierPrompt(message string, state *trip.State, history []conversation.Message) string {
	var b strings.Builder

	b.WriteString(`Role: You are the intent classifier for "Andino", a Spanish-speaking assistant that helps travellers plan trips to Colombian towns.

Classify the user's LAST message into exactly one intent and extract any trip facts it contains.

INTENTS (use the label verbatim, lower-case):
`)
	for _, in := range promptIntentOrder {
		fmt.Fprintf(&b, "- %s: %s\n", in, intentDescriptions[in])
	}

	b.WriteString(`
RULES:
1. Users write Spanish; labels stay in English.
2. "la primera", "el segundo", "la opción 3" -> select_entity with "position" (1-based).
3. "el más barato", "el más caro", "el mejor valorado" over shown options -> select_entity (leave position null, the system resolves the superlative).
4. A name from the shown options -> select_entity with "entity_name".
5. Dates in extracted_data use YYYY-MM-DD. "un fin de semana" -> days: 2.
6. Never invent facts the message does not state; omit unknown fields entirely.
7. Extract contact data (phone/email) whenever present, regardless of intent.

`)

	b.WriteString("CURRENT TRIP STATE:\n")
	b.WriteString(renderState(state))
	b.WriteString("\n")

	if state != nil && state.LastResults != nil && len(state.LastResults.Items) > 0 {
		fmt.Fprintf(&b, "OPTIONS CURRENTLY SHOWN (%s):\n", state.LastResults.EntityType)
		for _, it := range state.LastResults.Items {
			fmt.Fprintf(&b, "%d. %s\n", it.Position, it.Name)
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Output JSON Schema:
{
  "intent": "one of the labels above",
  "confidence": 0.0-1.0,
  "extracted_data": {
    "destination": "string or omit",
    "party_size": integer or omit,
    "start_date": "YYYY-MM-DD or omit",
    "end_date": "YYYY-MM-DD or omit",
    "days": integer or omit,
    "budget_min": number or omit,
    "budget_max": number or omit,
    "currency": "ISO 4217 or omit",
    "style_tags": ["string"] or omit,
    "tags": ["string"] or omit,
    "entity_name": "string or omit",
    "position": integer or omit,
    "contact_phone": "string or omit",
    "contact_email": "string or omit",
    "goal": "string or omit"
  },
  "reasoning": "one short sentence"
}

User Message: `)
	b.WriteString(message)
	return b.String()
}

// renderState produces a compact view of the known trip facts for prompts.
func renderState(state *trip.State) string {
	if state == nil {
		return "(nothing known yet)"
	}
	var parts []string
	add := func(label string, v any) {
		parts = append(parts, fmt.Sprintf("%s=%v", label, v))
	}
	if state.Destination != nil {
		add("destination", *state.Destination)
	}
	if state.PartySize != nil {
		add("party_size", *state.PartySize)
	}
	if state.StartDate != nil {
		add("start_date", state.StartDate.Format(dateLayout))
	}
	if state.EndDate != nil {
		add("end_date", state.EndDate.Format(dateLayout))
	}
	if state.Days != nil {
		add("days", *state.Days)
	}
	if state.BudgetMin != nil {
		add("budget_min", *state.BudgetMin)
	}
	if state.BudgetMax != nil {
		add("budget_max", *state.BudgetMax)
	}
	if len(state.StyleTags) > 0 {
		add("styles", strings.Join(state.StyleTags, ","))
	}
	if state.CurrentGoal != nil {
		add("goal", *state.CurrentGoal)
	}
	if state.HasContact() {
		add("has_contact", true)
	}
	if state.HasSelection() {
		add("has_selection", true)
	}
	if len(parts) == 0 {
		return "(nothing known yet)"
	}
	return strings.Join(parts, ", ")
}
