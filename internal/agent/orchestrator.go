// README: Conversation orchestrator; sequences one chat turn end to end.
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"andino/internal/modules/conversation"
	"andino/internal/modules/trip"
)

// Conversations is the persistence surface of one turn. conversation.Service
// satisfies it.
type Conversations interface {
	LoadOrCreate(ctx context.Context, conversationID, sessionID string, userRef *string) (*conversation.Conversation, error)
	SaveState(ctx context.Context, c *conversation.Conversation, updates *trip.State) error
	AppendMessage(ctx context.Context, m *conversation.Message) error
	History(ctx context.Context, convID string) ([]conversation.Message, error)
	CreateLead(ctx context.Context, c *conversation.Conversation, et trip.EntityType, entityID, notes string) (*conversation.Lead, error)
}

// ChatRequest is one inbound user turn.
type ChatRequest struct {
	Message        string
	ConversationID string
	SessionID      string
	UserRef        *string
}

// ChatResponse is the envelope returned to the client.
type ChatResponse struct {
	Message              string      `json:"message"`
	Intent               string      `json:"intent"`
	Cards                []Card      `json:"cards"`
	FollowUpQuestions    []string    `json:"follow_up_questions"`
	RequiresMoreInfo     bool        `json:"requires_more_info"`
	ConversationComplete bool        `json:"conversation_complete"`
	ContextUpdate        *trip.State `json:"context_update"`
	ConversationID       string      `json:"conversation_id"`
	SuggestedActions     []string    `json:"suggested_actions"`
}

// Orchestrator runs the per-turn sequence: load, history, persist inbound,
// classify, merge, route, handle, merge, persist outbound, respond. It is
// entirely request-scoped; two concurrent turns on one conversation contend
// on the optimistic state version.
type Orchestrator struct {
	convs      Conversations
	classifier *Classifier
	router     *Router
	synth      *Synthesizer
	logger     *zap.Logger
}

func NewOrchestrator(convs Conversations, classifier *Classifier, router *Router, synth *Synthesizer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		convs:      convs,
		classifier: classifier,
		router:     router,
		synth:      synth,
		logger:     logger,
	}
}

// Chat processes one turn. Classification and tool failures degrade inside
// the turn; persistence failures propagate because a turn without a durable
// record breaks continuity.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	conv, err := o.convs.LoadOrCreate(ctx, req.ConversationID, req.SessionID, req.UserRef)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	history, err := o.convs.History(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	result := o.classifier.Classify(ctx, req.Message, conv.State, history)

	intentStr := string(result.Intent)
	userMsg := &conversation.Message{
		ConvID:     conv.ID,
		Role:       conversation.RoleUser,
		Content:    req.Message,
		Intent:     &intentStr,
		Confidence: &result.Confidence,
	}
	if updates, uerr := result.Extracted.StateUpdates(); uerr == nil {
		userMsg.Extracted = updates
	}
	if err := o.convs.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	// Extracted facts are merged and persisted before the expert runs, so
	// they survive even if a later step fails.
	if userMsg.Extracted != nil {
		if err := o.convs.SaveState(ctx, conv, userMsg.Extracted); err != nil {
			if !errors.Is(err, trip.ErrInvalidState) {
				return nil, fmt.Errorf("persist state: %w", err)
			}
			o.logger.Warn("discarding invalid extraction", zap.Error(err))
		}
	}

	expert, intent := o.router.Route(result.Intent)
	turn := &TurnContext{
		Conversation:   conv,
		State:          conv.State,
		Message:        req.Message,
		Intent:         intent,
		Classification: result,
		History:        history,
	}

	resp, err := expert.Handle(ctx, turn)
	if err != nil {
		o.logger.Error("expert failed",
			zap.String("expert", expert.Name()),
			zap.String("intent", string(intent)),
			zap.Error(err))
		resp = &Response{
			Message:           "Lo siento, algo salió mal procesando tu solicitud.",
			FollowUpQuestions: []string{"¿Lo intentamos de nuevo con otras palabras?"},
			RequiresMoreInfo:  true,
		}
	}

	if resp.StateUpdates != nil {
		if err := o.convs.SaveState(ctx, conv, resp.StateUpdates); err != nil {
			return nil, fmt.Errorf("persist expert state: %w", err)
		}
	}

	finalMessage := o.synth.Compose(ctx, turn, resp)

	assistantMsg := &conversation.Message{
		ConvID:     conv.ID,
		Role:       conversation.RoleAssistant,
		Content:    finalMessage,
		Intent:     &intentStr,
		Confidence: &result.Confidence,
	}
	if resp.ToolUsed != "" {
		assistantMsg.ToolUsed = &resp.ToolUsed
	}
	if err := o.convs.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	return &ChatResponse{
		Message:              finalMessage,
		Intent:               string(result.Intent),
		Cards:                resp.Cards,
		FollowUpQuestions:    resp.FollowUpQuestions,
		RequiresMoreInfo:     resp.RequiresMoreInfo,
		ConversationComplete: resp.ConversationComplete,
		ContextUpdate:        conv.State,
		ConversationID:       conv.ID,
		SuggestedActions:     resp.SuggestedActions,
	}, nil
}
