// README: Conversation expert; small talk, destination questions, fallback.
package agent

import (
	"context"
	"strings"
)

// interrogativeMarkers trigger the RAG lookup on general questions.
var interrogativeMarkers = []string{
	"?", "¿", "qué", "que es", "cómo", "como llego", "dónde", "donde",
	"cuál", "cual", "cuándo", "cuando", "cuánto", "cuanto",
}

type ConversationExpert struct {
	tools *Tools
}

func NewConversationExpert(tools *Tools) *ConversationExpert {
	return &ConversationExpert{tools: tools}
}

func (e *ConversationExpert) Name() string { return "conversation" }

func (e *ConversationExpert) Description() string {
	return "handles greetings, farewells, general questions and anything unclassified"
}

func (e *ConversationExpert) CanHandle(intent Intent) bool {
	switch intent {
	case IntentGreeting, IntentFarewell, IntentGeneralQuestion, IntentProvideInfo, IntentUnknown:
		return true
	}
	return false
}

func (e *ConversationExpert) Handle(ctx context.Context, turn *TurnContext) (*Response, error) {
	switch turn.Intent {
	case IntentGreeting:
		return &Response{
			Message: "¡Hola! Soy Andino, tu asistente de viajes por los pueblos de Colombia. ¿A dónde te gustaría ir?",
			FollowUpQuestions: []string{
				"¿Qué destino tienes en mente?",
				"¿Cuántas personas viajan y en qué fechas?",
			},
			PromptHint: "Greet warmly in Spanish and ask about the destination.",
		}, nil

	case IntentFarewell:
		return &Response{
			Message:              "¡Buen viaje! Aquí estaré cuando quieras seguir planeando.",
			ConversationComplete: true,
			PromptHint:           "Say a warm goodbye in Spanish, one sentence.",
		}, nil

	case IntentProvideInfo:
		return e.acknowledge(turn), nil
	}

	// general_question / unknown: try the knowledge base when the message
	// looks like a question or names a known destination.
	if e.shouldLookup(turn) {
		result, err := e.tools.Execute(ctx, ToolRAGSearch, turn)
		if err == nil && len(result.Cards) > 0 {
			return &Response{
				Message:    "Esto es lo que sé al respecto.",
				Cards:      result.Cards,
				PromptHint: "Answer the question in Spanish using only the attached cards; keep it short.",
				ToolUsed:   ToolRAGSearch,
			}, nil
		}
	}

	return &Response{
		Message: "No estoy seguro de haberte entendido.",
		FollowUpQuestions: []string{
			"¿Quieres buscar alojamiento, restaurantes o experiencias?",
			"También puedo armar un itinerario o calcular tu presupuesto.",
		},
		RequiresMoreInfo: true,
		PromptHint:       "Apologize briefly in Spanish and offer the things you can do.",
	}, nil
}

func (e *ConversationExpert) shouldLookup(turn *TurnContext) bool {
	msg := strings.ToLower(turn.Message)
	for _, marker := range interrogativeMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	if turn.State != nil && turn.State.Destination != nil {
		if strings.Contains(msg, strings.ToLower(*turn.State.Destination)) {
			return true
		}
	}
	return false
}

// acknowledge registers newly provided facts and asks for the most useful
// missing one.
func (e *ConversationExpert) acknowledge(turn *TurnContext) *Response {
	resp := &Response{
		Message:    "Anotado, gracias.",
		PromptHint: "Acknowledge the new trip details in Spanish and ask the follow-up question.",
	}
	state := turn.State
	switch {
	case state == nil || state.Destination == nil:
		resp.FollowUpQuestions = []string{"¿A qué pueblo te gustaría viajar?"}
		resp.RequiresMoreInfo = true
	case state.DayCount() == 0:
		resp.FollowUpQuestions = []string{"¿Cuántos días planeas quedarte?"}
		resp.RequiresMoreInfo = true
	case state.PartySize == nil:
		resp.FollowUpQuestions = []string{"¿Cuántas personas viajan?"}
		resp.RequiresMoreInfo = true
	default:
		resp.FollowUpQuestions = []string{"¿Buscamos alojamiento o armo el itinerario?"}
		resp.SuggestedActions = []string{"search_lodging", "plan_itinerary"}
	}
	return resp
}
