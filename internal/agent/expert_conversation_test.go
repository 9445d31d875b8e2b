package agent

import (
	"context"
	"testing"

	"andino/internal/modules/rag"
	"andino/internal/modules/trip"
)

func TestConversationGreetingAndFarewell(t *testing.T) {
	e := NewConversationExpert(newTestTools(nil, nil))

	resp, err := e.Handle(context.Background(), &TurnContext{Intent: IntentGreeting, Message: "hola"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ConversationComplete {
		t.Error("greeting must not close the conversation")
	}
	if len(resp.FollowUpQuestions) == 0 {
		t.Error("greeting should ask about the trip")
	}

	resp, err = e.Handle(context.Background(), &TurnContext{Intent: IntentFarewell, Message: "chao, gracias"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.ConversationComplete {
		t.Error("farewell should close the conversation")
	}
}

func TestConversationQuestionUsesKnowledge(t *testing.T) {
	knowledge := &fakeKnowledge{matches: []rag.Match{
		{Score: 0.9, Title: "Laguna de Guatavita", Content: "Sitio sagrado muisca."},
	}}
	e := NewConversationExpert(newTestTools(nil, knowledge))

	resp, err := e.Handle(context.Background(), &TurnContext{
		Intent:  IntentGeneralQuestion,
		Message: "¿qué es la laguna de Guatavita?",
		State:   &trip.State{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ToolUsed != ToolRAGSearch {
		t.Errorf("tool = %q, want rag_search", resp.ToolUsed)
	}
	if len(resp.Cards) != 1 || resp.Cards[0].Title != "Laguna de Guatavita" {
		t.Errorf("cards = %+v", resp.Cards)
	}
}

func TestConversationQuestionWithoutAnswerFallsBack(t *testing.T) {
	e := NewConversationExpert(newTestTools(nil, &fakeKnowledge{}))

	resp, err := e.Handle(context.Background(), &TurnContext{
		Intent:  IntentGeneralQuestion,
		Message: "¿cuánto pesa una nube?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.RequiresMoreInfo {
		t.Error("unanswered question should offer the capability menu")
	}
	if len(resp.Cards) != 0 {
		t.Errorf("cards = %+v, want none", resp.Cards)
	}
}

func TestConversationUnknownWithoutQuestionSkipsLookup(t *testing.T) {
	knowledge := &fakeKnowledge{matches: []rag.Match{{Score: 0.9, Title: "x"}}}
	e := NewConversationExpert(newTestTools(nil, knowledge))

	resp, err := e.Handle(context.Background(), &TurnContext{
		Intent:  IntentUnknown,
		Message: "asdf qwerty",
	})
	if err != nil {
		t.Fatal(err)
	}
	if knowledge.lastNamespace != "" {
		t.Error("non-question gibberish should not hit the knowledge base")
	}
	if !resp.RequiresMoreInfo {
		t.Error("unknown intent should ask for clarification")
	}
}

func TestConversationAcknowledgeAsksForMissingFact(t *testing.T) {
	e := NewConversationExpert(newTestTools(nil, nil))

	tests := []struct {
		name  string
		state *trip.State
		want  string
	}{
		{"no destination", &trip.State{}, "¿A qué pueblo te gustaría viajar?"},
		{"no days", &trip.State{Destination: strPtr("Guatavita")}, "¿Cuántos días planeas quedarte?"},
		{
			"no party size",
			&trip.State{Destination: strPtr("Guatavita"), Days: intPtr(3)},
			"¿Cuántas personas viajan?",
		},
		{
			"all known",
			&trip.State{Destination: strPtr("Guatavita"), Days: intPtr(3), PartySize: intPtr(2)},
			"¿Buscamos alojamiento o armo el itinerario?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.Handle(context.Background(), &TurnContext{
				Intent:  IntentProvideInfo,
				Message: "somos dos",
				State:   tt.state,
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.FollowUpQuestions) == 0 || resp.FollowUpQuestions[0] != tt.want {
				t.Errorf("follow-up = %v, want %q", resp.FollowUpQuestions, tt.want)
			}
		})
	}
}
