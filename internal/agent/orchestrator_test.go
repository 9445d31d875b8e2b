package agent

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"andino/internal/modules/catalog"
	"andino/internal/modules/conversation"
	"andino/internal/modules/trip"
)

func newTestOrchestrator(provider *fakeProvider, convs Conversations, cat Catalog, leads LeadCreator) *Orchestrator {
	logger := zap.NewNop()
	tools := newTestTools(cat, nil)
	if leads == nil {
		leads = newMemConversations()
	}
	conv := NewConversationExpert(tools)
	router := NewRouter(conv,
		NewSearchExpert(tools),
		NewItineraryExpert(tools, logger),
		NewBudgetExpert(tools.catalog, logger),
		NewLeadExpert(leads, logger),
		conv,
	)
	return NewOrchestrator(convs, NewClassifier(provider, logger), router, NewSynthesizer(nil, logger), logger)
}

func TestChatSearchTurn(t *testing.T) {
	cat := lodgingCatalog()
	cat.towns["Guatavita"] = &catalog.Town{ID: "t1", Name: "Guatavita", Slug: "guatavita"}
	convs := newMemConversations()
	provider := &fakeProvider{jsonOut: `{
		"intent": "search_lodging",
		"confidence": 0.9,
		"extracted_data": {"destination": "Guatavita"},
		"reasoning": "hotel search"
	}`}
	o := newTestOrchestrator(provider, convs, cat, convs)

	resp, err := o.Chat(context.Background(), ChatRequest{
		Message:   "busco hotel en Guatavita",
		SessionID: "s1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Intent != "search_lodging" {
		t.Errorf("intent = %s", resp.Intent)
	}
	if len(resp.Cards) != 3 {
		t.Errorf("cards = %d, want 3", len(resp.Cards))
	}
	if resp.ConversationID == "" {
		t.Error("a new conversation id must be issued")
	}
	if resp.ContextUpdate == nil || resp.ContextUpdate.Destination == nil || *resp.ContextUpdate.Destination != "Guatavita" {
		t.Error("extracted destination must be merged into the returned context")
	}
	if resp.ContextUpdate.LastResults == nil || len(resp.ContextUpdate.LastResults.Items) != 3 {
		t.Error("the shown options must be staged for the next turn")
	}

	msgs := convs.messages[resp.ConversationID]
	if len(msgs) != 2 {
		t.Fatalf("persisted messages = %d, want user + assistant", len(msgs))
	}
	if msgs[0].Role != conversation.RoleUser || msgs[0].Intent == nil || *msgs[0].Intent != "search_lodging" {
		t.Errorf("user message not annotated: %+v", msgs[0])
	}
	if msgs[0].Extracted == nil || msgs[0].Extracted.Destination == nil {
		t.Error("user message should carry the extraction")
	}
	if msgs[1].Role != conversation.RoleAssistant || msgs[1].ToolUsed == nil || *msgs[1].ToolUsed != ToolSearchLodgings {
		t.Errorf("assistant message not annotated: %+v", msgs[1])
	}
}

func TestChatSelectionAcrossTurns(t *testing.T) {
	cat := lodgingCatalog()
	convs := newMemConversations()
	provider := &fakeProvider{jsonOut: `{
		"intent": "search_lodging",
		"confidence": 0.9,
		"extracted_data": {}
	}`}
	o := newTestOrchestrator(provider, convs, cat, convs)

	first, err := o.Chat(context.Background(), ChatRequest{Message: "busco hotel", SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}

	provider.jsonOut = `{
		"intent": "select_entity",
		"confidence": 0.95,
		"extracted_data": {"position": 2}
	}`
	second, err := o.Chat(context.Background(), ChatRequest{
		Message:        "la segunda",
		ConversationID: first.ConversationID,
		SessionID:      "s1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if second.ConversationID != first.ConversationID {
		t.Error("the conversation must continue, not restart")
	}
	if second.ContextUpdate.LodgingID == nil || *second.ContextUpdate.LodgingID != "b" {
		t.Errorf("lodging selection not committed: %+v", second.ContextUpdate)
	}
}

func TestChatDegradedClassificationStillReplies(t *testing.T) {
	convs := newMemConversations()
	provider := &fakeProvider{jsonOut: "not json at all"}
	o := newTestOrchestrator(provider, convs, newFakeCatalog(), convs)

	resp, err := o.Chat(context.Background(), ChatRequest{Message: "zzz", SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Intent != "unknown" {
		t.Errorf("intent = %s, want unknown", resp.Intent)
	}
	if resp.Message == "" {
		t.Error("a degraded turn still needs a reply")
	}
	if !resp.RequiresMoreInfo {
		t.Error("unknown intent should ask for clarification")
	}
	if len(convs.messages[resp.ConversationID]) != 2 {
		t.Error("degraded turns are persisted like any other")
	}
}

func TestChatDiscardsInvalidExtraction(t *testing.T) {
	convs := newMemConversations()
	provider := &fakeProvider{jsonOut: `{
		"intent": "provide_info",
		"confidence": 0.9,
		"extracted_data": {"party_size": -3}
	}`}
	o := newTestOrchestrator(provider, convs, newFakeCatalog(), convs)

	resp, err := o.Chat(context.Background(), ChatRequest{Message: "somos menos tres", SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ContextUpdate.PartySize != nil {
		t.Error("an invalid extraction must not reach the stored state")
	}
}

func TestChatPersistenceFailureIsFatal(t *testing.T) {
	convs := newMemConversations()
	convs.failSave = true
	provider := &fakeProvider{jsonOut: `{
		"intent": "provide_info",
		"confidence": 0.9,
		"extracted_data": {"destination": "Guatavita"}
	}`}
	o := newTestOrchestrator(provider, convs, newFakeCatalog(), convs)

	if _, err := o.Chat(context.Background(), ChatRequest{Message: "voy a Guatavita", SessionID: "s1"}); err == nil {
		t.Fatal("a turn that cannot persist state must fail")
	}
}

func TestChatExpertFailureDegradesToApology(t *testing.T) {
	convs := newMemConversations()
	conv, _ := convs.LoadOrCreate(context.Background(), "", "s1", nil)
	conv.State = &trip.State{
		LodgingID:    strPtr("l1"),
		ContactPhone: strPtr("3001234567"),
	}

	provider := &fakeProvider{jsonOut: `{
		"intent": "create_lead",
		"confidence": 0.9,
		"extracted_data": {}
	}`}
	o := newTestOrchestrator(provider, convs, newFakeCatalog(), failingLeads{})

	resp, err := o.Chat(context.Background(), ChatRequest{
		Message:        "resérvalo",
		ConversationID: conv.ID,
		SessionID:      "s1",
	})
	if err != nil {
		t.Fatalf("an expert failure must not abort the turn: %v", err)
	}
	if !resp.RequiresMoreInfo {
		t.Error("the apology should invite a retry")
	}
	if len(resp.Cards) != 0 {
		t.Errorf("cards = %+v, want none after a failed handler", resp.Cards)
	}
}
