// README: Shared test fakes for the agent package.
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"andino/internal/modules/catalog"
	"andino/internal/modules/conversation"
	"andino/internal/modules/rag"
	"andino/internal/modules/trip"
)

// fakeCatalog serves canned entities keyed by id and records the last
// search so tests can assert the filter that reached it.
type fakeCatalog struct {
	entities   map[string]*catalog.Entity
	searches   map[trip.EntityType][]catalog.Entity
	towns      map[string]*catalog.Town
	lastType   trip.EntityType
	lastFilter catalog.Filter
	searchErr  error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		entities: map[string]*catalog.Entity{},
		searches: map[trip.EntityType][]catalog.Entity{},
		towns:    map[string]*catalog.Town{},
	}
}

func (f *fakeCatalog) add(e catalog.Entity) {
	cp := e
	f.entities[e.ID] = &cp
	f.searches[e.Type] = append(f.searches[e.Type], cp)
}

func (f *fakeCatalog) Search(ctx context.Context, et trip.EntityType, fl catalog.Filter) ([]catalog.Entity, error) {
	f.lastType = et
	f.lastFilter = fl
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]catalog.Entity(nil), f.searches[et]...), nil
}

func (f *fakeCatalog) FindByID(ctx context.Context, et trip.EntityType, id string) (*catalog.Entity, error) {
	if e, ok := f.entities[id]; ok {
		return e, nil
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) ResolveTown(ctx context.Context, destination string) (*catalog.Town, error) {
	if t, ok := f.towns[destination]; ok {
		return t, nil
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) TownByID(ctx context.Context, id string) (*catalog.Town, error) {
	for _, t := range f.towns {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type fakeKnowledge struct {
	matches       []rag.Match
	lastNamespace string
	err           error
}

func (f *fakeKnowledge) Search(ctx context.Context, query, namespace string) ([]rag.Match, error) {
	f.lastNamespace = namespace
	if f.err != nil {
		return nil, f.err
	}
	return append([]rag.Match(nil), f.matches...), nil
}

// fakeProvider scripts LLM completions.
type fakeProvider struct {
	jsonOut string
	jsonErr error
	textOut string
	textErr error
}

func (f *fakeProvider) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return f.jsonOut, f.jsonErr
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return f.textOut, f.textErr
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeProvider) Close() error { return nil }

// memConversations is an in-memory Conversations implementation.
type memConversations struct {
	convs    map[string]*conversation.Conversation
	messages map[string][]conversation.Message
	failSave bool
	nextID   int64
	leadSeq  int
}

func newMemConversations() *memConversations {
	return &memConversations{
		convs:    map[string]*conversation.Conversation{},
		messages: map[string][]conversation.Message{},
	}
}

func (m *memConversations) LoadOrCreate(ctx context.Context, id, sessionID string, userRef *string) (*conversation.Conversation, error) {
	if c, ok := m.convs[id]; ok {
		return c, nil
	}
	if id == "" {
		id = fmt.Sprintf("00000000-0000-4000-8000-%012d", len(m.convs)+1)
	}
	c := &conversation.Conversation{
		ID:        id,
		SessionID: sessionID,
		UserRef:   userRef,
		Active:    true,
		State:     &trip.State{},
	}
	m.convs[id] = c
	return c, nil
}

func (m *memConversations) SaveState(ctx context.Context, c *conversation.Conversation, updates *trip.State) error {
	if m.failSave {
		return errors.New("disk full")
	}
	merged, err := trip.Merge(c.State, updates)
	if err != nil {
		return err
	}
	c.State = merged
	c.StateVersion++
	return nil
}

func (m *memConversations) AppendMessage(ctx context.Context, msg *conversation.Message) error {
	m.nextID++
	msg.ID = m.nextID
	m.messages[msg.ConvID] = append(m.messages[msg.ConvID], *msg)
	return nil
}

func (m *memConversations) History(ctx context.Context, convID string) ([]conversation.Message, error) {
	msgs := m.messages[convID]
	if len(msgs) > conversation.HistoryPrompt {
		msgs = msgs[len(msgs)-conversation.HistoryPrompt:]
	}
	return append([]conversation.Message(nil), msgs...), nil
}

func (m *memConversations) CreateLead(ctx context.Context, c *conversation.Conversation, et trip.EntityType, entityID, notes string) (*conversation.Lead, error) {
	m.leadSeq++
	l := conversation.Lead{
		ID:         fmt.Sprintf("lead-%d", m.leadSeq),
		ConvID:     c.ID,
		EntityType: et,
		EntityID:   entityID,
		Notes:      notes,
		Status:     conversation.LeadPending,
		State:      c.State,
	}
	c.Leads = append(c.Leads, l)
	return &l, nil
}

func newTestTools(cat Catalog, knowledge Knowledge) *Tools {
	if cat == nil {
		cat = newFakeCatalog()
	}
	if knowledge == nil {
		knowledge = &fakeKnowledge{}
	}
	return NewTools(cat, knowledge, "guatavita", zap.NewNop())
}

func catalogEntity(id string, et trip.EntityType, name string, price, rating float64) catalog.Entity {
	return catalog.Entity{ID: id, Type: et, Name: name, Price: price, Rating: rating, IsPublic: true}
}

func strPtr(v string) *string   { return &v }
func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }
