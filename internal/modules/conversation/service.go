// README: Conversation service; load-or-create, transcript, durable state.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"andino/internal/modules/trip"
)

// Repository is the persistence surface the service needs. *Store satisfies
// it; tests provide an in-memory fake.
type Repository interface {
	Create(ctx context.Context, c *Conversation) error
	Get(ctx context.Context, id string) (*Conversation, error)
	SaveState(ctx context.Context, id string, state *trip.State, expectedVersion int) error
	AppendMessage(ctx context.Context, m *Message) error
	Recent(ctx context.Context, convID string, limit int) ([]Message, error)
	CreateLead(ctx context.Context, l *Lead) error
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LoadOrCreate continues an existing conversation only when the supplied id
// is a well-formed UUID; anything else starts a fresh conversation so a
// malformed id can never hijack another one. A well-formed id with no row
// also starts fresh, keeping the client's id.
func (s *Service) LoadOrCreate(ctx context.Context, conversationID, sessionID string, userRef *string) (*Conversation, error) {
	id := conversationID
	if _, err := uuid.Parse(id); err != nil {
		if id != "" {
			s.logger.Warn("ignoring malformed conversation id", zap.String("id", id))
		}
		id = ""
	}

	if id != "" {
		c, err := s.repo.Get(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	} else {
		id = uuid.NewString()
	}

	c := &Conversation{
		ID:        id,
		UserRef:   userRef,
		SessionID: sessionID,
		Active:    true,
		State:     &trip.State{},
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Conversation, error) {
	return s.repo.Get(ctx, id)
}

// SaveState merges updates into the conversation's state and overwrites the
// stored document. The in-memory conversation is advanced so later saves in
// the same turn use the fresh version.
func (s *Service) SaveState(ctx context.Context, c *Conversation, updates *trip.State) error {
	merged, err := trip.Merge(c.State, updates)
	if err != nil {
		return err
	}
	if err := s.repo.SaveState(ctx, c.ID, merged, c.StateVersion); err != nil {
		return err
	}
	c.State = merged
	c.StateVersion++
	return nil
}

func (s *Service) AppendMessage(ctx context.Context, m *Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return s.repo.AppendMessage(ctx, m)
}

// History returns up to HistoryPrompt trailing messages for prompt building.
func (s *Service) History(ctx context.Context, convID string) ([]Message, error) {
	return s.repo.Recent(ctx, convID, HistoryPrompt)
}

// CreateLead persists one insert-only lead with a snapshot of the current
// trip state.
func (s *Service) CreateLead(ctx context.Context, c *Conversation, et trip.EntityType, entityID, notes string) (*Lead, error) {
	snapshot, err := trip.Merge(c.State, nil)
	if err != nil {
		return nil, err
	}
	l := &Lead{
		ID:         uuid.NewString(),
		ConvID:     c.ID,
		EntityType: et,
		EntityID:   entityID,
		Phone:      snapshot.ContactPhone,
		Email:      snapshot.ContactEmail,
		Notes:      notes,
		Status:     LeadPending,
		State:      snapshot,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateLead(ctx, l); err != nil {
		return nil, err
	}
	c.Leads = append(c.Leads, *l)
	return l, nil
}
