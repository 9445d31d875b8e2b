// README: Expert contract and the collaborator interfaces the agent needs.
package agent

import (
	"context"
	"errors"

	"andino/internal/modules/catalog"
	"andino/internal/modules/conversation"
	"andino/internal/modules/rag"
	"andino/internal/modules/trip"
)

var ErrNoExpert = errors.New("no expert for intent")

// Catalog is the read surface over tourism entities. catalog.Service
// satisfies it.
type Catalog interface {
	Search(ctx context.Context, et trip.EntityType, f catalog.Filter) ([]catalog.Entity, error)
	FindByID(ctx context.Context, et trip.EntityType, id string) (*catalog.Entity, error)
	ResolveTown(ctx context.Context, destination string) (*catalog.Town, error)
	TownByID(ctx context.Context, id string) (*catalog.Town, error)
}

// Knowledge is the retrieval-augmented lookup surface. rag.Service satisfies it.
type Knowledge interface {
	Search(ctx context.Context, query, namespace string) ([]rag.Match, error)
}

// LeadCreator persists handoff leads. conversation.Service satisfies it.
type LeadCreator interface {
	CreateLead(ctx context.Context, c *conversation.Conversation, et trip.EntityType, entityID, notes string) (*conversation.Lead, error)
}

// CardType tags the structured result units returned alongside replies.
type CardType string

const (
	CardEntity    CardType = "entity"
	CardBudget    CardType = "budget"
	CardItinerary CardType = "itinerary_day"
	CardInfo      CardType = "info"
	CardLead      CardType = "lead"
)

// Card is one structured result unit (entity summary, budget breakdown,
// itinerary day). Data carries type-specific payloads.
type Card struct {
	Type       CardType        `json:"type"`
	EntityType trip.EntityType `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Position   int             `json:"position,omitempty"`
	Title      string          `json:"title"`
	Subtitle   string          `json:"subtitle,omitempty"`
	Price      float64         `json:"price,omitempty"`
	Rating     float64         `json:"rating,omitempty"`
	Data       map[string]any  `json:"data,omitempty"`
}

func entityCard(e *catalog.Entity, position int) Card {
	return Card{
		Type:       CardEntity,
		EntityType: e.Type,
		EntityID:   e.ID,
		Position:   position,
		Title:      e.Name,
		Subtitle:   e.Description,
		Price:      e.Price,
		Rating:     e.Rating,
		Data:       e.Metadata,
	}
}

// TurnContext is everything an expert may read for one turn. Experts are
// stateless across turns; all continuity lives here.
type TurnContext struct {
	Conversation   *conversation.Conversation
	State          *trip.State
	Message        string
	Intent         Intent
	Classification ClassificationResult
	History        []conversation.Message
}

// Response is an expert's draft for the turn. StateUpdates is a partial trip
// state the orchestrator merges and persists. PromptHint steers the response
// synthesizer; when empty the draft Message is returned verbatim.
type Response struct {
	Message              string
	Cards                []Card
	StateUpdates         *trip.State
	FollowUpQuestions    []string
	SuggestedActions     []string
	RequiresMoreInfo     bool
	ConversationComplete bool
	PromptHint           string
	ToolUsed             string
}

// Expert is a stateless handler specialized for a fixed, disjoint set of
// intents.
type Expert interface {
	Name() string
	Description() string
	CanHandle(intent Intent) bool
	Handle(ctx context.Context, turn *TurnContext) (*Response, error)
}
