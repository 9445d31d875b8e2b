// README: Conversation aggregate, append-only messages, insert-only leads.
package conversation

import (
	"errors"
	"time"

	"andino/internal/modules/trip"
)

var (
	ErrNotFound = errors.New("conversation not found")
	ErrConflict = errors.New("conversation state conflict")
)

const (
	// HistoryStored is how many trailing messages a conversation keeps.
	HistoryStored = 20
	// HistoryPrompt is how many trailing messages go into LLM prompts.
	HistoryPrompt = 6
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type LeadStatus string

const (
	LeadPending   LeadStatus = "pending"
	LeadContacted LeadStatus = "contacted"
	LeadConverted LeadStatus = "converted"
	LeadRejected  LeadStatus = "rejected"
)

type Conversation struct {
	ID           string
	UserRef      *string
	SessionID    string
	Active       bool
	State        *trip.State
	StateVersion int
	Leads        []Lead
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is one turn of the transcript. Classification metadata is only
// present on user messages that went through the classifier.
type Message struct {
	ID         int64
	ConvID     string
	Role       Role
	Content    string
	Intent     *string
	Confidence *float64
	Extracted  *trip.State
	ToolUsed   *string
	CreatedAt  time.Time
}

// Lead is a handoff request for one selected entity, snapshotting the trip
// state at creation time. Status transitions happen in the admin surface.
type Lead struct {
	ID         string
	ConvID     string
	EntityType trip.EntityType
	EntityID   string
	Name       *string
	Phone      *string
	Email      *string
	Notes      string
	Status     LeadStatus
	State      *trip.State
	CreatedAt  time.Time
}
