// README: Catalog entities treated as opaque searchable/orderable records.
package catalog

import (
	"errors"

	"andino/internal/modules/trip"
)

var (
	ErrNotFound    = errors.New("catalog entity not found")
	ErrUnknownType = errors.New("unknown entity type")
)

// Entity is the shared shape of every tourism record. The full per-category
// business schema lives in the admin surface; the agent only needs the
// searchable and orderable fields plus the raw metadata for card building.
type Entity struct {
	ID          string
	TownID      string
	Type        trip.EntityType
	Name        string
	Description string
	Price       float64
	Rating      float64
	ReviewCount int
	IsPublic    bool
	Metadata    map[string]any
}

// Town is a destination the catalog knows about. Slug doubles as the vector
// index namespace for that town's documents.
type Town struct {
	ID     string
	Name   string
	Slug   string
	Region string
}

// Filter narrows a catalog search. Zero values mean "no constraint".
type Filter struct {
	TownID    string
	BudgetMin float64
	BudgetMax float64
	Limit     int
}

// PageSize caps every search result list shown to the user.
const PageSize = 5
