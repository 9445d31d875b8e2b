// README: Trip planning state document (one per conversation, fully nullable).
package trip

import "time"

// EntityType identifies which catalog a selection or result refers to.
type EntityType string

const (
	EntityLodging    EntityType = "lodging"
	EntityRestaurant EntityType = "restaurant"
	EntityExperience EntityType = "experience"
	EntityPlace      EntityType = "place"
	EntityGuide      EntityType = "guide"
	EntityTransport  EntityType = "transport"
	EntityCommerce   EntityType = "commerce"
)

// ResultRef is one entry of the most recent search shown to the user.
// Position is 1-based so the classifier can resolve "la primera opción".
type ResultRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// LastResults holds only the most recent search: a single entity type and
// its ordered candidates. Replaced wholesale on every new search.
type LastResults struct {
	EntityType EntityType  `json:"entity_type"`
	Items      []ResultRef `json:"items"`
}

// State is the accumulated trip-planning document for a conversation.
// Every field is optional; nil means "not yet known". Slices are replaced
// wholesale on merge, never unioned.
type State struct {
	Destination *string    `json:"destination,omitempty"`
	TownID      *string    `json:"town_id,omitempty" validate:"omitempty,uuid4"`
	PartySize   *int       `json:"party_size,omitempty" validate:"omitempty,gt=0"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Days        *int       `json:"days,omitempty" validate:"omitempty,gt=0,lte=60"`
	BudgetMin   *float64   `json:"budget_min,omitempty" validate:"omitempty,gte=0"`
	BudgetMax   *float64   `json:"budget_max,omitempty" validate:"omitempty,gte=0"`
	Currency    *string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	StyleTags   []string   `json:"style_tags,omitempty"`
	Tags        []string   `json:"tags,omitempty"`

	// Selections committed by the user (opaque catalog ids).
	LodgingID     *string  `json:"lodging_id,omitempty"`
	RestaurantID  *string  `json:"restaurant_id,omitempty"`
	ExperienceIDs []string `json:"experience_ids,omitempty"`
	GuideID       *string  `json:"guide_id,omitempty"`
	TransportID   *string  `json:"transport_id,omitempty"`

	LastResults *LastResults `json:"last_results,omitempty"`
	CurrentGoal *string      `json:"current_goal,omitempty"`

	ContactPhone *string `json:"contact_phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
}

// HasContact reports whether the user left any way to reach them.
func (s *State) HasContact() bool {
	return (s.ContactPhone != nil && *s.ContactPhone != "") ||
		(s.ContactEmail != nil && *s.ContactEmail != "")
}

// HasSelection reports whether at least one category has a committed choice.
func (s *State) HasSelection() bool {
	return s.LodgingID != nil || s.RestaurantID != nil ||
		len(s.ExperienceIDs) > 0 || s.GuideID != nil || s.TransportID != nil
}

// DayCount derives the trip length: explicit day count first, then the date
// range, then zero when neither is known.
func (s *State) DayCount() int {
	if s.Days != nil && *s.Days > 0 {
		return *s.Days
	}
	if s.StartDate != nil && s.EndDate != nil {
		d := int(s.EndDate.Sub(*s.StartDate).Hours()/24) + 1
		if d > 0 {
			return d
		}
	}
	return 0
}

// SelectionFor returns the selection slot value for one entity type.
// Experiences are a list; the other categories hold at most one id.
func (s *State) SelectionFor(et EntityType) []string {
	switch et {
	case EntityLodging:
		return derefOne(s.LodgingID)
	case EntityRestaurant:
		return derefOne(s.RestaurantID)
	case EntityExperience:
		return s.ExperienceIDs
	case EntityGuide:
		return derefOne(s.GuideID)
	case EntityTransport:
		return derefOne(s.TransportID)
	}
	return nil
}

func derefOne(p *string) []string {
	if p == nil {
		return nil
	}
	return []string{*p}
}
