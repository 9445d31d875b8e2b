// README: Closed intent taxonomy and the classifier's extraction schema.
package agent

import (
	"fmt"
	"strings"
	"time"

	"andino/internal/modules/trip"
)

// Intent is the closed-set label for what the user wants this turn.
type Intent string

const (
	IntentSearchLodging    Intent = "search_lodging"
	IntentSearchRestaurant Intent = "search_restaurant"
	IntentSearchExperience Intent = "search_experience"
	IntentSearchPlace      Intent = "search_place"
	IntentSearchGuide      Intent = "search_guide"
	IntentSearchTransport  Intent = "search_transport"
	IntentSearchCommerce   Intent = "search_commerce"
	IntentSelectEntity     Intent = "select_entity"
	IntentPlanItinerary    Intent = "plan_itinerary"
	IntentCalculateBudget  Intent = "calculate_budget"
	IntentCreateLead       Intent = "create_lead"
	IntentProvideInfo      Intent = "provide_info"
	IntentGreeting         Intent = "greeting"
	IntentFarewell         Intent = "farewell"
	IntentGeneralQuestion  Intent = "general_question"
	IntentUnknown          Intent = "unknown"
)

// intentDescriptions drives both the classifier prompt and validation.
var intentDescriptions = map[Intent]string{
	IntentSearchLodging:    "user wants lodging options (hotel, hostal, cabaña, glamping)",
	IntentSearchRestaurant: "user wants places to eat",
	IntentSearchExperience: "user wants activities or experiences (hikes, tours, workshops)",
	IntentSearchPlace:      "user wants sights or points of interest to visit",
	IntentSearchGuide:      "user wants a local guide",
	IntentSearchTransport:  "user wants transport options to or around the destination",
	IntentSearchCommerce:   "user wants shops, artisans or local products",
	IntentSelectEntity:     "user refers to one of the options already shown (by position, name or superlative)",
	IntentPlanItinerary:    "user wants a day-by-day plan for the trip",
	IntentCalculateBudget:  "user wants a cost estimate for the trip",
	IntentCreateLead:       "user wants to book/reserve/be contacted about their selections",
	IntentProvideInfo:      "message only adds trip facts (dates, party size, budget, contact) without asking for anything",
	IntentGreeting:         "greeting or conversation opener",
	IntentFarewell:         "goodbye or closing the conversation",
	IntentGeneralQuestion:  "a question about the destination not tied to a catalog search",
	IntentUnknown:          "none of the above",
}

// ParseIntent normalizes an intent label (upstream models emit inconsistent
// casing) and reports whether it belongs to the taxonomy.
func ParseIntent(raw string) (Intent, bool) {
	in := Intent(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := intentDescriptions[in]
	return in, ok
}

// searchIntentEntity maps each search intent to the catalog it targets.
var searchIntentEntity = map[Intent]trip.EntityType{
	IntentSearchLodging:    trip.EntityLodging,
	IntentSearchRestaurant: trip.EntityRestaurant,
	IntentSearchExperience: trip.EntityExperience,
	IntentSearchPlace:      trip.EntityPlace,
	IntentSearchGuide:      trip.EntityGuide,
	IntentSearchTransport:  trip.EntityTransport,
	IntentSearchCommerce:   trip.EntityCommerce,
}

// ExtractedData is the typed bag of fields the classifier may pull from one
// message. Dates arrive as strings and are coerced during validation.
type ExtractedData struct {
	Destination  *string  `json:"destination,omitempty"`
	PartySize    *int     `json:"party_size,omitempty"`
	StartDate    *string  `json:"start_date,omitempty"`
	EndDate      *string  `json:"end_date,omitempty"`
	Days         *int     `json:"days,omitempty"`
	BudgetMin    *float64 `json:"budget_min,omitempty"`
	BudgetMax    *float64 `json:"budget_max,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	StyleTags    []string `json:"style_tags,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	EntityName   *string  `json:"entity_name,omitempty"`
	Position     *int     `json:"position,omitempty"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	ContactEmail *string  `json:"contact_email,omitempty"`
	Goal         *string  `json:"goal,omitempty"`
}

const dateLayout = "2006-01-02"

// StateUpdates converts the extraction into a partial trip state, coercing
// date strings. A malformed date makes the whole extraction invalid.
func (d *ExtractedData) StateUpdates() (*trip.State, error) {
	upd := &trip.State{
		Destination:  d.Destination,
		PartySize:    d.PartySize,
		Days:         d.Days,
		BudgetMin:    d.BudgetMin,
		BudgetMax:    d.BudgetMax,
		StyleTags:    d.StyleTags,
		Tags:         d.Tags,
		ContactPhone: d.ContactPhone,
		ContactEmail: d.ContactEmail,
		CurrentGoal:  d.Goal,
	}
	if d.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*d.Currency))
		upd.Currency = &cur
	}
	if d.StartDate != nil {
		t, err := time.Parse(dateLayout, *d.StartDate)
		if err != nil {
			return nil, fmt.Errorf("bad start_date %q: %w", *d.StartDate, err)
		}
		upd.StartDate = &t
	}
	if d.EndDate != nil {
		t, err := time.Parse(dateLayout, *d.EndDate)
		if err != nil {
			return nil, fmt.Errorf("bad end_date %q: %w", *d.EndDate, err)
		}
		upd.EndDate = &t
	}
	return upd, nil
}

// ClassificationResult is the schema-validated outcome of one classifier
// call. Invalid model output never reaches this type; the sentinel
// (unknown/0) is produced instead.
type ClassificationResult struct {
	Intent     Intent        `json:"intent"`
	Confidence float64       `json:"confidence"`
	Extracted  ExtractedData `json:"extracted_data"`
	Reasoning  string        `json:"reasoning"`
}
