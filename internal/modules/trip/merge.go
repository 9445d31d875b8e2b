// README: Merge engine; field-present replacement plus validation.
package trip

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidState = errors.New("invalid trip state")

var validate = validator.New()

// Merge returns a copy of current with every present (non-nil) field of
// updates replacing the corresponding field. Absent fields are preserved and
// slice fields are whole replacements. Merge(s, &State{}) is the identity.
// The merged document is re-validated so invalid values (negative day count,
// malformed email) are rejected here as a domain error, not stored silently.
func Merge(current *State, updates *State) (*State, error) {
	merged := clone(current)
	if updates != nil {
		apply(merged, updates)
	}
	if err := validate.Struct(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return merged, nil
}

func apply(dst, src *State) {
	if src.Destination != nil {
		dst.Destination = strPtr(*src.Destination)
	}
	if src.TownID != nil {
		dst.TownID = strPtr(*src.TownID)
	}
	if src.PartySize != nil {
		v := *src.PartySize
		dst.PartySize = &v
	}
	if src.StartDate != nil {
		v := *src.StartDate
		dst.StartDate = &v
	}
	if src.EndDate != nil {
		v := *src.EndDate
		dst.EndDate = &v
	}
	if src.Days != nil {
		v := *src.Days
		dst.Days = &v
	}
	if src.BudgetMin != nil {
		v := *src.BudgetMin
		dst.BudgetMin = &v
	}
	if src.BudgetMax != nil {
		v := *src.BudgetMax
		dst.BudgetMax = &v
	}
	if src.Currency != nil {
		dst.Currency = strPtr(*src.Currency)
	}
	if src.StyleTags != nil {
		dst.StyleTags = append([]string(nil), src.StyleTags...)
	}
	if src.Tags != nil {
		dst.Tags = append([]string(nil), src.Tags...)
	}
	if src.LodgingID != nil {
		dst.LodgingID = strPtr(*src.LodgingID)
	}
	if src.RestaurantID != nil {
		dst.RestaurantID = strPtr(*src.RestaurantID)
	}
	if src.ExperienceIDs != nil {
		dst.ExperienceIDs = append([]string(nil), src.ExperienceIDs...)
	}
	if src.GuideID != nil {
		dst.GuideID = strPtr(*src.GuideID)
	}
	if src.TransportID != nil {
		dst.TransportID = strPtr(*src.TransportID)
	}
	if src.LastResults != nil {
		lr := LastResults{
			EntityType: src.LastResults.EntityType,
			Items:      append([]ResultRef(nil), src.LastResults.Items...),
		}
		dst.LastResults = &lr
	}
	if src.CurrentGoal != nil {
		dst.CurrentGoal = strPtr(*src.CurrentGoal)
	}
	if src.ContactPhone != nil {
		dst.ContactPhone = strPtr(*src.ContactPhone)
	}
	if src.ContactEmail != nil {
		dst.ContactEmail = strPtr(*src.ContactEmail)
	}
}

func clone(s *State) *State {
	if s == nil {
		return &State{}
	}
	out := &State{}
	apply(out, s)
	return out
}

func strPtr(v string) *string { return &v }
