// README: Itinerary expert; day-by-day plan from candidates and selections.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"andino/internal/modules/catalog"
	"andino/internal/modules/trip"
)

const defaultItineraryDays = 3

type ItineraryExpert struct {
	tools  *Tools
	logger *zap.Logger
}

func NewItineraryExpert(tools *Tools, logger *zap.Logger) *ItineraryExpert {
	return &ItineraryExpert{tools: tools, logger: logger}
}

func (e *ItineraryExpert) Name() string { return "itinerary" }

func (e *ItineraryExpert) Description() string {
	return "synthesizes a day-by-day trip plan"
}

func (e *ItineraryExpert) CanHandle(intent Intent) bool {
	return intent == IntentPlanItinerary
}

func (e *ItineraryExpert) Handle(ctx context.Context, turn *TurnContext) (*Response, error) {
	state := turn.State
	if state == nil {
		state = &trip.State{}
	}

	days := state.DayCount()
	if days == 0 {
		days = defaultItineraryDays
	}

	places := e.candidates(ctx, trip.EntityPlace, state)
	experiences := e.candidates(ctx, trip.EntityExperience, state)

	lodgingName := "tu alojamiento"
	if state.LodgingID != nil {
		if l, err := e.tools.catalog.FindByID(ctx, trip.EntityLodging, *state.LodgingID); err == nil {
			lodgingName = l.Name
		}
	}
	dinnerSpot := "un restaurante local"
	if state.RestaurantID != nil {
		if r, err := e.tools.catalog.FindByID(ctx, trip.EntityRestaurant, *state.RestaurantID); err == nil {
			dinnerSpot = r.Name
		}
	}

	var cards []Card
	placeIdx, expIdx := 0, 0
	for day := 1; day <= days; day++ {
		slots := map[string]any{}
		switch {
		case day == 1 && days == 1:
			slots["morning"] = "Llegada y recorrido por el centro del pueblo"
			slots["lunch"] = "Almuerzo en " + dinnerSpot
			slots["afternoon"] = pick(experiences, &expIdx, "Tarde libre para explorar")
			slots["evening"] = "Regreso"
		case day == 1:
			slots["morning"] = "Llegada y check-in en " + lodgingName
			slots["lunch"] = "Almuerzo en " + dinnerSpot
			slots["afternoon"] = pick(places, &placeIdx, "Caminata libre por el pueblo")
			slots["dinner"] = "Cena en " + dinnerSpot
		case day == days:
			slots["breakfast"] = "Desayuno y check-out de " + lodgingName
			slots["morning"] = pick(places, &placeIdx, "Última vuelta por el pueblo")
			slots["lunch"] = "Almuerzo de despedida"
			slots["afternoon"] = "Salida y regreso"
		default:
			slots["breakfast"] = "Desayuno en " + lodgingName
			slots["morning"] = pick(places, &placeIdx, "Mañana libre")
			slots["lunch"] = "Almuerzo en " + dinnerSpot
			slots["afternoon"] = pick(experiences, &expIdx, "Tarde libre")
			slots["dinner"] = "Cena en " + dinnerSpot
		}
		cards = append(cards, Card{
			Type:     CardItinerary,
			Position: day,
			Title:    fmt.Sprintf("Día %d", day),
			Data:     slots,
		})
	}

	goal := fmt.Sprintf("itinerario de %d días", days)
	return &Response{
		Message:      fmt.Sprintf("Te armé un plan de %d días.", days),
		Cards:        cards,
		StateUpdates: &trip.State{CurrentGoal: &goal},
		FollowUpQuestions: []string{
			"¿Quieres cambiar alguna actividad del plan?",
		},
		SuggestedActions: []string{"calculate_budget", "create_lead"},
		PromptHint:       "Narrate the day-by-day plan in Spanish, one short paragraph per day.",
	}, nil
}

// candidates prefers the user's committed selections, then falls back to the
// town's top-rated options.
func (e *ItineraryExpert) candidates(ctx context.Context, et trip.EntityType, state *trip.State) []string {
	var names []string
	for _, id := range state.SelectionFor(et) {
		if en, err := e.tools.catalog.FindByID(ctx, et, id); err == nil {
			names = append(names, en.Name)
		}
	}
	if len(names) > 0 {
		return names
	}

	f := catalog.Filter{Limit: catalog.PageSize}
	if town := e.tools.resolveTown(ctx, state); town != nil {
		f.TownID = town.ID
	}
	entities, err := e.tools.catalog.Search(ctx, et, f)
	if err != nil {
		e.logger.Warn("itinerary candidate search failed",
			zap.String("entity_type", string(et)), zap.Error(err))
		return nil
	}
	for _, en := range entities {
		names = append(names, en.Name)
	}
	return names
}

// pick assigns candidates round-robin across days; once the pool is
// exhausted the slot degrades to the fallback (free time).
func pick(pool []string, idx *int, fallback string) string {
	if *idx >= len(pool) {
		return fallback
	}
	name := pool[*idx]
	*idx++
	return name
}
