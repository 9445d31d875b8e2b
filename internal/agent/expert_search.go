// README: Search expert; catalog searches and candidate selection.
package agent

import (
	"context"
	"fmt"

	"andino/internal/modules/trip"
)

// entityLabels are the Spanish plural labels used in user-facing drafts.
var entityLabels = map[trip.EntityType]string{
	trip.EntityLodging:    "alojamientos",
	trip.EntityRestaurant: "restaurantes",
	trip.EntityExperience: "experiencias",
	trip.EntityPlace:      "lugares para visitar",
	trip.EntityGuide:      "guías locales",
	trip.EntityTransport:  "opciones de transporte",
	trip.EntityCommerce:   "comercios y artesanías",
}

type SearchExpert struct {
	tools *Tools
}

func NewSearchExpert(tools *Tools) *SearchExpert {
	return &SearchExpert{tools: tools}
}

func (e *SearchExpert) Name() string { return "search" }

func (e *SearchExpert) Description() string {
	return "runs catalog searches and resolves references to shown options"
}

func (e *SearchExpert) CanHandle(intent Intent) bool {
	if intent == IntentSelectEntity {
		return true
	}
	_, ok := searchIntentEntity[intent]
	return ok
}

func (e *SearchExpert) Handle(ctx context.Context, turn *TurnContext) (*Response, error) {
	if turn.Intent == IntentSelectEntity {
		return e.handleSelection(ctx, turn)
	}
	return e.handleSearch(ctx, turn)
}

func (e *SearchExpert) handleSearch(ctx context.Context, turn *TurnContext) (*Response, error) {
	tool, ok := searchToolFor(turn.Intent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoExpert, turn.Intent)
	}

	// Facts extracted this turn (a new destination, budget) must constrain
	// this same search, so apply them before executing.
	updates, err := turn.Classification.Extracted.StateUpdates()
	if err == nil && updates != nil {
		if merged, merr := trip.Merge(turn.State, updates); merr == nil {
			turn.State = merged
		}
	}

	result, err := e.tools.Execute(ctx, tool, turn)
	if err != nil {
		return nil, err
	}

	et := searchIntentEntity[turn.Intent]
	label := entityLabels[et]

	if len(result.Cards) == 0 {
		return &Response{
			Message:           fmt.Sprintf("Lo siento, no encontré %s con esos criterios.", label),
			FollowUpQuestions: []string{"¿Quieres ampliar el presupuesto o cambiar de destino?"},
			RequiresMoreInfo:  true,
			ToolUsed:          tool,
		}, nil
	}

	resp := &Response{
		Message:      fmt.Sprintf("Encontré %d %s para ti.", len(result.Cards), label),
		Cards:        result.Cards,
		StateUpdates: &trip.State{LastResults: result.Results},
		FollowUpQuestions: []string{
			"¿Te interesa alguna de estas opciones?",
			"Puedes decirme \"la primera\" o \"la más barata\".",
		},
		SuggestedActions: []string{"select_entity"},
		PromptHint:       fmt.Sprintf("Present the %s options warmly in Spanish, one short line each, and invite the user to pick one.", label),
		ToolUsed:         tool,
	}
	return resp, nil
}

func (e *SearchExpert) handleSelection(ctx context.Context, turn *TurnContext) (*Response, error) {
	result, err := e.tools.Execute(ctx, ToolSelectEntity, turn)
	if err != nil {
		return nil, err
	}

	if turn.State == nil || turn.State.LastResults == nil || len(turn.State.LastResults.Items) == 0 {
		return &Response{
			Message:           "Aún no te he mostrado opciones para elegir.",
			FollowUpQuestions: []string{"¿Qué te gustaría buscar primero: alojamiento, restaurantes o experiencias?"},
			RequiresMoreInfo:  true,
			ToolUsed:          ToolSelectEntity,
		}, nil
	}

	if result.Selected == nil {
		// The reference did not resolve; show the unmodified list back.
		return &Response{
			Message:           "No estoy seguro de cuál opción te refieres.",
			Cards:             result.Cards,
			FollowUpQuestions: []string{"¿Me indicas el número o el nombre de la opción?"},
			RequiresMoreInfo:  true,
			ToolUsed:          ToolSelectEntity,
		}, nil
	}

	et := turn.State.LastResults.EntityType
	updates := selectionUpdate(turn.State, et, result.Selected.ID)
	return &Response{
		Message:          fmt.Sprintf("¡Listo! Seleccioné %s.", result.Selected.Name),
		Cards:            result.Cards,
		StateUpdates:     updates,
		SuggestedActions: []string{"calculate_budget", "plan_itinerary", "create_lead"},
		FollowUpQuestions: []string{
			"¿Quieres que calcule el presupuesto o armo el itinerario?",
		},
		PromptHint: "Confirm the selection in Spanish and suggest the natural next step.",
		ToolUsed:   ToolSelectEntity,
	}, nil
}

// selectionUpdate commits a singleton selection into the matching slot.
// Experiences accumulate; the update carries the full replacement list since
// arrays merge wholesale.
func selectionUpdate(state *trip.State, et trip.EntityType, id string) *trip.State {
	upd := &trip.State{}
	switch et {
	case trip.EntityLodging:
		upd.LodgingID = &id
	case trip.EntityRestaurant:
		upd.RestaurantID = &id
	case trip.EntityExperience:
		ids := append([]string{}, state.ExperienceIDs...)
		for _, existing := range ids {
			if existing == id {
				upd.ExperienceIDs = ids
				return upd
			}
		}
		upd.ExperienceIDs = append(ids, id)
	case trip.EntityGuide:
		upd.GuideID = &id
	case trip.EntityTransport:
		upd.TransportID = &id
	}
	return upd
}
