// README: Lead expert; turns selections plus contact info into leads.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"andino/internal/modules/trip"
)

type LeadExpert struct {
	leads  LeadCreator
	logger *zap.Logger
}

func NewLeadExpert(leads LeadCreator, logger *zap.Logger) *LeadExpert {
	return &LeadExpert{leads: leads, logger: logger}
}

func (e *LeadExpert) Name() string { return "lead" }

func (e *LeadExpert) Description() string {
	return "creates handoff leads for the user's selections"
}

func (e *LeadExpert) CanHandle(intent Intent) bool {
	return intent == IntentCreateLead
}

func (e *LeadExpert) Handle(ctx context.Context, turn *TurnContext) (*Response, error) {
	state := turn.State
	if state == nil {
		state = &trip.State{}
	}

	if !state.HasSelection() {
		return &Response{
			Message: "Todavía no has elegido nada para reservar.",
			FollowUpQuestions: []string{
				"¿Buscamos primero un alojamiento o una experiencia?",
			},
			SuggestedActions: []string{"search_lodging", "search_experience"},
			RequiresMoreInfo: true,
			PromptHint:       "Explain in Spanish that a selection is needed before booking.",
		}, nil
	}

	if !state.HasContact() {
		return &Response{
			Message: "Para gestionar la reserva necesito un dato de contacto.",
			FollowUpQuestions: []string{
				"¿Me dejas un teléfono o un correo electrónico?",
			},
			RequiresMoreInfo: true,
			PromptHint:       "Ask for a phone or email in Spanish, reassuring the user it is only for the booking.",
		}, nil
	}

	// One lead per selected entity, each with a state snapshot.
	targets := []struct {
		et  trip.EntityType
		ids []string
	}{
		{trip.EntityLodging, state.SelectionFor(trip.EntityLodging)},
		{trip.EntityRestaurant, state.SelectionFor(trip.EntityRestaurant)},
		{trip.EntityExperience, state.SelectionFor(trip.EntityExperience)},
		{trip.EntityGuide, state.SelectionFor(trip.EntityGuide)},
	}

	notes := ""
	if state.CurrentGoal != nil {
		notes = *state.CurrentGoal
	}

	var cards []Card
	for _, target := range targets {
		for _, id := range target.ids {
			lead, err := e.leads.CreateLead(ctx, turn.Conversation, target.et, id, notes)
			if err != nil {
				// A missing durable lead breaks the handoff; propagate.
				return nil, fmt.Errorf("create lead for %s %s: %w", target.et, id, err)
			}
			e.logger.Info("lead created",
				zap.String("lead_id", lead.ID),
				zap.String("entity_type", string(target.et)),
				zap.String("entity_id", id))
			cards = append(cards, Card{
				Type:       CardLead,
				EntityType: target.et,
				EntityID:   id,
				Title:      fmt.Sprintf("Solicitud enviada (%s)", entityLabels[target.et]),
				Subtitle:   "Te contactaremos pronto para confirmar.",
				Data:       map[string]any{"lead_id": lead.ID, "status": "pending"},
			})
		}
	}

	return &Response{
		Message: fmt.Sprintf("¡Hecho! Registré %d solicitudes; te contactarán pronto.", len(cards)),
		Cards:   cards,
		FollowUpQuestions: []string{
			"¿Necesitas algo más para tu viaje?",
		},
		PromptHint: "Confirm the booking requests in Spanish and set expectations about being contacted.",
	}, nil
}
