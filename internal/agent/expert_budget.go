// README: Budget expert; deterministic cost breakdown from selections.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"andino/internal/modules/trip"
)

// Market-average constants (COP) used when a category has no selection.
const (
	avgLodgingNightCOP   = 180_000
	avgExperienceCOP     = 80_000
	foodPerPersonDayCOP  = 90_000
	transportPerDayCOP   = 40_000
	extrasPerDayCOP      = 50_000
	defaultBudgetDays    = 3
	defaultBudgetPersons = 2
)

type BudgetExpert struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewBudgetExpert(cat Catalog, logger *zap.Logger) *BudgetExpert {
	return &BudgetExpert{catalog: cat, logger: logger}
}

func (e *BudgetExpert) Name() string { return "budget" }

func (e *BudgetExpert) Description() string {
	return "computes a deterministic trip cost breakdown"
}

func (e *BudgetExpert) CanHandle(intent Intent) bool {
	return intent == IntentCalculateBudget
}

// BudgetLine is one row of the breakdown card.
type BudgetLine struct {
	Concept   string  `json:"concept"`
	Amount    float64 `json:"amount"`
	Estimated bool    `json:"estimated"`
	Detail    string  `json:"detail,omitempty"`
}

func (e *BudgetExpert) Handle(ctx context.Context, turn *TurnContext) (*Response, error) {
	state := turn.State
	if state == nil {
		state = &trip.State{}
	}

	days := state.DayCount()
	if days == 0 {
		days = defaultBudgetDays
	}
	nights := days - 1
	if nights < 1 {
		nights = 1
	}
	people := defaultBudgetPersons
	if state.PartySize != nil {
		people = *state.PartySize
	}

	var lines []BudgetLine

	// Lodging: selected rate per night, market average otherwise.
	lodgingRate := float64(avgLodgingNightCOP)
	lodgingEstimated := true
	if state.LodgingID != nil {
		if lodging, err := e.catalog.FindByID(ctx, trip.EntityLodging, *state.LodgingID); err == nil {
			lodgingRate = lodging.Price
			lodgingEstimated = false
		} else {
			e.logger.Warn("selected lodging not found", zap.String("id", *state.LodgingID), zap.Error(err))
		}
	}
	lines = append(lines, BudgetLine{
		Concept:   "Alojamiento",
		Amount:    lodgingRate * float64(nights),
		Estimated: lodgingEstimated,
		Detail:    fmt.Sprintf("%d noches x $%.0f", nights, lodgingRate),
	})

	// Daily heuristics.
	lines = append(lines,
		BudgetLine{
			Concept:   "Alimentación",
			Amount:    float64(foodPerPersonDayCOP) * float64(days) * float64(people),
			Estimated: true,
			Detail:    fmt.Sprintf("%d días x %d personas", days, people),
		},
		BudgetLine{
			Concept:   "Transporte local",
			Amount:    float64(transportPerDayCOP) * float64(days),
			Estimated: true,
			Detail:    fmt.Sprintf("%d días", days),
		},
		BudgetLine{
			Concept:   "Imprevistos",
			Amount:    float64(extrasPerDayCOP) * float64(days),
			Estimated: true,
			Detail:    fmt.Sprintf("%d días", days),
		},
	)

	// Experiences: sum of selected prices, one market average when nothing
	// is selected yet.
	if len(state.ExperienceIDs) > 0 {
		var total float64
		estimated := false
		for _, id := range state.ExperienceIDs {
			exp, err := e.catalog.FindByID(ctx, trip.EntityExperience, id)
			if err != nil {
				e.logger.Warn("selected experience not found", zap.String("id", id), zap.Error(err))
				total += avgExperienceCOP * float64(people)
				estimated = true
				continue
			}
			total += exp.Price * float64(people)
		}
		lines = append(lines, BudgetLine{
			Concept:   "Experiencias",
			Amount:    total,
			Estimated: estimated,
			Detail:    fmt.Sprintf("%d seleccionadas x %d personas", len(state.ExperienceIDs), people),
		})
	} else {
		lines = append(lines, BudgetLine{
			Concept:   "Experiencias",
			Amount:    avgExperienceCOP * float64(people),
			Estimated: true,
			Detail:    fmt.Sprintf("promedio x %d personas", people),
		})
	}

	var total float64
	for _, l := range lines {
		total += l.Amount
	}

	card := Card{
		Type:  CardBudget,
		Title: fmt.Sprintf("Presupuesto estimado: $%.0f COP", total),
		Data: map[string]any{
			"lines":    lines,
			"total":    total,
			"currency": "COP",
			"days":     days,
			"people":   people,
		},
	}

	resp := &Response{
		Message:          fmt.Sprintf("Para %d días y %d personas el estimado es $%.0f COP.", days, people, total),
		Cards:            []Card{card},
		SuggestedActions: []string{"plan_itinerary", "create_lead"},
		FollowUpQuestions: []string{
			"¿Ajustamos algo del plan para bajar el costo?",
		},
		PromptHint: "Walk through the budget lines in Spanish, flagging which are estimates.",
	}
	if state.BudgetMax != nil && total > *state.BudgetMax {
		resp.Message += fmt.Sprintf(" Ojo: supera tu presupuesto máximo de $%.0f.", *state.BudgetMax)
		resp.FollowUpQuestions = []string{"¿Busco opciones más económicas de alojamiento?"}
		resp.SuggestedActions = []string{"search_lodging"}
	}
	return resp, nil
}
