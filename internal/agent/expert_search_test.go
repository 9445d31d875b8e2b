package agent

import (
	"context"
	"testing"

	"andino/internal/modules/trip"
)

func TestSearchExpertReturnsOptions(t *testing.T) {
	cat := lodgingCatalog()
	e := NewSearchExpert(newTestTools(cat, nil))

	resp, err := e.Handle(context.Background(), &TurnContext{
		State:   &trip.State{},
		Message: "busco dónde dormir",
		Intent:  IntentSearchLodging,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Cards) != 3 {
		t.Fatalf("cards = %d, want 3", len(resp.Cards))
	}
	if resp.StateUpdates == nil || resp.StateUpdates.LastResults == nil {
		t.Fatal("search must stage last_results for the next turn")
	}
	if got := resp.StateUpdates.LastResults.EntityType; got != trip.EntityLodging {
		t.Errorf("last_results type = %s, want lodging", got)
	}
	if resp.ToolUsed != ToolSearchLodgings {
		t.Errorf("tool = %s, want %s", resp.ToolUsed, ToolSearchLodgings)
	}
	if len(resp.SuggestedActions) == 0 || resp.SuggestedActions[0] != "select_entity" {
		t.Errorf("suggested actions = %v", resp.SuggestedActions)
	}
}

func TestSearchExpertAppliesThisTurnFacts(t *testing.T) {
	cat := lodgingCatalog()
	e := NewSearchExpert(newTestTools(cat, nil))

	// The budget arrives in the same message as the search; it must reach
	// the catalog filter on this turn, not the next.
	_, err := e.Handle(context.Background(), &TurnContext{
		State:   &trip.State{},
		Message: "hoteles de máximo 120 mil",
		Intent:  IntentSearchLodging,
		Classification: ClassificationResult{
			Extracted: ExtractedData{BudgetMax: f64Ptr(120_000)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cat.lastFilter.BudgetMax != 120_000 {
		t.Errorf("budget filter = %v, want 120000", cat.lastFilter.BudgetMax)
	}
}

func TestSearchExpertEmptyResults(t *testing.T) {
	e := NewSearchExpert(newTestTools(newFakeCatalog(), nil))

	resp, err := e.Handle(context.Background(), &TurnContext{
		State:   &trip.State{},
		Message: "busco guías",
		Intent:  IntentSearchGuide,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Cards) != 0 {
		t.Errorf("cards = %d, want 0", len(resp.Cards))
	}
	if !resp.RequiresMoreInfo {
		t.Error("empty search should ask for adjusted criteria")
	}
	if resp.StateUpdates != nil {
		t.Error("empty search must not overwrite last_results")
	}
}

func TestSelectionCommitsLodgingSlot(t *testing.T) {
	e := NewSearchExpert(newTestTools(lodgingCatalog(), nil))

	resp, err := e.Handle(context.Background(), &TurnContext{
		State:          &trip.State{LastResults: lodgingResults()},
		Message:        "la primera",
		Intent:         IntentSelectEntity,
		Classification: ClassificationResult{Extracted: ExtractedData{Position: intPtr(1)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StateUpdates == nil || resp.StateUpdates.LodgingID == nil {
		t.Fatal("selection must commit the lodging slot")
	}
	if *resp.StateUpdates.LodgingID != "a" {
		t.Errorf("lodging id = %s, want a", *resp.StateUpdates.LodgingID)
	}
}

func TestSelectionAccumulatesExperiences(t *testing.T) {
	cat := newFakeCatalog()
	cat.add(catalogEntity("x1", trip.EntityExperience, "Caminata laguna", 60_000, 4.7))
	cat.add(catalogEntity("x2", trip.EntityExperience, "Taller de cerámica", 45_000, 4.9))
	e := NewSearchExpert(newTestTools(cat, nil))

	state := &trip.State{
		ExperienceIDs: []string{"x1"},
		LastResults: &trip.LastResults{
			EntityType: trip.EntityExperience,
			Items: []trip.ResultRef{
				{ID: "x1", Name: "Caminata laguna", Position: 1},
				{ID: "x2", Name: "Taller de cerámica", Position: 2},
			},
		},
	}
	resp, err := e.Handle(context.Background(), &TurnContext{
		State:          state,
		Message:        "la segunda también",
		Intent:         IntentSelectEntity,
		Classification: ClassificationResult{Extracted: ExtractedData{Position: intPtr(2)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := resp.StateUpdates.ExperienceIDs
	if len(got) != 2 || got[0] != "x1" || got[1] != "x2" {
		t.Fatalf("experience ids = %v, want [x1 x2]", got)
	}

	// Selecting the same experience twice must not duplicate it.
	resp, err = e.Handle(context.Background(), &TurnContext{
		State:          state,
		Message:        "la primera",
		Intent:         IntentSelectEntity,
		Classification: ClassificationResult{Extracted: ExtractedData{Position: intPtr(1)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.StateUpdates.ExperienceIDs; len(got) != 1 || got[0] != "x1" {
		t.Fatalf("experience ids = %v, want [x1]", got)
	}
}

func TestSelectionWithoutPriorList(t *testing.T) {
	e := NewSearchExpert(newTestTools(lodgingCatalog(), nil))

	resp, err := e.Handle(context.Background(), &TurnContext{
		State:   &trip.State{},
		Message: "la primera",
		Intent:  IntentSelectEntity,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.RequiresMoreInfo {
		t.Error("no list shown yet: the expert should ask what to search")
	}
	if resp.StateUpdates != nil {
		t.Error("nothing to commit without a prior list")
	}
}

func TestSelectionAmbiguousKeepsList(t *testing.T) {
	e := NewSearchExpert(newTestTools(lodgingCatalog(), nil))

	resp, err := e.Handle(context.Background(), &TurnContext{
		State:   &trip.State{LastResults: lodgingResults()},
		Message: "ese que me dijiste",
		Intent:  IntentSelectEntity,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StateUpdates != nil {
		t.Error("ambiguous reference must not commit a selection")
	}
	if len(resp.Cards) != 3 {
		t.Errorf("cards = %d, want the 3 unmodified options back", len(resp.Cards))
	}
	if !resp.RequiresMoreInfo {
		t.Error("ambiguous reference should ask for clarification")
	}
}
