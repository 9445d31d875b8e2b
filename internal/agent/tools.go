// README: Tool executor; search dispatch, entity selection, RAG lookup.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"andino/internal/modules/catalog"
	"andino/internal/modules/trip"
)

// Tool names. Seven parametrized searches plus selection and RAG lookup.
const (
	ToolSearchLodgings    = "search_lodgings"
	ToolSearchRestaurants = "search_restaurants"
	ToolSearchExperiences = "search_experiences"
	ToolSearchPlaces      = "search_places"
	ToolSearchGuides      = "search_guides"
	ToolSearchTransports  = "search_transports"
	ToolSearchCommerces   = "search_commerces"
	ToolSelectEntity      = "select_entity"
	ToolRAGSearch         = "rag_search"
)

var searchToolEntity = map[string]trip.EntityType{
	ToolSearchLodgings:    trip.EntityLodging,
	ToolSearchRestaurants: trip.EntityRestaurant,
	ToolSearchExperiences: trip.EntityExperience,
	ToolSearchPlaces:      trip.EntityPlace,
	ToolSearchGuides:      trip.EntityGuide,
	ToolSearchTransports:  trip.EntityTransport,
	ToolSearchCommerces:   trip.EntityCommerce,
}

// searchToolFor returns the tool name serving one search intent.
func searchToolFor(intent Intent) (string, bool) {
	et, ok := searchIntentEntity[intent]
	if !ok {
		return "", false
	}
	for name, t := range searchToolEntity {
		if t == et {
			return name, true
		}
	}
	return "", false
}

// ToolResult is what one tool execution produced. Results carries the new
// candidate list for searches; Selected is set only when the selection
// heuristic resolved to exactly one candidate.
type ToolResult struct {
	Cards    []Card
	Results  *trip.LastResults
	Selected *trip.ResultRef
}

// Tools is the dispatch table of deterministic domain operations.
type Tools struct {
	catalog          Catalog
	knowledge        Knowledge
	superlatives     SuperlativeDetector
	defaultNamespace string
	logger           *zap.Logger
}

func NewTools(cat Catalog, knowledge Knowledge, defaultNamespace string, logger *zap.Logger) *Tools {
	return &Tools{
		catalog:          cat,
		knowledge:        knowledge,
		superlatives:     NewSuperlativeDetector(),
		defaultNamespace: defaultNamespace,
		logger:           logger,
	}
}

// Execute dispatches one named tool against the current turn.
func (t *Tools) Execute(ctx context.Context, name string, turn *TurnContext) (*ToolResult, error) {
	if et, ok := searchToolEntity[name]; ok {
		return t.search(ctx, et, turn)
	}
	switch name {
	case ToolSelectEntity:
		return t.selectEntity(ctx, turn)
	case ToolRAGSearch:
		return t.ragSearch(ctx, turn)
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

func (t *Tools) search(ctx context.Context, et trip.EntityType, turn *TurnContext) (*ToolResult, error) {
	f := catalog.Filter{Limit: catalog.PageSize}
	if turn.State != nil {
		if town := t.resolveTown(ctx, turn.State); town != nil {
			f.TownID = town.ID
		}
		if turn.State.BudgetMin != nil {
			f.BudgetMin = *turn.State.BudgetMin
		}
		if turn.State.BudgetMax != nil {
			f.BudgetMax = *turn.State.BudgetMax
		}
	}

	entities, err := t.catalog.Search(ctx, et, f)
	if err != nil {
		// A failing source behaves as an empty one; the turn continues.
		t.logger.Warn("catalog search failed",
			zap.String("entity_type", string(et)), zap.Error(err))
		entities = nil
	}

	result := &ToolResult{Results: &trip.LastResults{EntityType: et}}
	for i, e := range entities {
		pos := i + 1
		result.Cards = append(result.Cards, entityCard(&e, pos))
		result.Results.Items = append(result.Results.Items, trip.ResultRef{
			ID: e.ID, Name: e.Name, Position: pos,
		})
	}
	return result, nil
}

// selectEntity resolves a reference to the previously shown list, in order:
// explicit 1-based position, name substring, superlative keywords. If none
// resolves, the unmodified candidate list comes back — never a silent guess.
func (t *Tools) selectEntity(ctx context.Context, turn *TurnContext) (*ToolResult, error) {
	state := turn.State
	if state == nil || state.LastResults == nil || len(state.LastResults.Items) == 0 {
		return &ToolResult{}, nil
	}
	items := state.LastResults.Items
	et := state.LastResults.EntityType

	if p := turn.Classification.Extracted.Position; p != nil {
		if *p >= 1 && *p <= len(items) {
			return t.selected(ctx, et, items[*p-1]), nil
		}
		return t.unresolved(ctx, et, items), nil
	}

	if name := turn.Classification.Extracted.EntityName; name != nil && *name != "" {
		needle := strings.ToLower(*name)
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Name), needle) {
				return t.selected(ctx, et, it), nil
			}
		}
	}

	if sup := t.superlatives.Detect(turn.Message); sup != SuperlativeNone {
		if ref := t.resolveSuperlative(ctx, et, items, sup); ref != nil {
			return t.selected(ctx, et, *ref), nil
		}
	}

	return t.unresolved(ctx, et, items), nil
}

// resolveSuperlative re-fetches the referenced entities and sorts by the
// relevant numeric field; ties keep the original list order.
func (t *Tools) resolveSuperlative(ctx context.Context, et trip.EntityType, items []trip.ResultRef, sup Superlative) *trip.ResultRef {
	type scored struct {
		ref   trip.ResultRef
		value float64
	}
	var candidates []scored
	for _, it := range items {
		e, err := t.catalog.FindByID(ctx, et, it.ID)
		if err != nil {
			t.logger.Warn("superlative re-fetch failed",
				zap.String("id", it.ID), zap.Error(err))
			continue
		}
		v := e.Price
		if sup == SuperlativeBestRated {
			v = e.Rating
		}
		candidates = append(candidates, scored{ref: it, value: v})
	}
	if len(candidates) == 0 {
		return nil
	}

	asc := sup == SuperlativeCheapest
	sort.SliceStable(candidates, func(i, j int) bool {
		if asc {
			return candidates[i].value < candidates[j].value
		}
		return candidates[i].value > candidates[j].value
	})
	return &candidates[0].ref
}

func (t *Tools) selected(ctx context.Context, et trip.EntityType, ref trip.ResultRef) *ToolResult {
	res := &ToolResult{Selected: &ref}
	if e, err := t.catalog.FindByID(ctx, et, ref.ID); err == nil {
		res.Cards = []Card{entityCard(e, ref.Position)}
	} else {
		res.Cards = []Card{{
			Type: CardEntity, EntityType: et, EntityID: ref.ID,
			Position: ref.Position, Title: ref.Name,
		}}
	}
	return res
}

func (t *Tools) unresolved(ctx context.Context, et trip.EntityType, items []trip.ResultRef) *ToolResult {
	res := &ToolResult{Results: &trip.LastResults{EntityType: et, Items: items}}
	for _, it := range items {
		card := Card{
			Type: CardEntity, EntityType: et, EntityID: it.ID,
			Position: it.Position, Title: it.Name,
		}
		if e, err := t.catalog.FindByID(ctx, et, it.ID); err == nil {
			card = entityCard(e, it.Position)
		}
		res.Cards = append(res.Cards, card)
	}
	return res
}

// ragSearch answers destination questions from the vector index, scoped to
// the trip's town namespace.
func (t *Tools) ragSearch(ctx context.Context, turn *TurnContext) (*ToolResult, error) {
	namespace := t.defaultNamespace
	if turn.State != nil {
		if town := t.resolveTown(ctx, turn.State); town != nil {
			namespace = town.Slug
		}
	}

	matches, err := t.knowledge.Search(ctx, turn.Message, namespace)
	if err != nil {
		t.logger.Warn("rag search failed", zap.String("namespace", namespace), zap.Error(err))
		return &ToolResult{}, nil
	}

	res := &ToolResult{}
	for i, m := range matches {
		if m.Entity != nil {
			res.Cards = append(res.Cards, entityCard(m.Entity, i+1))
			continue
		}
		res.Cards = append(res.Cards, Card{
			Type:       CardInfo,
			EntityType: m.EntityType,
			EntityID:   m.EntityID,
			Position:   i + 1,
			Title:      m.Title,
			Subtitle:   m.Content,
			Data:       m.Metadata,
		})
	}
	return res, nil
}

// resolveTown prefers the committed town id and falls back to resolving the
// free-text destination.
func (t *Tools) resolveTown(ctx context.Context, state *trip.State) *catalog.Town {
	if state.TownID != nil {
		if town, err := t.catalog.TownByID(ctx, *state.TownID); err == nil {
			return town
		}
	}
	if state.Destination != nil {
		if town, err := t.catalog.ResolveTown(ctx, *state.Destination); err == nil {
			return town
		}
	}
	return nil
}
