// README: RAG scoring and hydration tests with fake index/embedder.
package rag

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"andino/internal/modules/catalog"
	"andino/internal/modules/trip"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	matches  []Match
	upserted []*Document
	deleted  []string
}

func (f *fakeIndex) Query(ctx context.Context, ns string, vec []float32, limit int) ([]Match, error) {
	return append([]Match(nil), f.matches...), nil
}

func (f *fakeIndex) Upsert(ctx context.Context, d *Document) error {
	f.upserted = append(f.upserted, d)
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, ns string, ids []string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeFinder struct {
	entities map[string]*catalog.Entity
}

func (f *fakeFinder) FindByID(ctx context.Context, et trip.EntityType, id string) (*catalog.Entity, error) {
	if e, ok := f.entities[id]; ok {
		return e, nil
	}
	return nil, catalog.ErrNotFound
}

func TestApplyScoreRules(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
		want   int
	}{
		{"dominant top keeps one", []float64{0.82, 0.40}, 1},
		{"close scores keep both", []float64{0.50, 0.48}, 2},
		{"strong but narrow lead keeps both", []float64{0.80, 0.70}, 2},
		{"below minimum dropped", []float64{0.82, 0.10}, 1},
		{"all noise", []float64{0.20, 0.10}, 0},
		{"single strong match", []float64{0.90}, 1},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var matches []Match
			for i, sc := range tc.scores {
				matches = append(matches, Match{Score: sc, EntityID: string(rune('a' + i))})
			}
			got := ApplyScoreRules(matches)
			if len(got) != tc.want {
				t.Errorf("kept %d matches, want %d (scores %v)", len(got), tc.want, tc.scores)
			}
		})
	}
}

func TestSearchHydratesAndDegrades(t *testing.T) {
	index := &fakeIndex{matches: []Match{
		{Score: 0.82, EntityType: trip.EntityPlace, EntityID: "p-1", Title: "Laguna Sagrada", Content: "laguna ceremonial"},
		{Score: 0.60, EntityType: trip.EntityPlace, EntityID: "p-gone", Title: "Mirador Viejo", Content: "cerrado"},
	}}
	finder := &fakeFinder{entities: map[string]*catalog.Entity{
		"p-1": {ID: "p-1", Name: "Laguna Sagrada", Type: trip.EntityPlace},
	}}
	svc := NewService(fakeEmbedder{}, index, finder, nil, zap.NewNop())

	matches, err := svc.Search(context.Background(), "¿qué visitar?", "guatavita")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// 0.82 vs 0.60 is under the dominance margin, so both survive.
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Entity == nil || matches[0].Entity.ID != "p-1" {
		t.Errorf("top match not hydrated: %+v", matches[0])
	}
	if matches[1].Entity != nil {
		t.Errorf("stale match should degrade to metadata, got %+v", matches[1].Entity)
	}
	if matches[1].Title != "Mirador Viejo" {
		t.Errorf("degraded match lost its stored metadata")
	}
}

func TestIndexAndRemoveEntity(t *testing.T) {
	index := &fakeIndex{}
	svc := NewService(fakeEmbedder{}, index, &fakeFinder{}, nil, zap.NewNop())

	entity := &catalog.Entity{
		ID:          "l-1",
		Type:        trip.EntityLodging,
		Name:        "Hostal Laguna",
		Description: "Habitaciones con vista al embalse",
	}
	if err := svc.IndexEntity(context.Background(), "guatavita", entity); err != nil {
		t.Fatalf("index entity: %v", err)
	}
	if len(index.upserted) != 1 {
		t.Fatalf("got %d upserts, want 1", len(index.upserted))
	}
	doc := index.upserted[0]
	if doc.ID != "lodging:l-1" {
		t.Errorf("doc id = %q, want lodging:l-1", doc.ID)
	}
	if doc.Namespace != "guatavita" || doc.Title != "Hostal Laguna" {
		t.Errorf("doc fields wrong: %+v", doc)
	}
	if len(doc.Embedding) == 0 {
		t.Error("document indexed without an embedding")
	}

	if err := svc.RemoveEntity(context.Background(), "guatavita", trip.EntityLodging, "l-1"); err != nil {
		t.Fatalf("remove entity: %v", err)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "lodging:l-1" {
		t.Errorf("deleted ids = %v, want [lodging:l-1]", index.deleted)
	}
}

func TestSearchDominantResult(t *testing.T) {
	index := &fakeIndex{matches: []Match{
		{Score: 0.82, EntityType: trip.EntityPlace, EntityID: "p-1", Title: "Laguna Sagrada"},
		{Score: 0.40, EntityType: trip.EntityPlace, EntityID: "p-2", Title: "Plaza"},
	}}
	finder := &fakeFinder{entities: map[string]*catalog.Entity{
		"p-1": {ID: "p-1", Type: trip.EntityPlace},
		"p-2": {ID: "p-2", Type: trip.EntityPlace},
	}}
	svc := NewService(fakeEmbedder{}, index, finder, nil, zap.NewNop())

	matches, err := svc.Search(context.Background(), "la laguna de guatavita", "guatavita")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || matches[0].EntityID != "p-1" {
		t.Errorf("dominant query should keep exactly the top match, got %+v", matches)
	}
}
