// README: Town resolution tests with fake repository and geocoder.
package catalog

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"andino/internal/modules/trip"
)

type fakeRepo struct {
	towns map[string]*Town
}

func (f *fakeRepo) Search(ctx context.Context, et trip.EntityType, fl Filter) ([]Entity, error) {
	return nil, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, et trip.EntityType, id string) (*Entity, error) {
	return nil, ErrNotFound
}

func (f *fakeRepo) TownByName(ctx context.Context, name string) (*Town, error) {
	if t, ok := f.towns[name]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) TownByID(ctx context.Context, id string) (*Town, error) {
	for _, t := range f.towns {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

type fakeGeocoder struct {
	locality string
	err      error
}

func (f *fakeGeocoder) Locality(ctx context.Context, text string) (string, error) {
	return f.locality, f.err
}

func TestResolveTownDirectMatch(t *testing.T) {
	repo := &fakeRepo{towns: map[string]*Town{
		"Guatavita": {ID: "t-1", Name: "Guatavita", Slug: "guatavita"},
	}}
	svc := NewService(repo, nil, zap.NewNop())

	town, err := svc.ResolveTown(context.Background(), "Guatavita")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if town.ID != "t-1" {
		t.Errorf("town = %+v, want t-1", town)
	}
}

func TestResolveTownGeocodingFallback(t *testing.T) {
	repo := &fakeRepo{towns: map[string]*Town{
		"Guatavita": {ID: "t-1", Name: "Guatavita", Slug: "guatavita"},
	}}
	svc := NewService(repo, &fakeGeocoder{locality: "Guatavita"}, zap.NewNop())

	town, err := svc.ResolveTown(context.Background(), "la laguna del cacique")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if town.Slug != "guatavita" {
		t.Errorf("town = %+v, want guatavita", town)
	}
}

func TestResolveTownGeocoderErrorDegrades(t *testing.T) {
	repo := &fakeRepo{towns: map[string]*Town{}}
	svc := NewService(repo, &fakeGeocoder{err: errors.New("quota exceeded")}, zap.NewNop())

	_, err := svc.ResolveTown(context.Background(), "pueblito perdido")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound (degraded)", err)
	}
}

func TestResolveTownEmptyDestination(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, zap.NewNop())
	if _, err := svc.ResolveTown(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
