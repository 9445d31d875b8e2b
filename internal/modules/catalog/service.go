// README: Catalog service; search façade and destination→town resolution.
package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"andino/internal/modules/trip"
)

// Repository is the narrow read surface the service builds on.
type Repository interface {
	Search(ctx context.Context, et trip.EntityType, f Filter) ([]Entity, error)
	FindByID(ctx context.Context, et trip.EntityType, id string) (*Entity, error)
	TownByName(ctx context.Context, name string) (*Town, error)
	TownByID(ctx context.Context, id string) (*Town, error)
}

// Geocoder resolves free text to a municipality name. Optional; nil disables
// the fallback.
type Geocoder interface {
	Locality(ctx context.Context, text string) (string, error)
}

type Service struct {
	repo     Repository
	geocoder Geocoder
	logger   *zap.Logger
}

func NewService(repo Repository, geocoder Geocoder, logger *zap.Logger) *Service {
	return &Service{repo: repo, geocoder: geocoder, logger: logger}
}

func (s *Service) Search(ctx context.Context, et trip.EntityType, f Filter) ([]Entity, error) {
	return s.repo.Search(ctx, et, f)
}

func (s *Service) FindByID(ctx context.Context, et trip.EntityType, id string) (*Entity, error) {
	return s.repo.FindByID(ctx, et, id)
}

func (s *Service) TownByID(ctx context.Context, id string) (*Town, error) {
	return s.repo.TownByID(ctx, id)
}

// ResolveTown matches a destination against the towns table, trying the raw
// text first and then a geocoded locality name. A geocoding failure degrades
// to not-found rather than aborting the turn.
func (s *Service) ResolveTown(ctx context.Context, destination string) (*Town, error) {
	if destination == "" {
		return nil, ErrNotFound
	}
	town, err := s.repo.TownByName(ctx, destination)
	if err == nil {
		return town, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if s.geocoder == nil {
		return nil, ErrNotFound
	}

	locality, gerr := s.geocoder.Locality(ctx, destination)
	if gerr != nil {
		s.logger.Warn("geocoding fallback failed",
			zap.String("destination", destination), zap.Error(gerr))
		return nil, ErrNotFound
	}
	if locality == "" || locality == destination {
		return nil, ErrNotFound
	}
	return s.repo.TownByName(ctx, locality)
}
