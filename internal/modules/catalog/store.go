// README: Catalog store backed by PostgreSQL (per-type tables, shared shape).
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"andino/internal/modules/trip"
)

// tableFor maps an entity type to its table. Queries interpolate only values
// from this map, never caller input.
var tableFor = map[trip.EntityType]string{
	trip.EntityLodging:    "lodgings",
	trip.EntityRestaurant: "restaurants",
	trip.EntityExperience: "experiences",
	trip.EntityPlace:      "places",
	trip.EntityGuide:      "guides",
	trip.EntityTransport:  "transports",
	trip.EntityCommerce:   "commerces",
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Search returns public entities of one type, filtered by town and budget,
// ordered by rating then review count, capped to the page size.
func (s *Store) Search(ctx context.Context, et trip.EntityType, f Filter) ([]Entity, error) {
	table, ok := tableFor[et]
	if !ok {
		return nil, ErrUnknownType
	}
	limit := f.Limit
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}

	q := fmt.Sprintf(`
        SELECT id, town_id, name, description, price, rating, review_count, is_public, metadata
        FROM %s
        WHERE is_public = TRUE
          AND ($1 = '' OR town_id::text = $1)
          AND ($2::numeric = 0 OR price >= $2)
          AND ($3::numeric = 0 OR price <= $3)
        ORDER BY rating DESC, review_count DESC
        LIMIT $4`, table)

	rows, err := s.db.Query(ctx, q, f.TownID, f.BudgetMin, f.BudgetMax, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e, err := scanEntity(rows, et)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// FindByID fetches one entity regardless of visibility (selection must keep
// working even if a record was unpublished after being shown).
func (s *Store) FindByID(ctx context.Context, et trip.EntityType, id string) (*Entity, error) {
	table, ok := tableFor[et]
	if !ok {
		return nil, ErrUnknownType
	}
	q := fmt.Sprintf(`
        SELECT id, town_id, name, description, price, rating, review_count, is_public, metadata
        FROM %s
        WHERE id::text = $1`, table)

	row := s.db.QueryRow(ctx, q, id)
	e, err := scanEntity(row, et)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// TownByName resolves a destination by slug or case-insensitive name.
func (s *Store) TownByName(ctx context.Context, name string) (*Town, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, slug, region
        FROM towns
        WHERE slug = lower($1) OR lower(name) = lower($1)
        LIMIT 1`, name)

	var t Town
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Region)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TownByID fetches one town.
func (s *Store) TownByID(ctx context.Context, id string) (*Town, error) {
	row := s.db.QueryRow(ctx, `SELECT id, name, slug, region FROM towns WHERE id::text = $1`, id)

	var t Town
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Region)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanEntity(row pgx.Row, et trip.EntityType) (*Entity, error) {
	var e Entity
	var meta []byte
	err := row.Scan(&e.ID, &e.TownID, &e.Name, &e.Description, &e.Price,
		&e.Rating, &e.ReviewCount, &e.IsPublic, &meta)
	if err != nil {
		return nil, err
	}
	e.Type = et
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &e.Metadata)
	}
	return &e, nil
}
