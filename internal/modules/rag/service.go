// README: RAG service; cached embeddings, dominance filtering, hydration.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"andino/internal/modules/catalog"
	"andino/internal/modules/trip"
)

// Embedder turns text into a vector. ai.LLMProvider satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the namespace-scoped vector surface. *Store satisfies it.
type Index interface {
	Query(ctx context.Context, namespace string, vector []float32, limit int) ([]Match, error)
	Upsert(ctx context.Context, d *Document) error
	Delete(ctx context.Context, namespace string, ids []string) error
}

// EntityFinder hydrates matches back to catalog records.
type EntityFinder interface {
	FindByID(ctx context.Context, et trip.EntityType, id string) (*catalog.Entity, error)
}

const embedCacheTTL = 24 * time.Hour

type Service struct {
	embedder Embedder
	index    Index
	finder   EntityFinder
	cache    *redis.Client
	logger   *zap.Logger
}

// NewService wires the RAG pipeline. cache may be nil; embeddings are then
// recomputed on every query.
func NewService(embedder Embedder, index Index, finder EntityFinder, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, index: index, finder: finder, cache: cache, logger: logger}
}

// Search embeds the query, runs a namespace-scoped similarity search, applies
// the minimum-score and dominant-result rules, and hydrates survivors. Index
// errors degrade to zero matches so a multi-source turn keeps going.
func (s *Service) Search(ctx context.Context, query, namespace string) ([]Match, error) {
	vector, err := s.embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed", zap.Error(err))
		return nil, nil
	}

	matches, err := s.index.Query(ctx, namespace, vector, TopK)
	if err != nil {
		s.logger.Warn("vector query failed",
			zap.String("namespace", namespace), zap.Error(err))
		return nil, nil
	}

	matches = ApplyScoreRules(matches)

	for i := range matches {
		entity, err := s.finder.FindByID(ctx, matches[i].EntityType, matches[i].EntityID)
		if err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				return nil, err
			}
			// Record was removed after indexing: the match degrades to its
			// stored metadata instead of failing the whole search.
			s.logger.Warn("stale index entry",
				zap.String("entity_id", matches[i].EntityID),
				zap.String("namespace", namespace))
			continue
		}
		matches[i].Entity = entity
	}
	return matches, nil
}

// ApplyScoreRules drops low-similarity matches and, when the top result is
// both strong and well ahead of the runner-up, keeps only the top (the query
// is specific rather than exploratory).
func ApplyScoreRules(matches []Match) []Match {
	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= MinScore {
			kept = append(kept, m)
		}
	}
	if len(kept) >= 2 &&
		kept[0].Score >= DominanceThreshold &&
		kept[0].Score >= kept[1].Score*DominanceMargin {
		return kept[:1]
	}
	return kept
}

// IndexEntity writes one catalog entity into its town's namespace.
func (s *Service) IndexEntity(ctx context.Context, namespace string, e *catalog.Entity) error {
	vector, err := s.embed(ctx, e.Name+"\n"+e.Description)
	if err != nil {
		return err
	}
	return s.index.Upsert(ctx, &Document{
		ID:         string(e.Type) + ":" + e.ID,
		Namespace:  namespace,
		EntityType: e.Type,
		EntityID:   e.ID,
		Title:      e.Name,
		Content:    e.Description,
		Metadata:   e.Metadata,
		Embedding:  vector,
	})
}

// RemoveEntity deletes one entity's document from a namespace.
func (s *Service) RemoveEntity(ctx context.Context, namespace string, et trip.EntityType, entityID string) error {
	return s.index.Delete(ctx, namespace, []string{string(et) + ":" + entityID})
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.cache == nil {
		return s.embedder.Embed(ctx, text)
	}

	sum := sha256.Sum256([]byte(text))
	key := "emb:" + hex.EncodeToString(sum[:])

	if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var vec []float32
		if json.Unmarshal(raw, &vec) == nil && len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(vec); err == nil {
		if err := s.cache.Set(ctx, key, raw, embedCacheTTL).Err(); err != nil {
			s.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	return vec, nil
}
