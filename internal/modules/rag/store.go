// README: Vector index backed by PostgreSQL + pgvector (cosine similarity).
package rag

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"andino/internal/modules/trip"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Query returns the nearest documents within one namespace, best first.
// Score is cosine similarity (1 - cosine distance).
func (s *Store) Query(ctx context.Context, namespace string, vector []float32, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = TopK
	}
	rows, err := s.db.Query(ctx, `
        SELECT entity_type, entity_id, title, content, metadata,
               1 - (embedding <=> $1) AS score
        FROM rag_documents
        WHERE namespace = $2
        ORDER BY embedding <=> $1
        LIMIT $3`, pgvector.NewVector(vector), namespace, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var et string
		var meta []byte
		if err := rows.Scan(&et, &m.EntityID, &m.Title, &m.Content, &meta, &m.Score); err != nil {
			return nil, err
		}
		m.EntityType = trip.EntityType(et)
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &m.Metadata)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Upsert writes or replaces one document in its namespace.
func (s *Store) Upsert(ctx context.Context, d *Document) error {
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO rag_documents (id, namespace, entity_type, entity_id, title, content, metadata, embedding)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            namespace = EXCLUDED.namespace,
            entity_type = EXCLUDED.entity_type,
            entity_id = EXCLUDED.entity_id,
            title = EXCLUDED.title,
            content = EXCLUDED.content,
            metadata = EXCLUDED.metadata,
            embedding = EXCLUDED.embedding`,
		d.ID, d.Namespace, string(d.EntityType), d.EntityID,
		d.Title, d.Content, meta, pgvector.NewVector(d.Embedding),
	)
	return err
}

// Delete removes documents by id within a namespace.
func (s *Store) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
        DELETE FROM rag_documents
        WHERE namespace = $1 AND id = ANY($2)`, namespace, ids)
	return err
}
