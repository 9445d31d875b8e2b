// README: RAG document and match models.
package rag

import (
	"andino/internal/modules/catalog"
	"andino/internal/modules/trip"
)

// Document is one indexed chunk of catalog knowledge, partitioned by
// namespace (the town slug).
type Document struct {
	ID         string
	Namespace  string
	EntityType trip.EntityType
	EntityID   string
	Title      string
	Content    string
	Metadata   map[string]any
	Embedding  []float32
}

// Match is one similarity hit, hydrated back to its catalog record when the
// record still exists. Entity is nil for stale index entries; Title/Content
// always carry the stored metadata so a degraded card can be built.
type Match struct {
	Score      float64
	EntityType trip.EntityType
	EntityID   string
	Title      string
	Content    string
	Metadata   map[string]any
	Entity     *catalog.Entity
}

const (
	// MinScore discards noise matches below this similarity.
	MinScore = 0.30
	// DominanceThreshold and DominanceMargin implement the "dominant result"
	// rule: a top match above the threshold that beats the runner-up by the
	// margin treats the query as specific and suppresses the rest.
	DominanceThreshold = 0.75
	DominanceMargin    = 1.5
	// TopK caps how many candidates the index returns per query.
	TopK = 5
)
