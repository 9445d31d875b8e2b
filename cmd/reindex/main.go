// README: Batch tool; rebuilds the vector index from public catalog rows.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"andino/internal/ai"
	"andino/internal/config"
	"andino/internal/infra"
	"andino/internal/modules/catalog"
	"andino/internal/modules/rag"
	"andino/internal/modules/trip"
)

var entityTables = map[trip.EntityType]string{
	trip.EntityLodging:    "lodgings",
	trip.EntityRestaurant: "restaurants",
	trip.EntityExperience: "experiences",
	trip.EntityPlace:      "places",
	trip.EntityGuide:      "guides",
	trip.EntityTransport:  "transports",
	trip.EntityCommerce:   "commerces",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("postgres init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case "openai":
		provider = ai.NewOpenAIProvider(cfg.AI.OpenAIKey)
	default:
		provider, err = ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal("gemini init", zap.Error(err))
		}
	}
	defer provider.Close()

	catalogStore := catalog.NewStore(dbPool)
	catalogSvc := catalog.NewService(catalogStore, nil, logger)
	ragSvc := rag.NewService(provider, rag.NewStore(dbPool), catalogSvc, redisClient, logger)

	towns, err := listTowns(ctx, dbPool)
	if err != nil {
		logger.Fatal("list towns", zap.Error(err))
	}

	var indexed, failed int
	for _, town := range towns {
		for et, table := range entityTables {
			entities, err := listPublicEntities(ctx, dbPool, table, et, town.ID)
			if err != nil {
				logger.Fatal("list entities",
					zap.String("table", table), zap.Error(err))
			}
			for i := range entities {
				if err := ragSvc.IndexEntity(ctx, town.Slug, &entities[i]); err != nil {
					failed++
					logger.Warn("index entity failed",
						zap.String("entity_id", entities[i].ID),
						zap.String("namespace", town.Slug),
						zap.Error(err))
					continue
				}
				indexed++
			}
		}
		logger.Info("town indexed", zap.String("slug", town.Slug))
	}

	logger.Info("reindex done", zap.Int("indexed", indexed), zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

func listTowns(ctx context.Context, db *pgxpool.Pool) ([]catalog.Town, error) {
	rows, err := db.Query(ctx, "SELECT id::text, name, slug, COALESCE(region, '') FROM towns ORDER BY slug")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var towns []catalog.Town
	for rows.Next() {
		var t catalog.Town
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Region); err != nil {
			return nil, err
		}
		towns = append(towns, t)
	}
	return towns, rows.Err()
}

func listPublicEntities(ctx context.Context, db *pgxpool.Pool, table string, et trip.EntityType, townID string) ([]catalog.Entity, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT id::text, town_id::text, name, COALESCE(description, ''),
               COALESCE(price, 0), COALESCE(rating, 0), COALESCE(review_count, 0), metadata
        FROM %s
        WHERE town_id = $1 AND is_public = TRUE`, table), townID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []catalog.Entity
	for rows.Next() {
		e := catalog.Entity{Type: et, IsPublic: true}
		if err := rows.Scan(&e.ID, &e.TownID, &e.Name, &e.Description,
			&e.Price, &e.Rating, &e.ReviewCount, &e.Metadata); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
