// README: Entry point; loads config, wires services and the agent, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"andino/internal/agent"
	"andino/internal/ai"
	"andino/internal/config"
	httptransport "andino/internal/http"
	"andino/internal/infra"
	"andino/internal/maps"
	"andino/internal/modules/catalog"
	"andino/internal/modules/conversation"
	"andino/internal/modules/rag"
)

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

	var geocoder catalog.Geocoder
	if cfg.Maps.APIKey != "" {
		resolver, err := maps.NewResolver(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		geocoder = resolver
	}

	catalogStore := catalog.NewStore(dbPool)
	catalogSvc := catalog.NewService(catalogStore, geocoder, logger)

	convStore := conversation.NewStore(dbPool)
	convSvc := conversation.NewService(convStore, logger)

	ragStore := rag.NewStore(dbPool)
	ragSvc := rag.NewService(provider, ragStore, catalogSvc, redisClient, logger)

	tools := agent.NewTools(catalogSvc, ragSvc, cfg.RAG.DefaultNamespace, logger)
	conversationExpert := agent.NewConversationExpert(tools)
	router := agent.NewRouter(conversationExpert,
		agent.NewSearchExpert(tools),
		agent.NewItineraryExpert(tools, logger),
		agent.NewBudgetExpert(catalogSvc, logger),
		agent.NewLeadExpert(convSvc, logger),
		conversationExpert,
	)

	orchestrator := agent.NewOrchestrator(
		convSvc,
		agent.NewClassifier(provider, logger),
		router,
		agent.NewSynthesizer(provider, logger),
		logger,
	)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Chat:   orchestrator,
		Logger: logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}
