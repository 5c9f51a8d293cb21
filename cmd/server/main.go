package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shophub-ai/assistant"
	"github.com/shophub-ai/assistant/internal/cache"
	"github.com/shophub-ai/assistant/internal/config"
	"github.com/shophub-ai/assistant/internal/eventbus"
	"github.com/shophub-ai/assistant/internal/executor"
	"github.com/shophub-ai/assistant/internal/knowledge"
	"github.com/shophub-ai/assistant/internal/llm"
	"github.com/shophub-ai/assistant/internal/observability"
	"github.com/shophub-ai/assistant/internal/planner"
	"github.com/shophub-ai/assistant/internal/session"
	"github.com/shophub-ai/assistant/internal/shop"
	"github.com/shophub-ai/assistant/internal/synthesizer"
	"github.com/shophub-ai/assistant/internal/tools"
	"github.com/shophub-ai/assistant/internal/uispec"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.ComponentLogger("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("model initialization failed")
	}

	shopClient := shop.NewClient(cfg.ShopAPIBaseURL,
		shop.WithLogger(observability.ComponentLogger("shop")),
	)
	toolset := tools.Setup(shopClient)

	planCache := cache.NewPlanCache(cache.NewInMemoryCache(cfg.PlanCacheTTL(),
		cache.WithLogger(observability.ComponentLogger("cache")),
	))

	var plannerImpl assistant.Planner
	if generator != nil {
		plannerImpl = planner.New(generator,
			planner.WithCache(planCache),
			planner.WithLogger(observability.ComponentLogger("planner")),
		)
	} else {
		logger.Warn().Msg("no model configured, using the rule planner")
		plannerImpl = planner.NewRulePlanner()
	}

	synthGenerator := generator
	if synthGenerator == nil {
		// Without a model every reply comes from the templated fallback.
		synthGenerator = llm.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("no model configured")
		})
	}

	bus := eventbus.NewChannelEventBus(
		eventbus.WithBufferSize(cfg.EventBusBufferSize),
		eventbus.WithWorkerCount(cfg.EventBusWorkerCount),
	)
	if _, err := bus.SubscribeAll(pipelineObserver(cfg, observability.ComponentLogger("pipeline"))); err != nil {
		logger.Fatal().Err(err).Msg("event subscription failed")
	}

	assistantConfig := assistant.DefaultConfig()
	assistantConfig.LLMTimeout = cfg.LLMTimeout()
	assistantConfig.ToolTimeout = cfg.ToolTimeout()
	assistantConfig.EnableKnowledge = cfg.EnableKnowledge
	assistantConfig.MaxHistoryTurns = cfg.MaxHistoryTurns

	app, err := assistant.New(
		assistant.WithConfig(assistantConfig),
		assistant.WithPlanner(plannerImpl),
		assistant.WithExecutor(executor.New(toolset,
			executor.WithToolTimeout(cfg.ToolTimeout()),
			executor.WithEventBus(bus),
			executor.WithLogger(observability.ComponentLogger("executor")),
		)),
		assistant.WithSynthesizer(synthesizer.New(synthGenerator,
			synthesizer.WithLogger(observability.ComponentLogger("synthesizer")),
		)),
		assistant.WithUIGenerator(uispec.New(
			uispec.WithLogger(observability.ComponentLogger("uispec")),
		)),
		assistant.WithKnowledgeRetriever(knowledge.NewKeywordRetriever(
			knowledge.WithLogger(observability.ComponentLogger("knowledge")),
		)),
		assistant.WithSessionStore(session.NewMemoryStore(
			session.WithMaxHistoryTurns(cfg.MaxHistoryTurns),
		)),
		assistant.WithTools(toolset),
		assistant.WithEventBus(bus),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("assistant initialization failed")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", handleChat(app, logger))
	mux.HandleFunc("/healthz", handleHealth)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("assistant service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
	bus.Close()
}

// buildGenerator initializes the Genkit-backed generator, or returns nil
// when no API key is configured so the service can run offline.
func buildGenerator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (llm.Generator, error) {
	if cfg.GeminiAPIKey == "" && os.Getenv("GEMINI_API_KEY") == "" {
		return nil, nil
	}

	g, err := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
		genkit.WithDefaultModel(cfg.ModelName),
	)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("model", cfg.ModelName).Msg("model initialized")
	return llm.NewGenkitGenerator(g, cfg.ModelName), nil
}

// chatRequestBody is the inbound transport shape.
type chatRequestBody struct {
	Message string `json:"message"`
	Context struct {
		SessionID  string `json:"session_id"`
		CustomerID string `json:"customer_id"`
	} `json:"context"`
}

func handleChat(app *assistant.Assistant, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body chatRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "request body is not valid JSON")
			return
		}
		if body.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		start := time.Now()
		response, err := app.Process(r.Context(), assistant.ChatRequest{
			Message:    body.Message,
			SessionID:  body.Context.SessionID,
			CustomerID: body.Context.CustomerID,
		})
		if err != nil {
			// Only cancellation or deadline reaches here.
			observability.RecordRequest("cancelled", time.Since(start))
			writeError(w, http.StatusRequestTimeout, "request was cancelled")
			return
		}

		status := "success"
		if response.Degraded {
			status = "degraded"
			observability.RecordDegraded()
		}
		observability.RecordRequest(status, time.Since(start))
		observability.RecordLayout(string(response.Layout))

		logger.Info().
			Str("session_id", response.SessionID).
			Str("layout", string(response.Layout)).
			Bool("degraded", response.Degraded).
			Dur("duration", time.Since(start)).
			Msg("chat request served")

		writeJSON(w, http.StatusOK, response)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// pipelineObserver logs pipeline events and feeds the stage metrics.
func pipelineObserver(cfg *config.Config, logger zerolog.Logger) eventbus.EventHandler {
	return func(ctx context.Context, event eventbus.Event) error {
		logger.Debug().
			Str("event", string(event.Type())).
			Str("source", event.Source()).
			Msg("pipeline event")

		if !cfg.MetricsEnabled {
			return nil
		}
		switch event.Type() {
		case eventbus.EventPlanningFallback:
			observability.RecordFallback("planning")
		case eventbus.EventSynthesisFallback:
			observability.RecordFallback("synthesis")
		case eventbus.EventUIGenerationFallback:
			observability.RecordFallback("ui_generation")
		case eventbus.EventRetrievalFailure:
			observability.RecordFallback("retrieval")
		case eventbus.EventToolExecutionSuccess:
			if tool, ok := event.Payload().(string); ok {
				observability.RecordToolCall(tool, "success")
			}
		case eventbus.EventToolExecutionFailure:
			if tool, ok := event.Payload().(string); ok {
				observability.RecordToolCall(tool, "failure")
			}
		}
		return nil
	}
}
