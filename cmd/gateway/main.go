package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kotodama/palisade/pkg/cascade"
	"github.com/kotodama/palisade/pkg/config"
	"github.com/kotodama/palisade/pkg/engine"
	"github.com/kotodama/palisade/pkg/httputil"
	"github.com/kotodama/palisade/pkg/identity"
	"github.com/kotodama/palisade/pkg/signature"
	"github.com/kotodama/palisade/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	store, cleanup, err := newStore(cfg)
	if err != nil {
		logger.Fatal("identity store init failed", zap.Error(err))
	}
	defer cleanup()

	registry := signature.NewRegistry()
	for _, path := range cfg.SignaturePacks {
		if err := registry.LoadPackFile(path); err != nil {
			logger.Fatal("signature pack rejected",
				zap.String("path", path), zap.Error(err))
		}
		logger.Info("signature pack loaded", zap.String("path", path))
	}

	manager := identity.NewManager(store, logger, cfg.IdentityParams())
	recorder := telemetry.NewRecorder(logger)
	analyzer := engine.New(cfg, registry, manager, recorder, logger)
	sem := httputil.NewSemaphore(cfg.MaxConcurrent)

	app := newApp(cfg, analyzer, registry, sem)

	go func() {
		logger.Info("gateway listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("store", string(cfg.StoreBackend)),
			zap.Int("signatures", registry.Snapshot().Total()))
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	logger.Info("gateway stopped")
}

func newLogger() (*zap.Logger, error) {
	if config.GetEnvBool("PALISADE_DEBUG", false) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newStore selects the identity backend from configuration. The returned
// cleanup releases client resources on shutdown.
func newStore(cfg *config.Config) (identity.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		store := identity.NewMemoryStore()
		return store, store.Close, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return identity.NewRedisStore(client), func() { client.Close() }, nil

	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := identity.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, errors.New("unknown store backend: " + string(cfg.StoreBackend))
	}
}

// ============================================================================
// HTTP Surface
// ============================================================================

type analyzeRequest struct {
	UserID  string   `json:"user_id"`
	Text    string   `json:"text"`
	History []string `json:"history,omitempty"`
	Signals struct {
		SeductiveVisual float64 `json:"seductive_visual"`
		EmotionalAudio  float64 `json:"emotional_audio"`
		PersonalVideo   float64 `json:"personal_video"`
	} `json:"signals"`
}

type analyzeResponse struct {
	ThreatDetected  bool     `json:"threat_detected"`
	ThreatLevel     string   `json:"threat_level"`
	ActionLevel     string   `json:"action_level"`
	AttackType      string   `json:"attack_type,omitempty"`
	Confidence      float64  `json:"confidence"`
	PatternsMatched []string `json:"patterns_matched,omitempty"`
	CascadeTriggers []string `json:"cascade_triggers,omitempty"`
	SequenceStages  []string `json:"sequence_stages,omitempty"`
	IdentityTier    string   `json:"identity_tier"`
	StateDurable    bool     `json:"state_durable"`
	LatencyMs       float64  `json:"latency_ms"`
}

func newApp(cfg *config.Config, analyzer *engine.Analyzer, registry *signature.Registry, sem *httputil.Semaphore) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Palisade Gateway",
	})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"version":    Version,
			"signatures": registry.Snapshot().Total(),
			"admission":  sem.Stats(),
		})
	})

	// Analyze sheds load at capacity rather than queueing; a 503 here is
	// retryable and keeps latency bounded for admitted requests.
	app.Post("/v1/analyze", func(c fiber.Ctx) error {
		if !sem.TryAcquire() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "at capacity, retry later",
			})
		}
		defer sem.Release()

		var req analyzeRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		ctx, cancel := context.WithTimeout(c.Context(), cfg.RequestTimeout)
		defer cancel()

		result, err := analyzer.Analyze(ctx, engine.Request{
			UserID: req.UserID,
			Text:   req.Text,
			ExternalSignals: cascade.ExternalSignals{
				SeductiveVisual: req.Signals.SeductiveVisual,
				EmotionalAudio:  req.Signals.EmotionalAudio,
				PersonalVideo:   req.Signals.PersonalVideo,
			},
			History: req.History,
		})
		if err != nil {
			return errorResponse(c, err)
		}

		triggers := make([]string, 0, len(result.CascadeTriggers))
		for _, t := range result.CascadeTriggers {
			triggers = append(triggers, string(t))
		}
		return c.JSON(analyzeResponse{
			ThreatDetected:  result.ThreatDetected,
			ThreatLevel:     result.ThreatLevel.String(),
			ActionLevel:     result.ActionLevel.String(),
			AttackType:      result.AttackType,
			Confidence:      result.Confidence,
			PatternsMatched: result.PatternsMatched,
			CascadeTriggers: triggers,
			SequenceStages:  result.SequenceStages,
			IdentityTier:    result.IdentityTier.String(),
			StateDurable:    result.StateDurable,
			LatencyMs:       float64(result.ProcessingTime.Microseconds()) / 1000.0,
		})
	})

	app.Get("/v1/identity/:id", func(c fiber.Ctx) error {
		status, err := analyzer.IdentityStatus(c.Context(), c.Params("id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"tier":              status.Tier.String(),
			"trust_score":       status.TrustScore,
			"recent_flag_count": status.RecentFlagCount,
		})
	})

	app.Post("/v1/identity/:id/reset", func(c fiber.Ctx) error {
		if err := analyzer.ResetIdentity(c.Context(), c.Params("id")); err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{"status": "reset"})
	})

	app.Post("/v1/signatures", func(c fiber.Ctx) error {
		var def signature.Definition
		if err := c.Bind().Body(&def); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := analyzer.AddSignature(def); err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": def.ID})
	})

	app.Delete("/v1/signatures/:id", func(c fiber.Ctx) error {
		if err := analyzer.DeactivateSignature(c.Params("id")); err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "status": "deactivated"})
	})

	return app
}

// errorResponse maps engine errors onto HTTP statuses.
func errorResponse(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, signature.ErrSignatureConfig):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, identity.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "identity not found"})
	case errors.Is(err, identity.ErrUpdateConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "concurrent update, retry"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
