package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxlab/ttsgate/internal/api"
	"github.com/voxlab/ttsgate/internal/cache"
	"github.com/voxlab/ttsgate/internal/config"
	"github.com/voxlab/ttsgate/internal/engine"
	"github.com/voxlab/ttsgate/internal/synth"
	"github.com/voxlab/ttsgate/internal/worker"
)

func main() {
	log.Println("Starting ttsgate API...")

	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure the output directory exists up front so staging and synthesis
	// never race on its creation.
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Select the idempotency cache backend
	var idemCache cache.IdempotencyCache
	switch cfg.CacheBackend {
	case "redis":
		redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisCache.Close()
		idemCache = redisCache
		log.Println("Idempotency cache: redis")
	default:
		idemCache = cache.NewMemory(cfg.CacheMaxEntries, cfg.CacheTTL)
		log.Printf("Idempotency cache: memory (max %d entries)", cfg.CacheMaxEntries)
	}

	// Bounded synthesis pool
	pool := worker.NewPool(cfg.MaxConcurrentSynth, cfg.SynthTimeout)
	log.Printf("Synthesis pool: %d slots, timeout %s", cfg.MaxConcurrentSynth, cfg.SynthTimeout)

	// Create API handler and router
	handler := api.NewHandler(idemCache, pool, cfg.OutputDir)
	router := api.NewRouter(handler, api.RouterConfig{
		APIKey:             cfg.APIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.APIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No TTS_API_KEY set — API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	// Load the engine in the background: the server answers /hello right
	// away and synthesis requests get 503 until the model is ready. A load
	// failure is fatal — the process cannot serve its purpose without it.
	go func() {
		eng, err := engine.Load(engine.LoadOptions{
			ModelDir: cfg.ModelDir,
			DeviceID: cfg.DeviceID,
			Bin:      cfg.EngineBin,
		})
		if err != nil {
			log.Fatalf("Failed to load model: %v", err)
		}

		handler.SetSynthesizer(synth.New(eng, cfg.OutputDir, cfg.DefaultPrompt))
		log.Printf("Model loaded (device: %s). Output directory: %s", eng.Device(), cfg.OutputDir)
	}()

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
