package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/voxlab/ttsgate/internal/cache"
	"github.com/voxlab/ttsgate/internal/models"
	"github.com/voxlab/ttsgate/internal/synth"
	"github.com/voxlab/ttsgate/internal/worker"
)

// maxUploadBytes caps in-memory buffering of the multipart prompt upload.
const maxUploadBytes = 32 << 20

type Handler struct {
	synth     atomic.Pointer[synth.Synthesizer] // nil until the engine finishes loading
	cache     cache.IdempotencyCache
	pool      *worker.Pool
	outputDir string
}

func NewHandler(c cache.IdempotencyCache, p *worker.Pool, outputDir string) *Handler {
	return &Handler{
		cache:     c,
		pool:      p,
		outputDir: outputDir,
	}
}

// SetSynthesizer publishes the loaded engine. Until this is called every
// synthesis request is answered with 503 instead of queued.
func (h *Handler) SetSynthesizer(s *synth.Synthesizer) {
	h.synth.Store(s)
}

// Hello handles GET /hello
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Hello! I am the IndexTTS API service. Nice to meet you!",
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateVoice handles POST /tts/create
// Form fields: text, gender (male|female), pitch (1-5), speed (1-5),
// optional idempotency_key. Responds with the generated WAV file.
func (h *Handler) CreateVoice(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if text == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	voice, err := models.ParseVoiceParams(
		r.FormValue("gender"), r.FormValue("pitch"), r.FormValue("speed"), true)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := r.FormValue("idempotency_key")
	if h.serveCached(w, r, key) {
		return
	}

	s := h.synth.Load()
	if s == nil {
		respondError(w, http.StatusServiceUnavailable, "Model not loaded yet. Please try again shortly.")
		return
	}

	h.synthesizeAndServe(w, r, s, key, synth.Request{
		Text:  text,
		Voice: voice,
	})
}

// CloneVoice handles POST /tts/clone
// Multipart fields: text, file prompt_audio, optional prompt_text,
// idempotency_key, and optional gender/pitch/speed (validated when present).
func (h *Handler) CloneVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	text := r.FormValue("text")
	if text == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	voice, err := models.ParseVoiceParams(
		r.FormValue("gender"), r.FormValue("pitch"), r.FormValue("speed"), false)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A cached result makes the uploaded prompt irrelevant; skip staging it.
	key := r.FormValue("idempotency_key")
	if h.serveCached(w, r, key) {
		return
	}

	s := h.synth.Load()
	if s == nil {
		respondError(w, http.StatusServiceUnavailable, "Model not loaded yet. Please try again shortly.")
		return
	}

	file, header, err := r.FormFile("prompt_audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Prompt audio file is required")
		return
	}
	defer file.Close()

	promptPath, err := h.stagePrompt(file, header.Filename)
	if err != nil {
		log.Printf("[API] Failed to stage prompt audio: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to store prompt audio")
		return
	}
	// Cleanup runs on every exit path, success or failure.
	defer func() {
		if err := os.Remove(promptPath); err != nil {
			log.Printf("[API] Failed to remove staged prompt %s: %v", promptPath, err)
		}
	}()

	h.synthesizeAndServe(w, r, s, key, synth.Request{
		Text:       text,
		PromptPath: promptPath,
		PromptText: r.FormValue("prompt_text"),
		Voice:      voice,
	})
}

// synthesizeAndServe dispatches one synthesis through the bounded pool,
// stores the result under the idempotency key, and streams the WAV back.
func (h *Handler) synthesizeAndServe(w http.ResponseWriter, r *http.Request, s *synth.Synthesizer, key string, req synth.Request) {
	var outputPath string
	err := h.pool.Do(r.Context(), func(ctx context.Context) error {
		path, synthErr := s.Synthesize(ctx, req)
		outputPath = path
		return synthErr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(w, http.StatusGatewayTimeout, "Synthesis timed out")
			return
		}
		log.Printf("[API] Synthesis failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if key != "" {
		if err := h.cache.Set(r.Context(), key, outputPath); err != nil {
			log.Printf("[API] Failed to store idempotency key %s: %v", key, err)
		} else {
			log.Printf("[API] Stored result for idempotency key: %s", key)
		}
	}

	serveAudio(w, r, outputPath)
}

// serveCached returns true when the idempotency key resolved to an existing
// output file and the response has been written. Cache errors degrade to a
// miss so a flaky backend cannot take down synthesis.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if key == "" {
		return false
	}

	path, ok, err := h.cache.Get(r.Context(), key)
	if err != nil {
		log.Printf("[API] Idempotency lookup failed for key %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}

	log.Printf("[API] Returning cached result for idempotency key: %s", key)
	serveAudio(w, r, path)
	return true
}

// stagePrompt writes the uploaded reference audio to a unique path inside
// the output directory for the duration of the request.
func (h *Handler) stagePrompt(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("prompt_%s_%s", uuid.New().String(), filepath.Base(filename))
	path := filepath.Join(h.outputDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write staging file: %w", err)
	}

	log.Printf("[API] Prompt audio staged at %s", path)
	return path, nil
}

func serveAudio(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
