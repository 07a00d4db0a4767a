package synth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/voxlab/ttsgate/internal/engine"
	"github.com/voxlab/ttsgate/internal/models"
)

// ErrNoPrompt is returned when a request carries no reference audio and the
// configured default prompt sample does not exist on disk.
var ErrNoPrompt = errors.New("no prompt audio provided and no default prompt sample found")

// Request describes one synthesis to perform.
type Request struct {
	Text       string
	PromptPath string // Optional; falls back to the default prompt sample
	PromptText string // Optional transcript of the prompt audio

	// Voice is accepted and carried through but not applied: the engine
	// derives timbre from the reference audio. Upstream acknowledges these
	// parameters as unimplemented.
	Voice models.VoiceParams
}

// Synthesizer wraps a loaded engine with output-file lifecycle management:
// timestamped output naming, default-prompt fallback, and removal of partial
// output when the engine fails.
type Synthesizer struct {
	eng           engine.Engine
	outputDir     string
	defaultPrompt string
}

func New(eng engine.Engine, outputDir, defaultPrompt string) *Synthesizer {
	return &Synthesizer{
		eng:           eng,
		outputDir:     outputDir,
		defaultPrompt: defaultPrompt,
	}
}

// OutputDir returns the directory generated audio is written to.
func (s *Synthesizer) OutputDir() string {
	return s.outputDir
}

// Synthesize runs one inference and returns the path of the generated WAV.
// On engine failure any partially written output file is removed and no
// retry is attempted.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (string, error) {
	if req.Text == "" {
		return "", fmt.Errorf("text is required")
	}

	promptPath := req.PromptPath
	if promptPath == "" {
		if _, err := os.Stat(s.defaultPrompt); err != nil {
			return "", ErrNoPrompt
		}
		promptPath = s.defaultPrompt
	}

	// A one-character transcript carries no signal; the engine treats it as absent.
	promptText := req.PromptText
	if len(promptText) <= 1 {
		promptText = ""
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(s.outputDir, outputName(time.Now()))

	log.Printf("[Synth] Starting TTS inference (output=%s)", filepath.Base(outputPath))

	err := s.eng.Synthesize(ctx, engine.Request{
		Text:       req.Text,
		PromptPath: promptPath,
		PromptText: promptText,
		OutputPath: outputPath,
	})
	if err != nil {
		// Remove a partially written output file if the engine got that far.
		if _, statErr := os.Stat(outputPath); statErr == nil {
			if rmErr := os.Remove(outputPath); rmErr != nil {
				log.Printf("[Synth] Failed to remove partial output %s: %v", outputPath, rmErr)
			}
		}
		return "", fmt.Errorf("tts inference failed: %w", err)
	}

	log.Printf("[Synth] Audio saved at: %s", outputPath)
	return outputPath, nil
}

// outputName builds the timestamped file name. Microsecond precision keeps
// concurrent requests in the same second from colliding.
func outputName(now time.Time) string {
	return fmt.Sprintf("tts_output_%s_%06d.wav", now.Format("20060102150405"), now.Nanosecond()/1000)
}
