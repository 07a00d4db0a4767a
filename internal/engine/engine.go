package engine

import "context"

// ---------------------------------------------------------------------------
// Engine — common interface for TTS inference backends
// The API layer only ever talks to this interface so tests can swap in a
// stub engine without touching the handlers.
// ---------------------------------------------------------------------------

// Request describes one synthesis invocation.
type Request struct {
	// Text is the text to synthesize. Must be non-empty.
	Text string

	// PromptPath is the reference audio controlling the output voice.
	PromptPath string

	// PromptText is the transcript of the reference audio, when known.
	PromptText string

	// OutputPath is where the engine writes the generated WAV file.
	OutputPath string
}

// Engine is the interface any inference backend must implement.
// Synthesize writes the generated audio to req.OutputPath; on error the
// caller owns cleanup of any partial output.
type Engine interface {
	Synthesize(ctx context.Context, req Request) error
}
