package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// ---------------------------------------------------------------------------
// IndexTTS — exec-based inference backend
// The acoustic model, vocoder and speaker-embedding extraction all live in
// the external indextts binary; this handle only resolves the device, checks
// the model directory and drives one process per synthesis.
// ---------------------------------------------------------------------------

// LoadOptions configures construction of the IndexTTS handle.
type LoadOptions struct {
	ModelDir string
	DeviceID int
	Bin      string // Name or path of the inference binary (default "indextts")
}

// IndexTTS invokes the external indextts binary for synthesis.
type IndexTTS struct {
	bin      string
	modelDir string
	cfgPath  string
	device   Device
}

// Ensure IndexTTS implements Engine at compile time.
var _ Engine = (*IndexTTS)(nil)

// Load constructs the engine handle once per process lifetime. It verifies
// the model directory and binary up front so the service fails at startup
// rather than on the first request.
func Load(opts LoadOptions) (*IndexTTS, error) {
	modelDir, err := filepath.Abs(opts.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model dir: %w", err)
	}

	if _, err := os.Stat(modelDir); err != nil {
		return nil, fmt.Errorf("model directory not found: %s", modelDir)
	}

	cfgPath := filepath.Join(modelDir, "config.yaml")
	if _, err := os.Stat(cfgPath); err != nil {
		return nil, fmt.Errorf("model config not found: %s", cfgPath)
	}

	bin := opts.Bin
	if bin == "" {
		bin = "indextts"
	}
	binPath, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("inference binary %q not found: %w", bin, err)
	}

	device := ResolveDevice(opts.DeviceID)
	log.Printf("[Engine] Loading model from %s on device %s", modelDir, device)

	return &IndexTTS{
		bin:      binPath,
		modelDir: modelDir,
		cfgPath:  cfgPath,
		device:   device,
	}, nil
}

// Device returns the resolved execution device.
func (e *IndexTTS) Device() Device {
	return e.device
}

// Synthesize runs one inference. The binary writes the WAV to req.OutputPath;
// stderr and stdout are folded into the error on failure so the engine's
// message reaches the caller.
func (e *IndexTTS) Synthesize(ctx context.Context, req Request) error {
	args := []string{
		"--config", e.cfgPath,
		"--model-dir", e.modelDir,
		"--device", string(e.device),
		"--voice", req.PromptPath,
		"--text", req.Text,
		"--output", req.OutputPath,
	}
	if e.device.IsCUDA() {
		args = append(args, "--fp16")
	}
	if req.PromptText != "" {
		args = append(args, "--prompt-text", req.PromptText)
	}

	log.Printf("[Engine] Synthesizing (textLen=%d, prompt=%s)", len(req.Text), filepath.Base(req.PromptPath))

	cmd := exec.CommandContext(ctx, e.bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("indextts failed: %w: %s", err, string(output))
	}

	return nil
}
