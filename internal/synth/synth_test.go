package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/voxlab/ttsgate/internal/engine"
)

// stubEngine records invocations and writes a fake WAV to the output path.
type stubEngine struct {
	calls        int32
	fail         bool
	writePartial bool
	lastReq      engine.Request
}

func (s *stubEngine) Synthesize(_ context.Context, req engine.Request) error {
	atomic.AddInt32(&s.calls, 1)
	s.lastReq = req

	if s.fail {
		if s.writePartial {
			os.WriteFile(req.OutputPath, []byte("partial"), 0644)
		}
		return errors.New("engine exploded")
	}

	return os.WriteFile(req.OutputPath, []byte("RIFFfakewav"), 0644)
}

func writePrompt(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sample_prompt.wav")
	if err := os.WriteFile(path, []byte("RIFFprompt"), 0644); err != nil {
		t.Fatalf("failed to write prompt: %v", err)
	}
	return path
}

func listOutputs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "tts_output_") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestSynthesizeWritesTimestampedOutput(t *testing.T) {
	outDir := t.TempDir()
	prompt := writePrompt(t, t.TempDir())
	eng := &stubEngine{}
	s := New(eng, outDir, prompt)

	path, err := s.Synthesize(context.Background(), Request{Text: "hello world"})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "tts_output_") || !strings.HasSuffix(name, ".wav") {
		t.Errorf("unexpected output name: %s", name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	if got := listOutputs(t, outDir); len(got) != 1 {
		t.Errorf("expected exactly 1 output file, got %d", len(got))
	}
	if eng.lastReq.PromptPath != prompt {
		t.Errorf("expected default prompt %s, got %s", prompt, eng.lastReq.PromptPath)
	}
}

func TestSynthesizeUsesProvidedPrompt(t *testing.T) {
	outDir := t.TempDir()
	provided := writePrompt(t, t.TempDir())
	eng := &stubEngine{}
	s := New(eng, outDir, filepath.Join(outDir, "nonexistent_default.wav"))

	if _, err := s.Synthesize(context.Background(), Request{Text: "hi", PromptPath: provided}); err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	if eng.lastReq.PromptPath != provided {
		t.Errorf("expected provided prompt %s, got %s", provided, eng.lastReq.PromptPath)
	}
}

func TestSynthesizeFailsWithoutAnyPrompt(t *testing.T) {
	outDir := t.TempDir()
	eng := &stubEngine{}
	s := New(eng, outDir, filepath.Join(outDir, "nonexistent_default.wav"))

	_, err := s.Synthesize(context.Background(), Request{Text: "hi"})
	if !errors.Is(err, ErrNoPrompt) {
		t.Fatalf("expected ErrNoPrompt, got %v", err)
	}
	if atomic.LoadInt32(&eng.calls) != 0 {
		t.Error("engine must not be invoked without a prompt")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	eng := &stubEngine{}
	s := New(eng, t.TempDir(), writePrompt(t, t.TempDir()))

	if _, err := s.Synthesize(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty text")
	}
	if atomic.LoadInt32(&eng.calls) != 0 {
		t.Error("engine must not be invoked for empty text")
	}
}

func TestSynthesizeRemovesPartialOutputOnFailure(t *testing.T) {
	outDir := t.TempDir()
	eng := &stubEngine{fail: true, writePartial: true}
	s := New(eng, outDir, writePrompt(t, t.TempDir()))

	_, err := s.Synthesize(context.Background(), Request{Text: "boom"})
	if err == nil {
		t.Fatal("expected engine failure")
	}
	if !strings.Contains(err.Error(), "engine exploded") {
		t.Errorf("expected engine message surfaced, got %v", err)
	}
	if got := listOutputs(t, outDir); len(got) != 0 {
		t.Errorf("expected partial output removed, found %v", got)
	}
}

func TestSynthesizeDropsSingleCharPromptText(t *testing.T) {
	eng := &stubEngine{}
	s := New(eng, t.TempDir(), writePrompt(t, t.TempDir()))

	if _, err := s.Synthesize(context.Background(), Request{Text: "hi", PromptText: "x"}); err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if eng.lastReq.PromptText != "" {
		t.Errorf("expected single-char prompt text dropped, got %q", eng.lastReq.PromptText)
	}

	if _, err := s.Synthesize(context.Background(), Request{Text: "hi", PromptText: "a transcript"}); err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if eng.lastReq.PromptText != "a transcript" {
		t.Errorf("expected prompt text kept, got %q", eng.lastReq.PromptText)
	}
}
