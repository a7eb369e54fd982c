package additizer

import (
	"bytes"
	"testing"

	"github.com/cbegin/additizer-go/internal/synth"
)

func TestRenderProducesExpectedFrameCount(t *testing.T) {
	p, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := BuildDefaultPatch(p.Engine()); err != nil {
		t.Fatalf("BuildDefaultPatch: %v", err)
	}

	score := []NoteEvent{
		{Time: 0, Kind: NoteEventOn, Channel: 0, Note: 60, Velocity: 1},
		{Time: 0.5, Kind: NoteEventOff, Channel: 0, Note: 60, Velocity: 0},
	}
	samples := p.RenderSamples(score, 1.0)
	if len(samples) != 48000*2 {
		t.Fatalf("expected %d interleaved samples, got %d", 48000*2, len(samples))
	}
}

func TestRenderWritesValidWAVHeader(t *testing.T) {
	p, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := BuildDefaultPatch(p.Engine()); err != nil {
		t.Fatalf("BuildDefaultPatch: %v", err)
	}

	var buf bytes.Buffer
	score := []NoteEvent{{Time: 0, Kind: NoteEventOn, Channel: 0, Note: 69, Velocity: 1}}
	if err := p.Render(&buf, score, 0.25); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data := buf.Bytes()
	if len(data) < 44 {
		t.Fatalf("WAV too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", data[:12])
	}
	wantFrames := int(44100 * 0.25)
	wantDataSize := wantFrames * synth.NumChannels * 4
	if len(data) != 44+wantDataSize {
		t.Fatalf("expected %d total bytes, got %d", 44+wantDataSize, len(data))
	}
}

func TestEffectChainAltersRenderedOutput(t *testing.T) {
	score := []NoteEvent{
		{Time: 0, Kind: NoteEventOn, Channel: 0, Note: 60, Velocity: 1},
		{Time: 0.1, Kind: NoteEventOff, Channel: 0, Note: 60, Velocity: 0},
	}

	dry, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := BuildDefaultPatch(dry.Engine()); err != nil {
		t.Fatalf("BuildDefaultPatch: %v", err)
	}
	dryOut := dry.RenderSamples(score, 0.5)

	wet, err := NewPlayer(48000, WithEffects(synth.EffectSpec{Type: "delay"}, synth.EffectSpec{Type: "reverb"}))
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := BuildDefaultPatch(wet.Engine()); err != nil {
		t.Fatalf("BuildDefaultPatch: %v", err)
	}
	wetOut := wet.RenderSamples(score, 0.5)

	if len(dryOut) != len(wetOut) {
		t.Fatalf("sample count mismatch: dry=%d wet=%d", len(dryOut), len(wetOut))
	}
	differs := false
	for i := range dryOut {
		if dryOut[i] != wetOut[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("expected the installed delay/reverb chain to change the rendered output")
	}

	// The delay/reverb tail should still be producing signal after the
	// dry voice has fully released and gone silent.
	tailStart := int(48000 * 0.45 * 2)
	tailSilent := true
	for _, s := range wetOut[tailStart:] {
		if s != 0 {
			tailSilent = false
			break
		}
	}
	if tailSilent {
		t.Fatal("expected the delay/reverb tail to still be audible after the dry voice released")
	}
}

func TestDefaultPatchProducesNonSilentOutput(t *testing.T) {
	p, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := BuildDefaultPatch(p.Engine()); err != nil {
		t.Fatalf("BuildDefaultPatch: %v", err)
	}

	score := []NoteEvent{
		{Time: 0, Kind: NoteEventOn, Channel: 0, Note: 60, Velocity: 1},
	}
	samples := p.RenderSamples(score, 0.2)

	peak := float32(0)
	for _, s := range samples {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak == 0 {
		t.Fatal("expected non-silent output after a note-on, got all zeros")
	}
}
