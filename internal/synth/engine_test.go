package synth

import "testing"

func buildVoicePatch(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(48000)

	harmonics := e.AddModule(ModuleTypeHarmonicEditor)
	osc := e.AddModule(ModuleTypeOscillator)
	env := e.AddModule(ModuleTypeEnvelope)
	amp := e.AddModule(ModuleTypeAmplifier)

	links := []ModuleLink{
		NewLink(NewOutput(OutputSpectrum, harmonics), NewInput(InputSpectrum, osc)),
		NewLink(NewOutput(OutputAudio, osc), NewInput(InputAudio, amp)),
		NewLink(NewOutput(OutputAudio, env), NewInput(InputLevel, amp)),
		NewLink(NewOutput(OutputAudio, amp), NewInput(InputAudio, OutputModuleID)),
	}
	for _, link := range links {
		if err := e.SetLink(link); err != nil {
			t.Fatalf("SetLink(%+v): %v", link, err)
		}
	}
	return e
}

func renderBlock(e *Engine) (peak, sum StereoSample) {
	return renderBlockWithCallback(e, func(VoiceID) {})
}

func renderBlockWithCallback(e *Engine, onTerminate func(VoiceID)) (peak, sum StereoSample) {
	var left, right [BufferSize]Sample
	e.Process(BufferSize, [NumChannels][]Sample{left[:], right[:]}, onTerminate)
	for i := 0; i < BufferSize; i++ {
		if a := abs(left[i]); a > peak[0] {
			peak[0] = a
		}
		if a := abs(right[i]); a > peak[1] {
			peak[1] = a
		}
		sum[0] += left[i]
		sum[1] += right[i]
	}
	return peak, sum
}

func abs(v Sample) Sample {
	if v < 0 {
		return -v
	}
	return v
}

func TestEngineProducesSignalAfterNoteOn(t *testing.T) {
	e := buildVoicePatch(t)
	e.NoteOn(nil, 0, 69, 1)

	var sawSignal bool
	for block := 0; block < 4; block++ {
		peak, _ := renderBlock(e)
		if peak[0] > 0 || peak[1] > 0 {
			sawSignal = true
		}
	}
	if !sawSignal {
		t.Fatal("expected non-zero output after NoteOn")
	}
}

func TestEngineSilentWithNoActiveVoices(t *testing.T) {
	e := buildVoicePatch(t)
	peak, _ := renderBlock(e)
	if peak[0] != 0 || peak[1] != 0 {
		t.Fatalf("expected silence with no active voices, got peak %v", peak)
	}
}

func TestNoteOffReleasesTowardSilence(t *testing.T) {
	e := buildVoicePatch(t)
	e.NoteOn(nil, 0, 60, 1)
	for i := 0; i < 8; i++ {
		renderBlock(e)
	}
	e.NoteOff(0, 60, 0)

	terminated := false
	for i := 0; i < 4000 && !terminated; i++ {
		renderBlockWithCallback(e, func(VoiceID) { terminated = true })
	}
	if !terminated {
		t.Fatal("expected the engine to reclaim the released voice within the release tail")
	}
}

func TestVoiceStealingReportsTerminatedVoice(t *testing.T) {
	e := NewEngine(48000)
	for i := 0; i < MaxVoices; i++ {
		if terminated := e.NoteOn(nil, 0, uint8(i), 1); terminated != nil {
			t.Fatalf("unexpected steal on slot %d: %+v", i, terminated)
		}
	}
	terminated := e.NoteOn(nil, 0, 200, 1)
	if terminated == nil {
		t.Fatal("expected a voice to be stolen once the pool is full")
	}
	if terminated.Note != 0 {
		t.Fatalf("expected the oldest voice (note 0) to be stolen, got note %d", terminated.Note)
	}
}

func TestSetLinkRejectsCycles(t *testing.T) {
	e := NewEngine(48000)
	a := e.AddModule(ModuleTypeAmplifier)
	b := e.AddModule(ModuleTypeAmplifier)

	if err := e.SetLink(NewLink(NewOutput(OutputAudio, a), NewInput(InputAudio, b))); err != nil {
		t.Fatalf("first link: %v", err)
	}
	err := e.SetLink(NewLink(NewOutput(OutputAudio, b), NewInput(InputAudio, a)))
	if err != ErrCycle {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestSetLinkRejectsTypeMismatch(t *testing.T) {
	e := NewEngine(48000)
	editor := e.AddModule(ModuleTypeHarmonicEditor)
	amp := e.AddModule(ModuleTypeAmplifier)

	err := e.SetLink(NewLink(NewOutput(OutputSpectrum, editor), NewInput(InputAudio, amp)))
	if err != ErrTypeMismatch {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestSetOutputLevelScalesOutput(t *testing.T) {
	e := buildVoicePatch(t)
	e.NoteOn(nil, 0, 69, 1)
	for i := 0; i < 4; i++ {
		renderBlock(e)
	}
	e.SetOutputLevel(SplatStereo(0))
	for i := 0; i < 20; i++ {
		renderBlock(e)
	}
	peak, _ := renderBlock(e)
	if peak[0] > 1e-4 || peak[1] > 1e-4 {
		t.Fatalf("expected near silence after zeroing output level, got peak %v", peak)
	}
}
