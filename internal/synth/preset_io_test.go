package synth

import (
	"bytes"
	"testing"
)

func buildSavedEngine() (*Engine, ModuleID, ModuleID) {
	e := NewEngine(48000)
	osc := e.AddModule(ModuleTypeOscillator)
	amp := e.AddModule(ModuleTypeAmplifier)
	_ = e.SetLink(NewLink(NewOutput(OutputAudio, osc), NewInput(InputAudio, amp)))
	_ = e.SetLink(NewLink(NewOutput(OutputAudio, amp), NewInput(InputAudio, OutputModuleID)))

	if o, ok := e.Module(osc).(*Oscillator); ok {
		o.SetUnison(3)
		o.SetLevel(StereoSample{0.6, 0.7})
	}
	if a, ok := e.Module(amp).(*Amplifier); ok {
		a.SetLevel(StereoSample{0.5, 0.5})
	}
	e.SetOutputLevel(StereoSample{0.8, 0.9})
	return e, osc, amp
}

func TestSaveLoadRoundTripInMemory(t *testing.T) {
	src, osc, amp := buildSavedEngine()
	preset := src.Save("round trip")

	dst := NewEngine(48000)
	if err := dst.Load(preset); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, ok := dst.Module(osc).(*Oscillator)
	if !ok {
		t.Fatalf("module %d is not an Oscillator after Load", osc)
	}
	if got.unison != 3 {
		t.Fatalf("unison = %d, want 3", got.unison)
	}
	if got.channels[0].params.level != 0.6 || got.channels[1].params.level != 0.7 {
		t.Fatalf("level = %v, want {0.6 0.7}", got.channels)
	}

	gotAmp, ok := dst.Module(amp).(*Amplifier)
	if !ok {
		t.Fatalf("module %d is not an Amplifier after Load", amp)
	}
	if gotAmp.channels[0].params.level != 0.5 {
		t.Fatalf("amp level = %v, want 0.5", gotAmp.channels[0].params.level)
	}

	if len(dst.Links()) != len(src.Links()) {
		t.Fatalf("link count = %d, want %d", len(dst.Links()), len(src.Links()))
	}
}

func TestSaveLoadRoundTripThroughJSON(t *testing.T) {
	src, osc, _ := buildSavedEngine()
	preset := src.Save("json round trip")

	var buf bytes.Buffer
	if err := WritePreset(&buf, preset); err != nil {
		t.Fatalf("WritePreset: %v", err)
	}

	read, err := ReadPreset(&buf)
	if err != nil {
		t.Fatalf("ReadPreset: %v", err)
	}

	dst := NewEngine(48000)
	if err := dst.Load(read); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, ok := dst.Module(osc).(*Oscillator)
	if !ok {
		t.Fatalf("module %d is not an Oscillator after Load", osc)
	}
	if got.unison != 3 {
		t.Fatalf("unison = %d, want 3", got.unison)
	}
	if got.channels[0].params.level != 0.6 {
		t.Fatalf("level[0] = %v, want 0.6", got.channels[0].params.level)
	}
}

func TestSaveLoadRoundTripPreservesHarmonics(t *testing.T) {
	e := NewEngine(48000)
	editor := e.AddModule(ModuleTypeHarmonicEditor)
	he := e.Module(editor).(*HarmonicEditor)
	he.SetHarmonic(1, StereoSample{0.9, 0.4})
	he.SetHarmonic(3, StereoSample{0.2, 0.2})

	preset := e.Save("harmonics")
	var buf bytes.Buffer
	if err := WritePreset(&buf, preset); err != nil {
		t.Fatalf("WritePreset: %v", err)
	}
	read, err := ReadPreset(&buf)
	if err != nil {
		t.Fatalf("ReadPreset: %v", err)
	}

	dst := NewEngine(48000)
	if err := dst.Load(read); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := dst.Module(editor).(*HarmonicEditor)
	if got.harmonics[0] != (StereoSample{0.9, 0.4}) {
		t.Fatalf("harmonic 1 = %v, want {0.9 0.4}", got.harmonics[0])
	}
	if got.harmonics[2] != (StereoSample{0.2, 0.2}) {
		t.Fatalf("harmonic 3 = %v, want {0.2 0.2}", got.harmonics[2])
	}
}
