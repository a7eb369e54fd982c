package synth

import (
	"math"
	"testing"
)

// zeroRouter answers every input query with silence; suitable for
// exercising a module in isolation, with no upstream links.
type zeroRouter struct{}

func (zeroRouter) GetInput(input ModuleInput, voiceIdx, channel int, scratch *Buffer) *Buffer {
	return scratch
}

func (zeroRouter) GetSpectralInput(input ModuleInput, current bool, voiceIdx, channel int) *SpectralBuffer {
	return nil
}

func (zeroRouter) GetScalarInput(input ModuleInput, current bool, voiceIdx, channel int) Sample {
	return 0
}

func newTestLFO() (*LFO, *moduleConfig) {
	cfg := newModuleConfig(ModuleTypeLFO)
	return NewLFO(1, cfg), cfg
}

func lfoProcessParams(voiceIdx int, sampleRate Sample) *ProcessParams {
	return &ProcessParams{
		Samples:      BufferSize,
		SampleRate:   sampleRate,
		TStep:        1.0 / sampleRate,
		BufferTStep:  Sample(BufferSize) / sampleRate,
		ActiveVoices: []int{voiceIdx},
	}
}

func TestLFOUnipolarOutputStaysInRange(t *testing.T) {
	l, _ := newTestLFO()
	l.SetFrequency(StereoSample{4, 4})
	l.NoteOn(&NoteOnParams{VoiceIdx: 0})

	router := zeroRouter{}
	params := lfoProcessParams(0, 48000)
	for block := 0; block < 200; block++ {
		l.Process(params, router)
		for ch := 0; ch < NumChannels; ch++ {
			v := l.ScalarOutput(0, ch, true)
			if v < 0 || v > 1 {
				t.Fatalf("unipolar LFO output out of [0,1]: %v", v)
			}
		}
	}
}

func TestLFOBipolarOutputStaysInRange(t *testing.T) {
	l, _ := newTestLFO()
	l.SetBipolar(true)
	l.SetFrequency(StereoSample{7, 7})
	l.NoteOn(&NoteOnParams{VoiceIdx: 0})

	router := zeroRouter{}
	params := lfoProcessParams(0, 48000)
	for block := 0; block < 200; block++ {
		l.Process(params, router)
		for ch := 0; ch < NumChannels; ch++ {
			v := l.ScalarOutput(0, ch, true)
			if v < -1 || v > 1 {
				t.Fatalf("bipolar LFO output out of [-1,1]: %v", v)
			}
		}
	}
}

func TestLFOResetPhaseRestartsAtNoteOn(t *testing.T) {
	l, _ := newTestLFO()
	l.SetResetPhase(true)
	l.SetFrequency(StereoSample{3, 3})
	router := zeroRouter{}

	l.NoteOn(&NoteOnParams{VoiceIdx: 0})
	params := lfoProcessParams(0, 48000)
	l.Process(params, router)
	first := l.ScalarOutput(0, 0, true)

	for block := 0; block < 50; block++ {
		l.Process(params, router)
	}

	l.NoteOn(&NoteOnParams{VoiceIdx: 0})
	l.Process(params, router)
	restarted := l.ScalarOutput(0, 0, true)

	if math.Abs(float64(first-restarted)) > 1e-6 {
		t.Fatalf("expected phase reset to reproduce the initial sample, got %v then %v", first, restarted)
	}
}

func TestLFOShapeFuncEndpoints(t *testing.T) {
	if lfoTriangle(0) != 0 || lfoTriangle(0.5) != 1 {
		t.Fatalf("triangle shape endpoints wrong: f(0)=%v f(0.5)=%v", lfoTriangle(0), lfoTriangle(0.5))
	}
	if lfoSquare(0) != 1 || lfoSquare(0.9) != 0 {
		t.Fatalf("square shape endpoints wrong: f(0)=%v f(0.9)=%v", lfoSquare(0), lfoSquare(0.9))
	}
	if v := lfoSine(0); math.Abs(float64(v)) > 1e-6 {
		t.Fatalf("sine shape f(0) should be ~0, got %v", v)
	}
	if v := lfoSine(0.5); math.Abs(float64(v)-1) > 1e-6 {
		t.Fatalf("sine shape f(0.5) should be ~1, got %v", v)
	}
}

func TestLFOInputsDeclareScalarContract(t *testing.T) {
	l, _ := newTestLFO()
	if l.Output() != DataTypeScalar {
		t.Fatalf("LFO output type = %v, want DataTypeScalar", l.Output())
	}
	inputs := l.Inputs()
	if len(inputs) != 3 {
		t.Fatalf("expected 3 scalar inputs, got %d", len(inputs))
	}
}
