package synth

import "testing"

// constInputRouter feeds a fixed value into NewIndexedInput(InputAudio, ...)
// for the first two legs and answers every other query with silence.
type constInputRouter struct {
	legValues [2]Sample
	bufs      [2]Buffer
}

func newConstInputRouter(a, b Sample) *constInputRouter {
	r := &constInputRouter{legValues: [2]Sample{a, b}}
	for i := range r.bufs[0] {
		r.bufs[0][i] = a
		r.bufs[1][i] = b
	}
	return r
}

func (r *constInputRouter) GetInput(input ModuleInput, voiceIdx, channel int, scratch *Buffer) *Buffer {
	if input.Type == InputAudio && input.Index >= 0 && input.Index < 2 {
		return &r.bufs[input.Index]
	}
	return nil
}

func (r *constInputRouter) GetSpectralInput(input ModuleInput, current bool, voiceIdx, channel int) *SpectralBuffer {
	return nil
}

func (r *constInputRouter) GetScalarInput(input ModuleInput, current bool, voiceIdx, channel int) Sample {
	return 0
}

func TestMixerSumsActiveLegsAtUnityGain(t *testing.T) {
	cfg := newModuleConfig(ModuleTypeMixer)
	m := NewMixer(1, cfg)
	m.SetNumInputs(2)

	router := newConstInputRouter(0.3, 0.4)
	params := &ProcessParams{Samples: BufferSize, ActiveVoices: []int{0}}
	m.Process(params, router)

	out := m.BufferOutput(0, 0)
	want := Sample(0.3 + 0.4)
	for i, v := range out {
		if diff := v - want; diff < -1e-5 || diff > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestMixerInputGainScalesLeg(t *testing.T) {
	cfg := newModuleConfig(ModuleTypeMixer)
	m := NewMixer(1, cfg)
	m.SetNumInputs(1)
	m.SetVolumeType(0, VolumeTypeGain)
	m.SetInputGain(0, StereoSample{2.0, 2.0})

	router := newConstInputRouter(0.5, 0)
	params := &ProcessParams{Samples: BufferSize, ActiveVoices: []int{0}}
	m.Process(params, router)

	out := m.BufferOutput(0, 0)
	want := Sample(1.0)
	for i, v := range out {
		if diff := v - want; diff < -1e-5 || diff > 1e-5 {
			t.Fatalf("sample %d = %v, want %v after 2x gain", i, v, want)
		}
	}
}

func TestMixerOutputDbVolumeAttenuates(t *testing.T) {
	cfg := newModuleConfig(ModuleTypeMixer)
	m := NewMixer(1, cfg)
	m.SetNumInputs(1)
	m.SetOutputVolumeType(VolumeTypeDb)
	m.SetOutputLevel(StereoSample{-200, -200})

	router := newConstInputRouter(1.0, 0)
	params := &ProcessParams{Samples: BufferSize, ActiveVoices: []int{0}}
	m.Process(params, router)

	out := m.BufferOutput(0, 0)
	if out[0] > 1e-5 {
		t.Fatalf("expected near silence at -200dB output level, got %v", out[0])
	}
}
