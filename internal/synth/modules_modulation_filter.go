package synth

import "math"

// biquadCoeffs are a direct-form-1 biquad's normalized (a0=1)
// coefficients, computed with the standard RBJ cookbook low-pass
// formula. No Go biquad library surfaced anywhere in the reference
// pack (the original reaches for the Rust "biquad" crate); this is a
// stdlib fallback, grounded structurally on the teacher's one-pole
// filter idiom (internal/effects/eq.go) generalized to second order.
type biquadCoeffs struct {
	b0, b1, b2 Sample
	a1, a2     Sample
}

func lowPassCoeffs(sampleRate, cutoff, q Sample) biquadCoeffs {
	w0 := 2 * math.Pi * float64(cutoff) / float64(sampleRate)
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * float64(q))

	b0 := (1 - cosW0) / 2
	b1 := 1 - cosW0
	b2 := (1 - cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return biquadCoeffs{
		b0: Sample(b0 / a0),
		b1: Sample(b1 / a0),
		b2: Sample(b2 / a0),
		a1: Sample(a1 / a0),
		a2: Sample(a2 / a0),
	}
}

// biquadState is a direct-form-1 IIR section's running sample history.
type biquadState struct {
	x1, x2 Sample
	y1, y2 Sample
}

func (s *biquadState) reset() {
	*s = biquadState{}
}

func (s *biquadState) run(coeffs *biquadCoeffs, x Sample) Sample {
	y := coeffs.b0*x + coeffs.b1*s.x1 + coeffs.b2*s.x2 - coeffs.a1*s.y1 - coeffs.a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// butterworthQ is the Q factor giving a maximally flat (Butterworth)
// 2-pole low-pass response.
const butterworthQ = 0.70710678

type modulationFilterVoice struct {
	filter        biquadState
	currentCutoff Sample
	coeffs        biquadCoeffs
	output        Buffer
}

// ModulationFilter smooths a modulation signal through a fixed 2-pole
// Butterworth low-pass, recomputing coefficients only when the cutoff
// actually changes. Its effective filter frequency is 4x the
// configured cutoff_frequency, matching the original's calibration.
// Grounded on
// original_source/src/synth_engine/modules/modulation_filter.rs.
type ModulationFilter struct {
	baseModule
	config          *moduleConfig
	cutoffFrequency Sample
	channels        [NumChannels]struct {
		voices [MaxVoices]modulationFilterVoice
	}
	inputBuf Buffer
}

func NewModulationFilter(id ModuleID, config *moduleConfig) *ModulationFilter {
	f := &ModulationFilter{
		baseModule:      newBaseModule(id, ModuleTypeModulationFilter),
		config:          config,
		cutoffFrequency: 1000.0,
	}
	for c := range f.channels {
		for v := range f.channels[c].voices {
			f.channels[c].voices[v].currentCutoff = -1.0
		}
	}
	f.saveConfig()
	return f
}

func (f *ModulationFilter) saveConfig() {
	f.config.set("cutoff_frequency", f.cutoffFrequency)
}

// SetCutoffFrequency sets the filter's nominal cutoff, clamped to
// [50, 2500] Hz (the effective filtered frequency is 4x this value).
func (f *ModulationFilter) SetCutoffFrequency(cutoff Sample) *ModulationFilter {
	f.cutoffFrequency = clamp(cutoff, 50, 2500)
	f.config.set("cutoff_frequency", f.cutoffFrequency)
	return f
}

func (f *ModulationFilter) Inputs() []InputType { return []InputType{InputAudio} }
func (f *ModulationFilter) Output() DataType    { return DataTypeBuffer }

func (f *ModulationFilter) NoteOn(params *NoteOnParams) {
	if !params.Reset {
		return
	}
	for c := range f.channels {
		f.channels[c].voices[params.VoiceIdx].filter.reset()
	}
}

func (f *ModulationFilter) processChannelVoice(channelIdx, voiceIdx int, params *ProcessParams, router Router) {
	voice := &f.channels[channelIdx].voices[voiceIdx]

	input := router.GetInput(NewInput(InputAudio, f.id), voiceIdx, channelIdx, &f.inputBuf)
	if input == nil {
		input = &ZeroBuffer
	}

	if voice.currentCutoff != f.cutoffFrequency {
		voice.coeffs = lowPassCoeffs(params.SampleRate, f.cutoffFrequency*4, butterworthQ)
		voice.currentCutoff = f.cutoffFrequency
	}

	for i := 0; i < params.Samples; i++ {
		voice.output[i] = voice.filter.run(&voice.coeffs, input[i])
	}
}

func (f *ModulationFilter) Process(params *ProcessParams, router Router) {
	for c := range f.channels {
		for _, voiceIdx := range params.ActiveVoices {
			f.processChannelVoice(c, voiceIdx, params, router)
		}
	}
}

func (f *ModulationFilter) BufferOutput(voiceIdx, channel int) *Buffer {
	return &f.channels[channel].voices[voiceIdx].output
}
