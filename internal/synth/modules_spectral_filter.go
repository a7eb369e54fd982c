package synth

import "math"

type spectralFilterChannelParams struct {
	cutoff Sample // octaves
}

// spectralFilterVoice double-buffers its spectral output the same way
// as the oscillator's wavetables: a "first" snapshot captured once at
// note-on, and the per-block "current" snapshot.
type spectralFilterVoice struct {
	needsReset  bool
	firstOutput SpectralBuffer
	output      SpectralBuffer
}

type spectralFilterChannel struct {
	params spectralFilterChannelParams
	voices [MaxVoices]spectralFilterVoice
}

// SpectralFilter is a 2-pole (optionally 4-pole) analytic low-pass
// applied bin-by-bin to a spectral frame. Grounded on
// original_source/src/synth_engine/modules/spectral_filter.rs; the
// 4-pole variant (reapplying H(k) to its own output) is this module's
// own four_pole switch (SetFourPole).
type SpectralFilter struct {
	baseModule
	config   *moduleConfig
	q        Sample
	fourPole bool
	channels [NumChannels]spectralFilterChannel
}

func NewSpectralFilter(id ModuleID, config *moduleConfig) *SpectralFilter {
	f := &SpectralFilter{
		baseModule: newBaseModule(id, ModuleTypeSpectralFilter),
		config:     config,
		q:          0.7,
	}
	for c := range f.channels {
		f.channels[c].params.cutoff = 1.0
	}
	f.saveConfig()
	return f
}

func (f *SpectralFilter) saveConfig() {
	f.config.set("q", f.q)
	f.config.set("four_pole", f.fourPole)
	for c := range f.channels {
		f.config.set(channelKey(c, "cutoff"), f.channels[c].params.cutoff)
	}
}

// SetCutoff sets the per-channel cutoff, in octaves (f_c = 2^cutoff).
func (f *SpectralFilter) SetCutoff(cutoff StereoSample) *SpectralFilter {
	for c := range f.channels {
		f.channels[c].params.cutoff = cutoff[c]
		f.config.set(channelKey(c, "cutoff"), cutoff[c])
	}
	return f
}

// SetQ sets the filter's Q factor (default 0.7, Butterworth).
func (f *SpectralFilter) SetQ(q Sample) *SpectralFilter {
	f.q = q
	f.config.set("q", q)
	return f
}

// SetFourPole toggles the 4-pole (cascaded) variant.
func (f *SpectralFilter) SetFourPole(on bool) *SpectralFilter {
	f.fourPole = on
	f.config.set("four_pole", on)
	return f
}

func (f *SpectralFilter) processBuffer(cutoffOctaves, q Sample, in, out *SpectralBuffer) {
	cutoffFreq := Sample(math.Exp2(float64(cutoffOctaves)))
	cutoffSquared := cutoffFreq * cutoffFreq

	out[0] = 0
	last := SpectralBufferSize - 1
	out[last] = 0

	for k := 1; k < last; k++ {
		x := Sample(k)
		h := complex(float64(cutoffSquared), 0) /
			complex(float64(cutoffSquared-x*x), float64(cutoffFreq*x/q))
		out[k] = h * in[k]
	}
}

func (f *SpectralFilter) apply(cutoffOctaves, q Sample, in *SpectralBuffer, out *SpectralBuffer) {
	f.processBuffer(cutoffOctaves, q, in, out)
	if f.fourPole {
		var stage SpectralBuffer
		stage = *out
		f.processBuffer(cutoffOctaves, q, &stage, out)
	}
}

func (f *SpectralFilter) Inputs() []InputType {
	return []InputType{InputSpectrum, InputCutoff, InputQ}
}

func (f *SpectralFilter) Output() DataType { return DataTypeSpectral }

func (f *SpectralFilter) NoteOn(params *NoteOnParams) {
	for c := range f.channels {
		f.channels[c].voices[params.VoiceIdx].needsReset = true
	}
}

func (f *SpectralFilter) processChannelVoice(channel *spectralFilterChannel, channelIdx, voiceIdx int, router Router) {
	voice := &channel.voices[voiceIdx]

	spectrumFirst := router.GetSpectralInput(NewInput(InputSpectrum, f.id), false, voiceIdx, channelIdx)
	if spectrumFirst == nil {
		spectrumFirst = &HarmonicSeriesBuffer
	}
	spectrumCurrent := router.GetSpectralInput(NewInput(InputSpectrum, f.id), true, voiceIdx, channelIdx)
	if spectrumCurrent == nil {
		spectrumCurrent = &HarmonicSeriesBuffer
	}

	cutoffModFirst := router.GetScalarInput(NewInput(InputCutoff, f.id), false, voiceIdx, channelIdx)
	cutoffModCurrent := router.GetScalarInput(NewInput(InputCutoff, f.id), true, voiceIdx, channelIdx)
	q := f.q

	if voice.needsReset {
		f.apply(channel.params.cutoff+cutoffModFirst, q, spectrumFirst, &voice.firstOutput)
		voice.needsReset = false
	}
	f.apply(channel.params.cutoff+cutoffModCurrent, q, spectrumCurrent, &voice.output)
}

func (f *SpectralFilter) Process(params *ProcessParams, router Router) {
	for c := range f.channels {
		for _, voiceIdx := range params.ActiveVoices {
			f.processChannelVoice(&f.channels[c], c, voiceIdx, router)
		}
	}
}

func (f *SpectralFilter) SpectralOutput(voiceIdx, channel int, current bool) *SpectralBuffer {
	voice := &f.channels[channel].voices[voiceIdx]
	if current {
		return &voice.output
	}
	return &voice.firstOutput
}
