package synth

type spectralBlendChannelParams struct {
	blend Sample
}

type spectralBlendVoice struct {
	needsReset  bool
	firstOutput SpectralBuffer
	output      SpectralBuffer
}

type spectralBlendChannel struct {
	params spectralBlendChannelParams
	voices [MaxVoices]spectralBlendVoice
}

// SpectralBlend linearly interpolates bin-by-bin between two spectral
// inputs (Spectrum "from", SpectrumTo "to") by a per-channel blend
// factor in [0, 1], modulatable. Grounded on
// original_source/src/synth_engine/modules/spectral_blend.rs.
type SpectralBlend struct {
	baseModule
	config   *moduleConfig
	channels [NumChannels]spectralBlendChannel
}

func NewSpectralBlend(id ModuleID, config *moduleConfig) *SpectralBlend {
	b := &SpectralBlend{
		baseModule: newBaseModule(id, ModuleTypeSpectralBlend),
		config:     config,
	}
	b.saveConfig()
	return b
}

func (b *SpectralBlend) saveConfig() {
	for c := range b.channels {
		b.config.set(channelKey(c, "blend"), b.channels[c].params.blend)
	}
}

func clamp01(v Sample) Sample {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetBlend sets the per-channel blend factor, clamped to [0, 1].
func (b *SpectralBlend) SetBlend(blend StereoSample) *SpectralBlend {
	for c := range b.channels {
		b.channels[c].params.blend = clamp01(blend[c])
		b.config.set(channelKey(c, "blend"), b.channels[c].params.blend)
	}
	return b
}

func (b *SpectralBlend) Inputs() []InputType {
	return []InputType{InputSpectrum, InputSpectrumTo, InputBlend}
}

func (b *SpectralBlend) Output() DataType { return DataTypeSpectral }

func (b *SpectralBlend) NoteOn(params *NoteOnParams) {
	for c := range b.channels {
		b.channels[c].voices[params.VoiceIdx].needsReset = true
	}
}

func (b *SpectralBlend) processChannelVoice(current bool, channel *spectralBlendChannel, channelIdx, voiceIdx int, out *SpectralBuffer, router Router) {
	from := router.GetSpectralInput(NewInput(InputSpectrum, b.id), current, voiceIdx, channelIdx)
	if from == nil {
		from = &ZeroSpectralBuffer
	}
	to := router.GetSpectralInput(NewInput(InputSpectrumTo, b.id), current, voiceIdx, channelIdx)
	if to == nil {
		to = &ZeroSpectralBuffer
	}
	blend := clamp01(channel.params.blend + router.GetScalarInput(NewInput(InputBlend, b.id), current, voiceIdx, channelIdx))

	for i := range out {
		out[i] = from[i] + (to[i]-from[i])*complex(float64(blend), 0)
	}
}

func (b *SpectralBlend) Process(params *ProcessParams, router Router) {
	for c := range b.channels {
		channel := &b.channels[c]
		for _, voiceIdx := range params.ActiveVoices {
			voice := &channel.voices[voiceIdx]
			if voice.needsReset {
				b.processChannelVoice(false, channel, c, voiceIdx, &voice.firstOutput, router)
				voice.needsReset = false
			}
			b.processChannelVoice(true, channel, c, voiceIdx, &voice.output, router)
		}
	}
}

func (b *SpectralBlend) SpectralOutput(voiceIdx, channel int, current bool) *SpectralBuffer {
	voice := &b.channels[channel].voices[voiceIdx]
	if current {
		return &voice.output
	}
	return &voice.firstOutput
}
