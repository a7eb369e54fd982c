package synth

import "strconv"

// spectralMixerChannelParams holds the per-channel static legs, each
// added to its modulation input before weighting its spectrum.
type spectralMixerChannelParams struct {
	inputLevels [MaxMixerInputs]Sample
	outputLevel Sample
}

func defaultSpectralMixerChannelParams() spectralMixerChannelParams {
	p := spectralMixerChannelParams{outputLevel: 1.0}
	for i := range p.inputLevels {
		p.inputLevels[i] = 1.0
	}
	return p
}

type spectralMixerVoice struct {
	needsReset  bool
	firstOutput SpectralBuffer
	output      SpectralBuffer
}

type spectralMixerChannel struct {
	params spectralMixerChannelParams
	voices [MaxVoices]spectralMixerVoice
}

// SpectralMixer sums up to MaxMixerInputs spectral inputs, each scaled
// by a static level plus a scalar modulation input, then applies a
// master output level. Grounded on
// original_source/src/synth_engine/modules/spectral_mixer.rs.
type SpectralMixer struct {
	baseModule
	config    *moduleConfig
	numInputs int
	channels  [NumChannels]spectralMixerChannel
}

func NewSpectralMixer(id ModuleID, config *moduleConfig) *SpectralMixer {
	m := &SpectralMixer{
		baseModule: newBaseModule(id, ModuleTypeSpectralMixer),
		config:     config,
		numInputs:  2,
	}
	for c := range m.channels {
		m.channels[c].params = defaultSpectralMixerChannelParams()
	}
	m.saveConfig()
	return m
}

func (m *SpectralMixer) saveConfig() {
	m.config.set("num_inputs", m.numInputs)
	for c := range m.channels {
		m.config.set(channelKey(c, "output_level"), m.channels[c].params.outputLevel)
	}
}

// SetNumInputs sets the active leg count, clamped to [1, MaxMixerInputs].
func (m *SpectralMixer) SetNumInputs(n int) *SpectralMixer {
	if n < 1 {
		n = 1
	}
	if n > MaxMixerInputs {
		n = MaxMixerInputs
	}
	m.numInputs = n
	m.config.set("num_inputs", n)
	return m
}

// SetInputLevel sets a leg's static weight.
func (m *SpectralMixer) SetInputLevel(inputIdx int, level StereoSample) *SpectralMixer {
	for c := range m.channels {
		m.channels[c].params.inputLevels[inputIdx] = level[c]
		m.config.set(channelKey(c, "input_level_"+strconv.Itoa(inputIdx)), level[c])
	}
	return m
}

// SetOutputLevel sets the master output weight.
func (m *SpectralMixer) SetOutputLevel(level StereoSample) *SpectralMixer {
	for c := range m.channels {
		m.channels[c].params.outputLevel = level[c]
		m.config.set(channelKey(c, "output_level"), level[c])
	}
	return m
}

func (m *SpectralMixer) Inputs() []InputType {
	return []InputType{InputLevel, InputSpectrum}
}

func (m *SpectralMixer) Output() DataType { return DataTypeSpectral }

func (m *SpectralMixer) NoteOn(params *NoteOnParams) {
	for c := range m.channels {
		m.channels[c].voices[params.VoiceIdx].needsReset = true
	}
}

func (m *SpectralMixer) mix(current bool, channel *spectralMixerChannel, channelIdx, voiceIdx int, out *SpectralBuffer, router Router) {
	for i := range out {
		out[i] = 0
	}

	for inputIdx := 0; inputIdx < m.numInputs; inputIdx++ {
		spectrum := router.GetSpectralInput(NewIndexedInput(InputSpectrum, m.id, inputIdx), current, voiceIdx, channelIdx)
		if spectrum == nil {
			continue
		}
		level := channel.params.inputLevels[inputIdx] + router.GetScalarInput(NewIndexedInput(InputLevel, m.id, inputIdx), current, voiceIdx, channelIdx)
		for i := range out {
			out[i] += spectrum[i] * complex(float64(level), 0)
		}
	}

	outputLevel := channel.params.outputLevel + router.GetScalarInput(NewInput(InputLevel, m.id), current, voiceIdx, channelIdx)
	for i := range out {
		out[i] *= complex(float64(outputLevel), 0)
	}
}

func (m *SpectralMixer) Process(params *ProcessParams, router Router) {
	for c := range m.channels {
		channel := &m.channels[c]
		for _, voiceIdx := range params.ActiveVoices {
			voice := &channel.voices[voiceIdx]
			if voice.needsReset {
				m.mix(false, channel, c, voiceIdx, &voice.firstOutput, router)
				voice.needsReset = false
			}
			m.mix(true, channel, c, voiceIdx, &voice.output, router)
		}
	}
}

func (m *SpectralMixer) SpectralOutput(voiceIdx, channel int, current bool) *SpectralBuffer {
	voice := &m.channels[channel].voices[voiceIdx]
	if current {
		return &voice.output
	}
	return &voice.firstOutput
}
