package synth

import "math"

// ShaperType selects a WaveShaper's nonlinearity.
type ShaperType int

const (
	ShaperTypeHardClip ShaperType = iota
	ShaperTypeSigmoid
)

const waveShaperMaxDistortionDB = 48.0

type waveShaperChannelParams struct {
	distortion    Sample
	clippingLevel Sample // dB
}

type waveShaperVoice struct {
	output Buffer
}

type waveShaperChannel struct {
	params waveShaperChannelParams
	voices [MaxVoices]waveShaperVoice
}

// WaveShaper applies a modulatable drive-and-clip nonlinearity, either
// a hard clip or a sigmoid soft clip, both referenced to a dB clipping
// ceiling. Grounded on
// original_source/src/synth_engine/modules/wave_shaper.rs.
type WaveShaper struct {
	baseModule
	config     *moduleConfig
	shaperType ShaperType
	channels   [NumChannels]waveShaperChannel

	inputBuf, distortionModBuf, clipModBuf Buffer
}

func NewWaveShaper(id ModuleID, config *moduleConfig) *WaveShaper {
	w := &WaveShaper{
		baseModule: newBaseModule(id, ModuleTypeWaveShaper),
		config:     config,
	}
	w.saveConfig()
	return w
}

func (w *WaveShaper) saveConfig() {
	w.config.set("shaper_type", w.shaperType)
	for c := range w.channels {
		w.config.set(channelKey(c, "distortion"), w.channels[c].params.distortion)
		w.config.set(channelKey(c, "clipping_level"), w.channels[c].params.clippingLevel)
	}
}

// SetShaperType sets the nonlinearity used by every channel/voice.
func (w *WaveShaper) SetShaperType(t ShaperType) *WaveShaper {
	w.shaperType = t
	w.config.set("shaper_type", t)
	return w
}

// SetDistortion sets the per-channel drive, in dB.
func (w *WaveShaper) SetDistortion(db StereoSample) *WaveShaper {
	for c := range w.channels {
		w.channels[c].params.distortion = db[c]
		w.config.set(channelKey(c, "distortion"), db[c])
	}
	return w
}

// SetClippingLevel sets the per-channel clip ceiling, in dB.
func (w *WaveShaper) SetClippingLevel(db StereoSample) *WaveShaper {
	for c := range w.channels {
		w.channels[c].params.clippingLevel = db[c]
		w.config.set(channelKey(c, "clipping_level"), db[c])
	}
	return w
}

func (w *WaveShaper) Inputs() []InputType {
	return []InputType{InputAudio, InputClipLevel, InputDistortion}
}

func (w *WaveShaper) Output() DataType { return DataTypeBuffer }

func (w *WaveShaper) processChannelVoice(channel *waveShaperChannel, channelIdx, voiceIdx int, params *ProcessParams, router Router) {
	voice := &channel.voices[voiceIdx]

	input := router.GetInput(NewInput(InputAudio, w.id), voiceIdx, channelIdx, &w.inputBuf)
	if input == nil {
		input = &ZeroBuffer
	}
	clipMod := router.GetInput(NewInput(InputClipLevel, w.id), voiceIdx, channelIdx, &w.clipModBuf)
	if clipMod == nil {
		clipMod = &ZeroBuffer
	}
	distortionMod := router.GetInput(NewInput(InputDistortion, w.id), voiceIdx, channelIdx, &w.distortionModBuf)
	if distortionMod == nil {
		distortionMod = &ZeroBuffer
	}

	for i := 0; i < params.Samples; i++ {
		clippingGain := dbToGain(clamp(channel.params.clippingLevel+clipMod[i], -1e9, 24.0))
		gain := dbToGain(clamp(channel.params.distortion+distortionMod[i], 0, waveShaperMaxDistortionDB))

		switch w.shaperType {
		case ShaperTypeSigmoid:
			x := input[i] * gain
			voice.output[i] = clippingGain * (2.0/Sample(1.0+math.Exp(float64(-2.0*x/clippingGain))) - 1.0)
		default: // ShaperTypeHardClip
			voice.output[i] = clamp(input[i]*gain, -clippingGain, clippingGain)
		}
	}
}

func clamp(v, lo, hi Sample) Sample {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (w *WaveShaper) Process(params *ProcessParams, router Router) {
	for c := range w.channels {
		for _, voiceIdx := range params.ActiveVoices {
			w.processChannelVoice(&w.channels[c], c, voiceIdx, params, router)
		}
	}
}

func (w *WaveShaper) BufferOutput(voiceIdx, channel int) *Buffer {
	return &w.channels[channel].voices[voiceIdx].output
}
