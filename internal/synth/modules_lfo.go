package synth

import "math"

// LfoShape selects the waveform an LFO traces out before skewing.
type LfoShape int

const (
	LfoShapeTriangle LfoShape = iota
	LfoShapeSquare
	LfoShapeSine
)

func lfoTriangle(x Sample) Sample {
	if x < 0.5 {
		return 2.0 * x
	}
	return 2.0 - 2.0*x
}

func lfoSquare(x Sample) Sample {
	if x < 0.5 {
		return 1.0
	}
	return 0.0
}

func lfoSine(x Sample) Sample {
	s := Sample(math.Sin(math.Pi * float64(x)))
	return s * s
}

func lfoShapeFunc(shape LfoShape) func(Sample) Sample {
	switch shape {
	case LfoShapeSquare:
		return lfoSquare
	case LfoShapeSine:
		return lfoSine
	default:
		return lfoTriangle
	}
}

type lfoChannelParams struct {
	frequency  Sample // Hz
	phaseShift Sample // normalized, [-1,1]
	skew       Sample // [0,1]
}

func defaultLfoChannelParams() lfoChannelParams {
	return lfoChannelParams{frequency: 1.0, phaseShift: 0.0, skew: 0.5}
}

type lfoVoice struct {
	phase       Phase
	needsReset  bool
	scalarFirst Sample
	scalarCurrent Sample
}

type lfoChannel struct {
	params lfoChannelParams
	voices [MaxVoices]lfoVoice
}

// LFO is a free-running (per-voice, per-channel) low-frequency
// oscillator producing a scalar modulation value: triangle, square or
// sine, warped by a skew factor, with an optional bipolar range and
// optional phase reset on note-on. Grounded on
// original_source/src/synth_engine/modules/lfo.rs.
type LFO struct {
	baseModule
	config     *moduleConfig
	shape      LfoShape
	bipolar    bool
	resetPhase bool
	channels   [NumChannels]lfoChannel
}

func NewLFO(id ModuleID, config *moduleConfig) *LFO {
	l := &LFO{
		baseModule: newBaseModule(id, ModuleTypeLFO),
		config:     config,
		shape:      LfoShapeTriangle,
	}
	for c := range l.channels {
		l.channels[c].params = defaultLfoChannelParams()
	}
	l.saveConfig()
	return l
}

func (l *LFO) saveConfig() {
	l.config.set("shape", l.shape)
	l.config.set("bipolar", l.bipolar)
	l.config.set("reset_phase", l.resetPhase)
	for c := range l.channels {
		l.config.set(channelKey(c, "frequency"), l.channels[c].params.frequency)
		l.config.set(channelKey(c, "phase_shift"), l.channels[c].params.phaseShift)
		l.config.set(channelKey(c, "skew"), l.channels[c].params.skew)
	}
}

// SetFrequency sets the per-channel rate in Hz, clamped to [-50, 50].
func (l *LFO) SetFrequency(freq StereoSample) *LFO {
	for c := range l.channels {
		l.channels[c].params.frequency = clamp(freq[c], -50, 50)
		l.config.set(channelKey(c, "frequency"), l.channels[c].params.frequency)
	}
	return l
}

// SetPhaseShift sets the per-channel normalized phase offset, clamped to [-1,1].
func (l *LFO) SetPhaseShift(shift StereoSample) *LFO {
	for c := range l.channels {
		l.channels[c].params.phaseShift = clamp(shift[c], -1, 1)
		l.config.set(channelKey(c, "phase_shift"), l.channels[c].params.phaseShift)
	}
	return l
}

// SetSkew sets the per-channel waveform skew, clamped to [0,1].
func (l *LFO) SetSkew(skew StereoSample) *LFO {
	for c := range l.channels {
		l.channels[c].params.skew = clamp01(skew[c])
		l.config.set(channelKey(c, "skew"), l.channels[c].params.skew)
	}
	return l
}

// SetShape sets the waveform shape used by every channel/voice.
func (l *LFO) SetShape(shape LfoShape) *LFO {
	l.shape = shape
	l.config.set("shape", shape)
	return l
}

// SetBipolar toggles output range: unipolar [0,1] or bipolar [-1,1].
func (l *LFO) SetBipolar(bipolar bool) *LFO {
	l.bipolar = bipolar
	l.config.set("bipolar", bipolar)
	return l
}

// SetResetPhase toggles whether every note-on resets phase to zero.
func (l *LFO) SetResetPhase(reset bool) *LFO {
	l.resetPhase = reset
	l.config.set("reset_phase", reset)
	return l
}

func (l *LFO) Inputs() []InputType {
	return []InputType{InputLowFrequency, InputPhaseShiftScalar, InputSkew}
}

func (l *LFO) Output() DataType { return DataTypeScalar }

func (l *LFO) NoteOn(params *NoteOnParams) {
	for c := range l.channels {
		voice := &l.channels[c].voices[params.VoiceIdx]
		voice.needsReset = true
		if params.Reset || l.resetPhase {
			voice.phase = ZeroPhase
		}
	}
}

func (l *LFO) processVoice(current bool, channel *lfoChannel, channelIdx, voiceIdx int, tStep Sample, router Router) {
	voice := &channel.voices[voiceIdx]

	frequency := clamp(channel.params.frequency+router.GetScalarInput(NewInput(InputLowFrequency, l.id), current, voiceIdx, channelIdx), -50, 50)
	phaseShift := clamp(channel.params.phaseShift+router.GetScalarInput(NewInput(InputPhaseShiftScalar, l.id), current, voiceIdx, channelIdx), -1, 1)
	skew := clamp01(channel.params.skew + router.GetScalarInput(NewInput(InputSkew, l.id), current, voiceIdx, channelIdx))

	arg := voice.phase.AddNormalized(phaseShift).Normalized()

	var skewedArg Sample
	switch {
	case skew == 0:
		skewedArg = 0.5 + 0.5*arg
	case skew == 1:
		skewedArg = 0.5 * arg
	case arg < skew:
		skewedArg = arg * 0.5 / skew
	default:
		skewedArg = 0.5 + (arg-skew)*0.5/(1-skew)
	}

	value := lfoShapeFunc(l.shape)(skewedArg)
	if l.bipolar {
		value = value*2.0 - 1.0
	}

	if current {
		voice.scalarCurrent = value
	} else {
		voice.scalarFirst = value
	}
	voice.phase.AdvanceNormalized(tStep * frequency)
}

func (l *LFO) Process(params *ProcessParams, router Router) {
	for c := range l.channels {
		channel := &l.channels[c]
		for _, voiceIdx := range params.ActiveVoices {
			voice := &channel.voices[voiceIdx]
			if voice.needsReset {
				l.processVoice(false, channel, c, voiceIdx, 0, router)
				voice.needsReset = false
			}
			l.processVoice(true, channel, c, voiceIdx, params.BufferTStep, router)
		}
	}
}

func (l *LFO) ScalarOutput(voiceIdx, channel int, current bool) Sample {
	voice := &l.channels[channel].voices[voiceIdx]
	if current {
		return voice.scalarCurrent
	}
	return voice.scalarFirst
}
