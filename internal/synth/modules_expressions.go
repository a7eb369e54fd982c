package synth

const stToOctaveMult = 1.0 / 12.0

func stToOctave(st Sample) Sample { return st * stToOctaveMult }

// Expression names one of the per-note MPE-style controllers the host
// (or the offline harness) can route into an Expressions module.
type Expression int

const (
	ExpressionVelocity Expression = iota
	ExpressionGain
	ExpressionPan
	ExpressionPitch
	ExpressionTimbre
	ExpressionPressure
)

// ExpressionUpdate delivers a single continuous-controller value for
// one voice, e.g. MIDI channel pressure or an MPE per-note pitch bend.
type ExpressionUpdate struct {
	VoiceIdx   int
	Expression Expression
	Value      Sample
}

type expressionsVoice struct {
	triggered     bool
	output        Sample
	audioSmoother smoother
	audioOutput   Buffer
}

type expressionsChannel struct {
	voices [MaxVoices]expressionsVoice
}

// Expressions surfaces one host-driven per-note controller as both a
// scalar and a smoothed audio-rate buffer output. Pan and Pitch are
// transformed per channel/value respectively (Pan to an linear
// per-side multiplier, Pitch from semitones to octaves); Velocity is
// captured directly at note-on (and optionally replaced by a release
// velocity at note-off). Grounded on
// original_source/src/synth_engine/modules/expressions.rs.
type Expressions struct {
	baseModule
	config             *moduleConfig
	expression         Expression
	useReleaseVelocity bool
	smooth             Sample
	channels           [NumChannels]expressionsChannel
}

func NewExpressions(id ModuleID, config *moduleConfig) *Expressions {
	e := &Expressions{
		baseModule: newBaseModule(id, ModuleTypeExpressions),
		config:     config,
		expression: ExpressionVelocity,
		smooth:     fromMs(4),
	}
	e.saveConfig()
	return e
}

func (e *Expressions) saveConfig() {
	e.config.set("expression", e.expression)
	e.config.set("use_release_velocity", e.useReleaseVelocity)
	e.config.set("smooth", e.smooth)
}

// SetExpression selects which host controller this instance surfaces.
func (e *Expressions) SetExpression(expr Expression) *Expressions {
	e.expression = expr
	e.config.set("expression", expr)
	return e
}

// SetUseReleaseVelocity, when the surfaced expression is Velocity,
// makes note-off's release velocity replace the held value.
func (e *Expressions) SetUseReleaseVelocity(use bool) *Expressions {
	e.useReleaseVelocity = use
	e.config.set("use_release_velocity", use)
	return e
}

// SetSmooth sets the audio-rate output's smoothing time, in seconds.
func (e *Expressions) SetSmooth(t Sample) *Expressions {
	e.smooth = t
	e.config.set("smooth", t)
	return e
}

func transformExpressionValue(expr Expression, channelIdx int, value Sample) Sample {
	switch expr {
	case ExpressionPitch:
		return stToOctave(value)
	case ExpressionPan:
		if channelIdx == 0 {
			if value > 0 {
				return 1.0 - value
			}
			return 1.0
		}
		if value < 0 {
			return 1.0 + value
		}
		return 1.0
	default:
		return value
	}
}

func defaultExpressionValue(expr Expression) Sample {
	if expr == ExpressionGain {
		return 1.0
	}
	return 0.0
}

func (e *Expressions) Inputs() []InputType { return nil }
func (e *Expressions) Output() DataType    { return DataTypeScalar }

func (e *Expressions) NoteOn(params *NoteOnParams) {
	for c := range e.channels {
		voice := &e.channels[c].voices[params.VoiceIdx]

		if e.expression == ExpressionVelocity {
			voice.output = params.Velocity
			voice.audioSmoother.reset(params.Velocity)
			voice.triggered = false
		} else {
			value := transformExpressionValue(e.expression, c, defaultExpressionValue(e.expression))
			voice.output = value
			voice.audioSmoother.reset(value)
			voice.triggered = true
		}
	}
}

func (e *Expressions) NoteOff(params *NoteOffParams) {
	if e.expression != ExpressionVelocity || !e.useReleaseVelocity {
		return
	}
	for c := range e.channels {
		e.channels[c].voices[params.VoiceIdx].output = params.Velocity
	}
}

// ApplyExpression routes a host controller update into this instance
// if it matches the surfaced expression; a no-op otherwise. Not part
// of the Module interface -- the engine dispatches it via a type
// assertion, mirroring how the original's expression() callback is
// only meaningful on this one module.
func (e *Expressions) ApplyExpression(update *ExpressionUpdate) {
	if update.Expression != e.expression {
		return
	}
	for c := range e.channels {
		voice := &e.channels[c].voices[update.VoiceIdx]
		value := transformExpressionValue(e.expression, c, update.Value)

		voice.output = value
		if voice.triggered {
			voice.audioSmoother.reset(value)
			voice.triggered = false
		}
	}
}

func (e *Expressions) Process(params *ProcessParams, router Router) {
	if !params.NeedsAudioRate {
		return
	}
	for c := range e.channels {
		channel := &e.channels[c]
		for _, voiceIdx := range params.ActiveVoices {
			voice := &channel.voices[voiceIdx]
			voice.audioSmoother.update(params.SampleRate, e.smooth)
			for i := 0; i < params.Samples; i++ {
				voice.audioOutput[i] = voice.audioSmoother.tick(voice.output)
			}
		}
	}
}

func (e *Expressions) BufferOutput(voiceIdx, channel int) *Buffer {
	return &e.channels[channel].voices[voiceIdx].audioOutput
}

func (e *Expressions) ScalarOutput(voiceIdx, channel int, current bool) Sample {
	_ = current
	return e.channels[channel].voices[voiceIdx].output
}
