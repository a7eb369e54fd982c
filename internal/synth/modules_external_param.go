package synth

// NumFloatParams is the number of host-exposed floating point
// parameters an ExternalParam module can select from, per
// original_source/src/synth_engine/modules/external_param.rs.
const NumFloatParams = 4

type externalParamVoice struct {
	triggered       bool
	valueAtTrigger  Sample
	scalarFirst     Sample
	scalarCurrent   Sample
	audioSmoother   smoother
	audioOutput     Buffer
}

type externalParamChannel struct {
	voices [MaxVoices]externalParamVoice
}

// ExternalParam surfaces one of the engine's NumFloatParams
// host-automatable float parameters as a per-voice scalar and smoothed
// audio-rate signal. SampleAndHold freezes the value read at note-on
// for the life of the voice instead of tracking live host changes.
type ExternalParam struct {
	baseModule
	config            *moduleConfig
	floatParams       *[NumFloatParams]Sample
	selectedParamIdx  int
	smooth            Sample
	sampleAndHold     bool
	channels          [NumChannels]externalParamChannel
}

// NewExternalParam constructs an ExternalParam reading from the
// engine-owned floatParams array (shared across every ExternalParam
// instance in a patch, akin to host-automated plugin parameters).
func NewExternalParam(id ModuleID, config *moduleConfig, floatParams *[NumFloatParams]Sample) *ExternalParam {
	e := &ExternalParam{
		baseModule:  newBaseModule(id, ModuleTypeExternalParam),
		config:      config,
		floatParams: floatParams,
		smooth:      fromMs(2),
	}
	e.saveConfig()
	return e
}

func (e *ExternalParam) saveConfig() {
	e.config.set("selected_param_index", e.selectedParamIdx)
	e.config.set("smooth", e.smooth)
	e.config.set("sample_and_hold", e.sampleAndHold)
}

// SelectParam chooses which of the engine's NumFloatParams this
// instance reads, clamped to a valid index.
func (e *ExternalParam) SelectParam(idx int) *ExternalParam {
	if idx < 0 {
		idx = 0
	}
	if idx > NumFloatParams-1 {
		idx = NumFloatParams - 1
	}
	e.selectedParamIdx = idx
	e.config.set("selected_param_index", idx)
	return e
}

// SetSmooth sets the audio-rate output's smoothing time, in seconds.
func (e *ExternalParam) SetSmooth(t Sample) *ExternalParam {
	e.smooth = t
	e.config.set("smooth", t)
	return e
}

// SetSampleAndHold toggles whether the value is frozen at note-on.
func (e *ExternalParam) SetSampleAndHold(on bool) *ExternalParam {
	e.sampleAndHold = on
	e.config.set("sample_and_hold", on)
	return e
}

func (e *ExternalParam) Inputs() []InputType { return nil }
func (e *ExternalParam) Output() DataType    { return DataTypeScalar }

func (e *ExternalParam) NoteOn(params *NoteOnParams) {
	value := e.floatParams[e.selectedParamIdx]

	for c := range e.channels {
		voice := &e.channels[c].voices[params.VoiceIdx]
		voice.triggered = true
		voice.valueAtTrigger = value
		if params.Reset {
			voice.audioSmoother.reset(value)
		}
	}
}

func (e *ExternalParam) Process(params *ProcessParams, router Router) {
	hostValue := e.floatParams[e.selectedParamIdx]

	for c := range e.channels {
		channel := &e.channels[c]
		for _, voiceIdx := range params.ActiveVoices {
			voice := &channel.voices[voiceIdx]

			value := hostValue
			if e.sampleAndHold {
				value = voice.valueAtTrigger
			}

			if voice.triggered {
				voice.scalarFirst = value
				voice.triggered = false
			}
			voice.scalarCurrent = value

			if params.NeedsAudioRate {
				voice.audioSmoother.update(params.SampleRate, e.smooth)
				voice.audioSmoother.segment(voice.scalarFirst, voice.scalarCurrent, &voice.audioOutput, params.Samples)
			}
		}
	}
}

func (e *ExternalParam) BufferOutput(voiceIdx, channel int) *Buffer {
	return &e.channels[channel].voices[voiceIdx].audioOutput
}

func (e *ExternalParam) ScalarOutput(voiceIdx, channel int, current bool) Sample {
	voice := &e.channels[channel].voices[voiceIdx]
	if current {
		return voice.scalarCurrent
	}
	return voice.scalarFirst
}
