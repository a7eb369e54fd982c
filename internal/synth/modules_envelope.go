package synth

// envelopeModuleVoice pairs the envelope kernel's per-voice running
// state with the module-level outputs derived from it each block.
type envelopeModuleVoice struct {
	envelopeVoice
	buffer                     Buffer
	scalarFirst, scalarCurrent Sample
}

// envelopeChannelModule wraps the envelope kernel's per-channel timing
// parameters alongside its per-voice working state.
type envelopeChannelModule struct {
	params envelopeChannel
	voices [MaxVoices]envelopeModuleVoice
}

// Envelope wraps the ADSR kernel per channel per voice, exposing both
// a block-rate Buffer output and a double-buffered Scalar output (the
// unified module per SPEC_FULL.md Open Question #2: the original's
// Envelope and ScalarEnvelope modules converge into one). KeepAlive
// controls whether the engine consults this instance when polling for
// voice termination. Grounded on
// original_source/src/synth_engine/envelope.rs and modules/envelope.rs.
type Envelope struct {
	baseModule
	config    *moduleConfig
	keepAlive bool
	channels  [NumChannels]envelopeChannelModule
}

func NewEnvelope(id ModuleID, config *moduleConfig) *Envelope {
	e := &Envelope{
		baseModule: newBaseModule(id, ModuleTypeEnvelope),
		config:     config,
		keepAlive:  true,
	}
	for c := range e.channels {
		e.channels[c].params = defaultEnvelopeChannel()
	}
	e.saveConfig()
	return e
}

func (e *Envelope) saveConfig() {
	e.config.set("keep_alive", e.keepAlive)
	for c := range e.channels {
		e.config.set(channelKey(c, "attack"), e.channels[c].params.attackTime)
		e.config.set(channelKey(c, "decay"), e.channels[c].params.decayTime)
		e.config.set(channelKey(c, "sustain"), e.channels[c].params.sustainLvl)
		e.config.set(channelKey(c, "release"), e.channels[c].params.releaseTime)
	}
}

// SetAttack sets the per-channel attack time in seconds.
func (e *Envelope) SetAttack(t StereoSample) *Envelope {
	for c := range e.channels {
		e.channels[c].params.attackTime = t[c]
		e.config.set(channelKey(c, "attack"), t[c])
	}
	return e
}

// SetDecay sets the per-channel decay time in seconds.
func (e *Envelope) SetDecay(t StereoSample) *Envelope {
	for c := range e.channels {
		e.channels[c].params.decayTime = t[c]
		e.config.set(channelKey(c, "decay"), t[c])
	}
	return e
}

// SetSustain sets the per-channel sustain level.
func (e *Envelope) SetSustain(level StereoSample) *Envelope {
	for c := range e.channels {
		e.channels[c].params.sustainLvl = level[c]
		e.config.set(channelKey(c, "sustain"), level[c])
	}
	return e
}

// SetRelease sets the per-channel release time in seconds.
func (e *Envelope) SetRelease(t StereoSample) *Envelope {
	for c := range e.channels {
		e.channels[c].params.releaseTime = t[c]
		e.config.set(channelKey(c, "release"), t[c])
	}
	return e
}

// SetKeepAlive controls whether the engine's voice-termination poll
// consults this envelope.
func (e *Envelope) SetKeepAlive(keep bool) *Envelope {
	e.keepAlive = keep
	e.config.set("keep_alive", keep)
	return e
}

func (e *Envelope) Inputs() []InputType {
	return []InputType{InputAttack, InputDecay, InputSustain, InputRelease}
}

func (e *Envelope) Output() DataType { return DataTypeBuffer }

func (e *Envelope) NoteOn(params *NoteOnParams) {
	for c := range e.channels {
		e.channels[c].voices[params.VoiceIdx].resetVoice(params.SameNoteRetrigger)
	}
}

func (e *Envelope) NoteOff(params *NoteOffParams) {
	for c := range e.channels {
		e.channels[c].voices[params.VoiceIdx].releaseVoice()
	}
}

// PollAliveVoices records, for every voice this envelope is tracking,
// whether it still considers that voice active -- used by the engine's
// keep-alive poll when KeepAlive is set.
func (e *Envelope) PollAliveVoices(alive []*VoiceAlive) {
	if !e.keepAlive {
		return
	}
	for _, a := range alive {
		active := false
		for c := range e.channels {
			if e.channels[c].voices[a.Index()].isActive(&e.channels[c].params) {
				active = true
			}
		}
		a.MarkAlive(active)
	}
}

func (e *Envelope) Process(params *ProcessParams, router Router) {
	for c := range e.channels {
		ch := &e.channels[c]
		for _, voiceIdx := range params.ActiveVoices {
			voice := &ch.voices[voiceIdx]

			// "first" is the level as it stood entering this block,
			// before any of the block's samples advance the voice
			// clock; "current" is the level after the full block has
			// been processed. Mirrors the oscillator's wavetable
			// first/current snapshot split applied to a scalar value.
			voice.scalarFirst = voice.sampleLevel(&ch.params)

			for i := 0; i < params.Samples; i++ {
				voice.buffer[i] = voice.processSample(&ch.params, params.TStep)
			}

			voice.scalarCurrent = voice.lastLevel
		}
	}
}

func (e *Envelope) BufferOutput(voiceIdx, channel int) *Buffer {
	return &e.channels[channel].voices[voiceIdx].buffer
}

func (e *Envelope) ScalarOutput(voiceIdx, channel int, current bool) Sample {
	voice := &e.channels[channel].voices[voiceIdx]
	if current {
		return voice.scalarCurrent
	}
	return voice.scalarFirst
}
