package synth

import "math"

const (
	amplifierDefaultKillTime = 0.030 // seconds
	amplifierMinKillTime     = 0.004
	amplifierAliveThreshold  = 0.0000001
)

type amplifierChannelParams struct {
	level Sample
}

type amplifierVoice struct {
	killed           bool
	killedLevel      Sample
	killedOutputPower Sample
	output           Buffer
}

type amplifierChannel struct {
	params amplifierChannelParams
	voices [MaxVoices]amplifierVoice
}

// Amplifier scales its audio input by a per-channel level and an
// optional level-modulation input, and performs a kill-fade on request
// (the Engine's own note dispatch does not call KillVoice; a stolen
// voice's slot is reused at once): once KillVoice is called it exponentially decays
// the remaining output to silence over voiceKillTime, tracking a
// running-average output power so PollAliveVoices can tell the engine
// when the voice is inaudible and safe to reclaim. Grounded on
// original_source/src/synth_engine/modules/amplifier.rs.
type Amplifier struct {
	baseModule
	config        *moduleConfig
	voiceKillTime Sample
	channels      [NumChannels]amplifierChannel

	inputBuf, levelModBuf Buffer
}

func NewAmplifier(id ModuleID, config *moduleConfig) *Amplifier {
	a := &Amplifier{
		baseModule:    newBaseModule(id, ModuleTypeAmplifier),
		config:        config,
		voiceKillTime: amplifierDefaultKillTime,
	}
	for c := range a.channels {
		a.channels[c].params.level = 1.0
	}
	a.saveConfig()
	return a
}

func (a *Amplifier) saveConfig() {
	a.config.set("voice_kill_time", a.voiceKillTime)
	for c := range a.channels {
		a.config.set(channelKey(c, "level"), a.channels[c].params.level)
	}
}

// SetVoiceKillTime sets the kill-fade duration in seconds.
func (a *Amplifier) SetVoiceKillTime(t Sample) *Amplifier {
	a.voiceKillTime = t
	a.config.set("voice_kill_time", t)
	return a
}

// SetLevel sets the per-channel static level.
func (a *Amplifier) SetLevel(level StereoSample) *Amplifier {
	for c := range a.channels {
		a.channels[c].params.level = level[c]
		a.config.set(channelKey(c, "level"), level[c])
	}
	return a
}

func (a *Amplifier) Inputs() []InputType {
	return []InputType{InputAudio, InputLevel}
}

func (a *Amplifier) Output() DataType { return DataTypeBuffer }

func (a *Amplifier) NoteOn(params *NoteOnParams) {
	for c := range a.channels {
		voice := &a.channels[c].voices[params.VoiceIdx]
		voice.killed = false
		voice.killedLevel = 1.0
		voice.killedOutputPower = 1.0
	}
}

func (a *Amplifier) KillVoice(voiceIdx int) {
	for c := range a.channels {
		a.channels[c].voices[voiceIdx].killed = true
	}
}

func (a *Amplifier) PollAliveVoices(alive []*VoiceAlive) {
	for _, v := range alive {
		if !v.Killed() {
			continue
		}
		for c := range a.channels {
			v.MarkAlive(a.channels[c].voices[v.Index()].killedOutputPower > amplifierAliveThreshold)
		}
	}
}

func (a *Amplifier) processChannelVoice(channel *amplifierChannel, channelIdx, voiceIdx int, params *ProcessParams, router Router) {
	voice := &channel.voices[voiceIdx]

	input := router.GetInput(NewInput(InputAudio, a.id), voiceIdx, channelIdx, &a.inputBuf)
	if input == nil {
		input = &ZeroBuffer
	}
	levelMod := router.GetInput(NewInput(InputLevel, a.id), voiceIdx, channelIdx, &a.levelModBuf)
	if levelMod == nil {
		levelMod = &OnesBuffer
	}

	samples := params.Samples
	for i := 0; i < samples; i++ {
		voice.output[i] = input[i] * channel.params.level * levelMod[i]
	}

	if !voice.killed {
		return
	}

	killTime := a.voiceKillTime
	if killTime < amplifierMinKillTime {
		killTime = amplifierMinKillTime
	}
	base := Sample(math.Exp(-5.0 / float64(params.SampleRate*killTime)))

	var sum Sample
	for i := 0; i < samples; i++ {
		voice.killedLevel *= base
		voice.output[i] *= voice.killedLevel
		sum += voice.output[i] * voice.output[i]
	}
	voice.killedOutputPower = (voice.killedOutputPower + sum) / Sample(samples+1)
}

func (a *Amplifier) Process(params *ProcessParams, router Router) {
	for c := range a.channels {
		for _, voiceIdx := range params.ActiveVoices {
			a.processChannelVoice(&a.channels[c], c, voiceIdx, params, router)
		}
	}
}

func (a *Amplifier) BufferOutput(voiceIdx, channel int) *Buffer {
	return &a.channels[channel].voices[voiceIdx].output
}
