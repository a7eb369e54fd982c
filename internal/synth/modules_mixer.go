package synth

import (
	"math"
	"strconv"
)

// MaxMixerInputs is the fixed number of mixer legs, per
// original_source/src/synth_engine/modules/mixer.rs.
const MaxMixerInputs = 6

// mixerMaxVolumeDB clamps dB-mode gain to a sane ceiling before
// converting to a linear multiplier.
const mixerMaxVolumeDB = 24.0

// VolumeType selects whether a Mixer leg (or its output) is controlled
// as a linear gain or a decibel level.
type VolumeType int

const (
	VolumeTypeDb VolumeType = iota
	VolumeTypeGain
)

func dbToGain(db Sample) Sample {
	if db > mixerMaxVolumeDB {
		db = mixerMaxVolumeDB
	}
	return Sample(math.Pow(10, float64(db)/20))
}

type mixerInputParams struct {
	gain  Sample // linear, 0.0-1.0+
	level Sample // dB
}

func defaultMixerInputParams() mixerInputParams {
	return mixerInputParams{gain: 1.0, level: 0.0}
}

type mixerChannelParams struct {
	inputs      [MaxMixerInputs]mixerInputParams
	outputLevel Sample
	outputGain  Sample
}

func defaultMixerChannelParams() mixerChannelParams {
	p := mixerChannelParams{outputLevel: 0.0, outputGain: 1.0}
	for i := range p.inputs {
		p.inputs[i] = defaultMixerInputParams()
	}
	return p
}

type mixerVoice struct {
	output Buffer
}

type mixerChannel struct {
	params mixerChannelParams
	voices [MaxVoices]mixerVoice
}

// Mixer sums up to MaxMixerInputs buffer inputs, each independently
// scaled in either linear-gain or dB mode (with its own modulation
// input), then applies a master output volume in the mixer's own
// configured output mode. Grounded on
// original_source/src/synth_engine/modules/mixer.rs.
type Mixer struct {
	baseModule
	config           *moduleConfig
	numInputs        int
	inputVolumeTypes [MaxMixerInputs]VolumeType
	outputVolumeType VolumeType
	channels         [NumChannels]mixerChannel

	inputBuf, modBuf Buffer
}

func NewMixer(id ModuleID, config *moduleConfig) *Mixer {
	m := &Mixer{
		baseModule:       newBaseModule(id, ModuleTypeMixer),
		config:           config,
		numInputs:        2,
		outputVolumeType: VolumeTypeGain,
	}
	for c := range m.channels {
		m.channels[c].params = defaultMixerChannelParams()
	}
	m.saveConfig()
	return m
}

func (m *Mixer) saveConfig() {
	m.config.set("num_inputs", m.numInputs)
	m.config.set("output_volume_type", m.outputVolumeType)
	for i := range m.inputVolumeTypes {
		m.config.set("input_volume_type_"+strconv.Itoa(i), m.inputVolumeTypes[i])
	}
	for c := range m.channels {
		m.config.set(channelKey(c, "output_level"), m.channels[c].params.outputLevel)
		m.config.set(channelKey(c, "output_gain"), m.channels[c].params.outputGain)
		for i := range m.channels[c].params.inputs {
			m.config.set(channelKey(c, "input_gain_"+strconv.Itoa(i)), m.channels[c].params.inputs[i].gain)
			m.config.set(channelKey(c, "input_level_"+strconv.Itoa(i)), m.channels[c].params.inputs[i].level)
		}
	}
}

// SetNumInputs sets the active leg count, clamped to [1, MaxMixerInputs].
func (m *Mixer) SetNumInputs(n int) *Mixer {
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

// SetVolumeType sets the volume mode of a single input leg.
func (m *Mixer) SetVolumeType(inputIdx int, t VolumeType) *Mixer {
	m.inputVolumeTypes[inputIdx] = t
	m.config.set("input_volume_type_"+strconv.Itoa(inputIdx), t)
	return m
}

// SetOutputVolumeType sets the volume mode of the master output stage.
func (m *Mixer) SetOutputVolumeType(t VolumeType) *Mixer {
	m.outputVolumeType = t
	m.config.set("output_volume_type", t)
	return m
}

// SetInputLevel sets a leg's dB-mode level (used when its VolumeType is Db).
func (m *Mixer) SetInputLevel(inputIdx int, level StereoSample) *Mixer {
	for c := range m.channels {
		m.channels[c].params.inputs[inputIdx].level = level[c]
		m.config.set(channelKey(c, "input_level_"+strconv.Itoa(inputIdx)), level[c])
	}
	return m
}

// SetInputGain sets a leg's linear-mode gain (used when its VolumeType is Gain).
func (m *Mixer) SetInputGain(inputIdx int, gain StereoSample) *Mixer {
	for c := range m.channels {
		m.channels[c].params.inputs[inputIdx].gain = gain[c]
		m.config.set(channelKey(c, "input_gain_"+strconv.Itoa(inputIdx)), gain[c])
	}
	return m
}

// SetOutputLevel sets the master dB-mode level.
func (m *Mixer) SetOutputLevel(level StereoSample) *Mixer {
	for c := range m.channels {
		m.channels[c].params.outputLevel = level[c]
		m.config.set(channelKey(c, "output_level"), level[c])
	}
	return m
}

// SetOutputGain sets the master linear-mode gain.
func (m *Mixer) SetOutputGain(gain StereoSample) *Mixer {
	for c := range m.channels {
		m.channels[c].params.outputGain = gain[c]
		m.config.set(channelKey(c, "output_gain"), gain[c])
	}
	return m
}

func (m *Mixer) Inputs() []InputType {
	return []InputType{InputGain, InputLevel, InputAudio}
}

func (m *Mixer) Output() DataType { return DataTypeBuffer }

func (m *Mixer) mixInput(output *Buffer, input *Buffer, gainMod *Buffer, inputIdx, samples int) {
	if inputIdx == 0 {
		for i := 0; i < samples; i++ {
			output[i] = input[i] * gainMod[i]
		}
	} else {
		for i := 0; i < samples; i++ {
			output[i] += input[i] * gainMod[i]
		}
	}
}

func (m *Mixer) processChannelVoice(channel *mixerChannel, channelIdx, voiceIdx, samples int, router Router) {
	voice := &channel.voices[voiceIdx]

	for inputIdx := 0; inputIdx < m.numInputs; inputIdx++ {
		input := router.GetInput(NewIndexedInput(InputAudio, m.id, inputIdx), voiceIdx, channelIdx, &m.inputBuf)
		if input == nil {
			if inputIdx == 0 {
				for i := range voice.output {
					voice.output[i] = 0
				}
			}
			continue
		}

		params := &channel.params.inputs[inputIdx]
		var gainMod Buffer

		switch m.inputVolumeTypes[inputIdx] {
		case VolumeTypeDb:
			levelMod := router.GetInput(NewIndexedInput(InputLevel, m.id, inputIdx), voiceIdx, channelIdx, &m.modBuf)
			for i := 0; i < samples; i++ {
				lm := Sample(0)
				if levelMod != nil {
					lm = levelMod[i]
				}
				gainMod[i] = dbToGain(params.level + lm)
			}
		default: // VolumeTypeGain
			gainMod_ := router.GetInput(NewIndexedInput(InputGain, m.id, inputIdx), voiceIdx, channelIdx, &m.modBuf)
			for i := 0; i < samples; i++ {
				gm := Sample(0)
				if gainMod_ != nil {
					gm = gainMod_[i]
				}
				gainMod[i] = params.gain + gm
			}
		}

		m.mixInput(&voice.output, input, &gainMod, inputIdx, samples)
	}

	var outGainMod Buffer
	switch m.outputVolumeType {
	case VolumeTypeDb:
		levelMod := router.GetInput(NewInput(InputLevel, m.id), voiceIdx, channelIdx, &m.modBuf)
		for i := 0; i < samples; i++ {
			lm := Sample(0)
			if levelMod != nil {
				lm = levelMod[i]
			}
			outGainMod[i] = dbToGain(channel.params.outputLevel + lm)
		}
	default:
		gainMod := router.GetInput(NewInput(InputGain, m.id), voiceIdx, channelIdx, &m.modBuf)
		for i := 0; i < samples; i++ {
			gm := Sample(0)
			if gainMod != nil {
				gm = gainMod[i]
			}
			outGainMod[i] = channel.params.outputGain + gm
		}
	}

	for i := 0; i < samples; i++ {
		voice.output[i] *= outGainMod[i]
	}
}

func (m *Mixer) Process(params *ProcessParams, router Router) {
	for c := range m.channels {
		for _, voiceIdx := range params.ActiveVoices {
			m.processChannelVoice(&m.channels[c], c, voiceIdx, params.Samples, router)
		}
	}
}

func (m *Mixer) BufferOutput(voiceIdx, channel int) *Buffer {
	return &m.channels[channel].voices[voiceIdx].output
}
