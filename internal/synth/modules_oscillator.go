package synth

import (
	"math"
	"math/rand"
)

// Pitch/detune modulation ranges and unison limits, per spec.md §4.3.
const (
	pitchModRangeSemitones = 48.0
	maxUnisonVoices        = 16
)

type oscillatorChannelParams struct {
	level      Sample
	pitchShift Sample
	detune     Sample // semitones, full unison spread
}

func defaultOscillatorChannelParams() oscillatorChannelParams {
	return oscillatorChannelParams{level: 1.0, pitchShift: 0, detune: 0.2}
}

// oscillatorVoice holds one voice's double-buffered wavetable state:
// two physical wave buffers crossfaded across the block, the per-voice
// unison sub-phases, and the flag selecting which buffer is "from" vs
// "to" for this block.
type oscillatorVoice struct {
	note       Sample
	needsReset bool
	swapped    bool
	phases     [maxUnisonVoices]Phase
	waves      [2]WaveformBuffer
	output     Buffer
}

func (v *oscillatorVoice) fromToIdx() (from, to int) {
	if v.swapped {
		return 1, 0
	}
	return 0, 1
}

type oscillatorChannel struct {
	params oscillatorChannelParams
	voices [MaxVoices]oscillatorVoice
}

// Oscillator converts a spectral frame into phase-driven wavetable
// playback via inverse FFT, with unison detune stacking. Grounded on
// original_source/src/synth_engine/modules/oscillator.rs.
type Oscillator struct {
	baseModule
	config   *moduleConfig
	unison   int
	rng      *rand.Rand
	scratch  []ComplexSample
	channels [NumChannels]oscillatorChannel

	levelModBuf, pitchModBuf, detuneModBuf Buffer
	inputScratch                           Buffer
}

// NewOscillator constructs an Oscillator with unison=1 and the default
// per-channel level/pitch/detune parameters.
func NewOscillator(id ModuleID, config *moduleConfig) *Oscillator {
	o := &Oscillator{
		baseModule: newBaseModule(id, ModuleTypeOscillator),
		config:     config,
		unison:     1,
		rng:        rand.New(rand.NewSource(int64(id)*2654435761 + 1)),
		scratch:    make([]ComplexSample, WaveformSize),
	}
	for c := range o.channels {
		o.channels[c].params = defaultOscillatorChannelParams()
	}
	o.saveConfig()
	return o
}

func (o *Oscillator) saveConfig() {
	o.config.set("unison", o.unison)
	for c := range o.channels {
		o.config.set(channelKey(c, "level"), o.channels[c].params.level)
		o.config.set(channelKey(c, "pitch_shift"), o.channels[c].params.pitchShift)
		o.config.set(channelKey(c, "detune"), o.channels[c].params.detune)
	}
}

func channelKey(channel int, field string) string {
	if channel == 0 {
		return "l_" + field
	}
	return "r_" + field
}

// SetUnison sets the unison voice count, clamped to [1, maxUnisonVoices].
func (o *Oscillator) SetUnison(n int) *Oscillator {
	if n < 1 {
		n = 1
	}
	if n > maxUnisonVoices {
		n = maxUnisonVoices
	}
	o.unison = n
	o.config.set("unison", n)
	return o
}

// SetDetune sets the per-channel unison detune spread, in semitones.
func (o *Oscillator) SetDetune(detune StereoSample) *Oscillator {
	for c := range o.channels {
		o.channels[c].params.detune = detune[c]
		o.config.set(channelKey(c, "detune"), detune[c])
	}
	return o
}

// SetLevel sets the per-channel output level.
func (o *Oscillator) SetLevel(level StereoSample) *Oscillator {
	for c := range o.channels {
		o.channels[c].params.level = level[c]
		o.config.set(channelKey(c, "level"), level[c])
	}
	return o
}

// SetPitchShift sets the per-channel static pitch shift, in semitones.
func (o *Oscillator) SetPitchShift(shift StereoSample) *Oscillator {
	for c := range o.channels {
		o.channels[c].params.pitchShift = shift[c]
		o.config.set(channelKey(c, "pitch_shift"), shift[c])
	}
	return o
}

func midiToFreq(note Sample) Sample {
	return 440 * Sample(math.Pow(2, float64(note-69)/12))
}

func (o *Oscillator) calcFrequency(note, pitchShift, pitchShiftMod Sample) Sample {
	return midiToFreq(note + pitchShift + pitchShiftMod*pitchModRangeSemitones)
}

func sampleFromPhase(phase Phase, from, to *WaveformBuffer, t Sample) Sample {
	idx := phase.WaveIndex()
	frac := phase.WaveIndexFraction()
	return interpolatedSample(from, idx, frac)*(1-t) + interpolatedSample(to, idx, frac)*t
}

func (o *Oscillator) Inputs() []InputType {
	return []InputType{InputSpectrum, InputLevel, InputPitchShift, InputDetune}
}

func (o *Oscillator) Output() DataType { return DataTypeBuffer }

func (o *Oscillator) NoteOn(params *NoteOnParams) {
	for c := range o.channels {
		voice := &o.channels[c].voices[params.VoiceIdx]
		voice.note = params.Note
		voice.needsReset = true
		voice.swapped = false

		if !params.SameNoteRetrigger {
			for u := 0; u < maxUnisonVoices; u++ {
				voice.phases[u] = FromNormalized(Sample(o.rng.Float64()))
			}
		}
	}
}

func (o *Oscillator) prepareWaveBuffers(voice *oscillatorVoice, spectrumFirst, spectrumCurrent *SpectralBuffer, freq, sampleRate Sample) {
	cutoff := cutoffBinForFrequency(freq, sampleRate)

	if voice.needsReset {
		buildWave(spectrumFirst, cutoff, o.scratch, &voice.waves[0])
		buildWave(spectrumCurrent, cutoff, o.scratch, &voice.waves[1])
		voice.needsReset = false
		voice.swapped = false
		return
	}

	from, _ := voice.fromToIdx()
	buildWave(spectrumCurrent, cutoff, o.scratch, &voice.waves[from])
	voice.swapped = !voice.swapped
}

func (o *Oscillator) processChannelVoice(channel *oscillatorChannel, channelIdx, voiceIdx int, params *ProcessParams, router Router) {
	voice := &channel.voices[voiceIdx]

	levelMod := router.GetInput(NewInput(InputLevel, o.id), voiceIdx, channelIdx, &o.levelModBuf)
	if levelMod == nil {
		levelMod = &OnesBuffer
	}
	pitchMod := router.GetInput(NewInput(InputPitchShift, o.id), voiceIdx, channelIdx, &o.pitchModBuf)
	if pitchMod == nil {
		pitchMod = &ZeroBuffer
	}
	detuneMod := router.GetInput(NewInput(InputDetune, o.id), voiceIdx, channelIdx, &o.detuneModBuf)
	if detuneMod == nil {
		detuneMod = &ZeroBuffer
	}

	spectrumFirst := router.GetSpectralInput(NewInput(InputSpectrum, o.id), false, voiceIdx, channelIdx)
	if spectrumFirst == nil {
		spectrumFirst = &HarmonicSeriesBuffer
	}
	spectrumCurrent := router.GetSpectralInput(NewInput(InputSpectrum, o.id), true, voiceIdx, channelIdx)
	if spectrumCurrent == nil {
		spectrumCurrent = &HarmonicSeriesBuffer
	}

	freqForReset := o.calcFrequency(voice.note, channel.params.pitchShift, pitchMod[0])
	o.prepareWaveBuffers(voice, spectrumFirst, spectrumCurrent, freqForReset, params.SampleRate)

	from, to := voice.fromToIdx()
	fromBuf, toBuf := &voice.waves[from], &voice.waves[to]

	samples := params.Samples
	unison := o.unison

	for i := 0; i < samples; i++ {
		t := Sample(i) / Sample(BufferSize)
		freq := o.calcFrequency(voice.note, channel.params.pitchShift, pitchMod[i])

		var out Sample
		if unison <= 1 {
			s := sampleFromPhase(voice.phases[0], fromBuf, toBuf, t)
			voice.phases[0].AdvanceFrequency(freq, params.SampleRate)
			out = s
		} else {
			detune := channel.params.detune + detuneMod[i]
			step := detune / Sample(unison-1)
			start := -0.5 * detune
			var sum Sample
			for u := 0; u < unison; u++ {
				noteOffset := start + step*Sample(u)
				subFreq := freq * Sample(math.Pow(2, float64(noteOffset)/12))
				s := sampleFromPhase(voice.phases[u], fromBuf, toBuf, t)
				voice.phases[u].AdvanceFrequency(subFreq, params.SampleRate)
				sum += s
			}
			out = sum / Sample(math.Sqrt(float64(unison)))
		}

		voice.output[i] = out * channel.params.level * levelMod[i]
	}
}

func (o *Oscillator) Process(params *ProcessParams, router Router) {
	for c := range o.channels {
		for _, voiceIdx := range params.ActiveVoices {
			o.processChannelVoice(&o.channels[c], c, voiceIdx, params, router)
		}
	}
}

func (o *Oscillator) BufferOutput(voiceIdx, channel int) *Buffer {
	return &o.channels[channel].voices[voiceIdx].output
}
