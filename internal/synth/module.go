package synth

// MaxVoices is the fixed polyphony of the voice pool.
const MaxVoices = 16

// NoteOnParams is delivered to every module's NoteOn (in no particular
// order) when a voice is (re)triggered.
type NoteOnParams struct {
	Note              Sample
	Velocity          Sample
	VoiceIdx          int
	SameNoteRetrigger bool
	Reset             bool
}

// NoteOffParams is delivered to every module's NoteOff when a voice's
// note is released.
type NoteOffParams struct {
	VoiceIdx int
	Velocity Sample
}

// ProcessParams is delivered to every module's Process call once per
// block, in execution order.
type ProcessParams struct {
	Samples        int
	SampleRate     Sample
	TStep          Sample // 1/SampleRate, used by per-sample phase advances
	BufferTStep    Sample // Samples/SampleRate, used by per-block scalar ramps
	ActiveVoices   []int
	NeedsAudioRate bool
}

// VoiceAlive is the per-voice activity vote an amplitude-producing
// module contributes when the engine polls for termination.
type VoiceAlive struct {
	idx     int
	killed  bool
	alive   bool
	touched bool
}

// Index returns the voice slot this vote concerns.
func (v *VoiceAlive) Index() int { return v.idx }

// Killed reports whether this voice is in a kill-fade.
func (v *VoiceAlive) Killed() bool { return v.killed }

// MarkAlive records this module's vote on whether the voice is still
// producing signal.
func (v *VoiceAlive) MarkAlive(alive bool) {
	v.touched = true
	if alive {
		v.alive = true
	}
}

// Router resolves a module's modulated inputs by pulling from upstream
// module outputs, aggregating when an input has multiple sources.
type Router interface {
	// GetInput resolves a Buffer input. scratch is used as aggregation
	// scratch space when more than one source feeds the input; the
	// returned slice may or may not be scratch itself.
	GetInput(input ModuleInput, voiceIdx, channel int, scratch *Buffer) *Buffer

	// GetSpectralInput resolves a Spectral input for either the "first"
	// (current=false) or "current" (current=true) double-buffered slot.
	GetSpectralInput(input ModuleInput, current bool, voiceIdx, channel int) *SpectralBuffer

	// GetScalarInput resolves a Scalar input for either the "first" or
	// "current" double-buffered slot.
	GetScalarInput(input ModuleInput, current bool, voiceIdx, channel int) Sample
}

// Module is the uniform contract every graph node satisfies: a stable
// identity, a declared input/output shape, note lifecycle callbacks,
// and per-block processing with typed output accessors. Only the
// accessor matching Output() is meaningful for a given module.
type Module interface {
	ID() ModuleID
	Label() string
	SetLabel(label string)
	ModuleType() ModuleType
	Inputs() []InputType
	Output() DataType

	NoteOn(params *NoteOnParams)
	NoteOff(params *NoteOffParams)
	KillVoice(voiceIdx int)
	PollAliveVoices(alive []*VoiceAlive)

	Process(params *ProcessParams, router Router)

	BufferOutput(voiceIdx, channel int) *Buffer
	SpectralOutput(voiceIdx, channel int, current bool) *SpectralBuffer
	ScalarOutput(voiceIdx, channel int, current bool) Sample
}

// ModuleType discriminates the heterogeneous module implementations for
// config serialization and routing-node bookkeeping.
type ModuleType int

const (
	ModuleTypeOscillator ModuleType = iota
	ModuleTypeEnvelope
	ModuleTypeAmplifier
	ModuleTypeSpectralFilter
	ModuleTypeHarmonicEditor
	ModuleTypeMixer
	ModuleTypeSpectralMixer
	ModuleTypeSpectralBlend
	ModuleTypeWaveShaper
	ModuleTypeLFO
	ModuleTypeExpressions
	ModuleTypeExternalParam
	ModuleTypeModulationFilter
)

func (t ModuleType) String() string {
	switch t {
	case ModuleTypeOscillator:
		return "Oscillator"
	case ModuleTypeEnvelope:
		return "Envelope"
	case ModuleTypeAmplifier:
		return "Amplifier"
	case ModuleTypeSpectralFilter:
		return "SpectralFilter"
	case ModuleTypeHarmonicEditor:
		return "HarmonicEditor"
	case ModuleTypeMixer:
		return "Mixer"
	case ModuleTypeSpectralMixer:
		return "SpectralMixer"
	case ModuleTypeSpectralBlend:
		return "SpectralBlend"
	case ModuleTypeWaveShaper:
		return "WaveShaper"
	case ModuleTypeLFO:
		return "LFO"
	case ModuleTypeExpressions:
		return "Expressions"
	case ModuleTypeExternalParam:
		return "ExternalParam"
	case ModuleTypeModulationFilter:
		return "ModulationFilter"
	default:
		return "Unknown"
	}
}

// baseModule factors the identity/label bookkeeping shared by every
// module implementation, mirroring how the original threads id/label
// through each modules/*.rs file.
type baseModule struct {
	id         ModuleID
	label      string
	moduleType ModuleType
}

func newBaseModule(id ModuleID, t ModuleType) baseModule {
	return baseModule{id: id, label: t.String(), moduleType: t}
}

func (b *baseModule) ID() ModuleID          { return b.id }
func (b *baseModule) Label() string         { return b.label }
func (b *baseModule) SetLabel(label string) { b.label = label }
func (b *baseModule) ModuleType() ModuleType { return b.moduleType }

// noop* default implementations let a concrete module type skip
// boilerplate for callbacks it doesn't need, matching the original's
// default no-op NoteOn/NoteOff/KillVoice/PollAliveVoices trait methods.

func (b *baseModule) NoteOn(*NoteOnParams)          {}
func (b *baseModule) NoteOff(*NoteOffParams)         {}
func (b *baseModule) KillVoice(int)                  {}
func (b *baseModule) PollAliveVoices([]*VoiceAlive)  {}

func (b *baseModule) BufferOutput(int, int) *Buffer {
	panic(b.label + " doesn't have a buffer output")
}

func (b *baseModule) SpectralOutput(int, int, bool) *SpectralBuffer {
	panic(b.label + " doesn't have a spectral output")
}

func (b *baseModule) ScalarOutput(int, int, bool) Sample {
	panic(b.label + " doesn't have a scalar output")
}
