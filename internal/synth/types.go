// Package synth implements the additive/spectral module-graph engine:
// a typed DAG of signal-processing modules evaluated per voice, per
// block, in topological order.
package synth

import "math/cmplx"

// Sample is the engine's native float width throughout the audio path.
type Sample = float32

// NumChannels is the fixed stereo channel count.
const NumChannels = 2

// StereoSample is a pair of per-channel values, indexed 0=L, 1=R.
type StereoSample [NumChannels]Sample

// SplatStereo returns a StereoSample with both channels set to v.
func SplatStereo(v Sample) StereoSample {
	return StereoSample{v, v}
}

// Left returns the left channel value.
func (s StereoSample) Left() Sample { return s[0] }

// Right returns the right channel value.
func (s StereoSample) Right() Sample { return s[1] }

// ModuleID identifies a module instance. ID 0 is reserved for the
// synthetic OUTPUT sink, which is never a real module.
type ModuleID int64

// OutputModuleID is the synthetic sink every patch ultimately routes to.
const OutputModuleID ModuleID = 0

// MinModuleID is the first id allocated to a real module.
const MinModuleID ModuleID = 1

// DataType names the signal kind carried by a port.
type DataType int

const (
	DataTypeBuffer DataType = iota
	DataTypeSpectral
	DataTypeScalar
)

func (d DataType) String() string {
	switch d {
	case DataTypeBuffer:
		return "buffer"
	case DataTypeSpectral:
		return "spectral"
	case DataTypeScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// InputType names a typed input port on a module.
type InputType int

const (
	InputAudio InputType = iota
	InputScalarInput
	InputLevel
	InputGain
	InputPitchShift
	InputDetune
	InputPhaseShift
	InputSpectrum
	InputSpectrumTo
	InputCutoff
	InputQ
	InputAttack
	InputHold
	InputDecay
	InputSustain
	InputRelease
	InputDistortion
	InputClipLevel
	InputBlend
	InputSkew
	InputLowFrequency
	InputPhaseShiftScalar
	InputOutputLevel
)

var inputDataTypes = map[InputType]DataType{
	InputAudio:            DataTypeBuffer,
	InputScalarInput:      DataTypeScalar,
	InputLevel:            DataTypeBuffer,
	InputGain:             DataTypeBuffer,
	InputPitchShift:       DataTypeBuffer,
	InputDetune:           DataTypeBuffer,
	InputPhaseShift:       DataTypeBuffer,
	InputSpectrum:         DataTypeSpectral,
	InputSpectrumTo:       DataTypeSpectral,
	InputCutoff:           DataTypeScalar,
	InputQ:                DataTypeScalar,
	InputAttack:           DataTypeScalar,
	InputHold:             DataTypeScalar,
	InputDecay:            DataTypeScalar,
	InputSustain:          DataTypeScalar,
	InputRelease:          DataTypeScalar,
	InputDistortion:       DataTypeBuffer,
	InputClipLevel:        DataTypeBuffer,
	InputBlend:            DataTypeScalar,
	InputSkew:             DataTypeScalar,
	InputLowFrequency:     DataTypeScalar,
	InputPhaseShiftScalar: DataTypeScalar,
	InputOutputLevel:      DataTypeBuffer,
}

// DataType returns the signal kind this input carries.
func (t InputType) DataType() DataType {
	return inputDataTypes[t]
}

// AudioMixInput returns the typed input identifying the Nth mixer leg.
// Mixer inputs are distinguished by index rather than by InputType, so
// this is modeled as Audio plus an index carried on ModuleInput.Index.
func AudioMixInput() InputType { return InputAudio }

// OutputType names a typed output port on a module.
type OutputType int

const (
	OutputAudio OutputType = iota
	OutputSpectrum
	OutputScalar
)

// DataType returns the signal kind this output carries.
func (t OutputType) DataType() DataType {
	switch t {
	case OutputAudio:
		return DataTypeBuffer
	case OutputSpectrum:
		return DataTypeSpectral
	case OutputScalar:
		return DataTypeScalar
	default:
		panic("unknown output type")
	}
}

// ModuleInput names a destination port: a typed input on a module, with
// an optional Index disambiguating repeated ports (e.g. mixer legs).
type ModuleInput struct {
	Type     InputType
	ModuleID ModuleID
	Index    int
}

// NewInput builds a ModuleInput for the module's single port of this type.
func NewInput(t InputType, id ModuleID) ModuleInput {
	return ModuleInput{Type: t, ModuleID: id}
}

// NewIndexedInput builds a ModuleInput for one of several same-typed ports
// on a module (used by Mixer/SpectralMixer's per-leg inputs).
func NewIndexedInput(t InputType, id ModuleID, index int) ModuleInput {
	return ModuleInput{Type: t, ModuleID: id, Index: index}
}

// DataType returns the signal kind of this input.
func (m ModuleInput) DataType() DataType { return m.Type.DataType() }

// ModuleOutput names a source port: a typed output on a module.
type ModuleOutput struct {
	Type     OutputType
	ModuleID ModuleID
}

// NewOutput builds a ModuleOutput for the module's output port.
func NewOutput(t OutputType, id ModuleID) ModuleOutput {
	return ModuleOutput{Type: t, ModuleID: id}
}

// DataType returns the signal kind of this output.
func (m ModuleOutput) DataType() DataType { return m.Type.DataType() }

// ModuleLink connects a source output to a destination input, scaled by
// a per-channel modulation gain. Direct (non-modulating) links carry
// modulation (1,1).
type ModuleLink struct {
	Src        ModuleOutput
	Dst        ModuleInput
	Modulation StereoSample
}

// NewLink creates a direct, unscaled link.
func NewLink(src ModuleOutput, dst ModuleInput) ModuleLink {
	return ModuleLink{Src: src, Dst: dst, Modulation: SplatStereo(1)}
}

// NewModulationLink creates a link scaled by amount (may be negative to invert).
func NewModulationLink(src ModuleOutput, dst ModuleInput, amount StereoSample) ModuleLink {
	return ModuleLink{Src: src, Dst: dst, Modulation: amount}
}

// ComplexSample is the complex element type of a spectral bin.
type ComplexSample = complex128

func complexAbs(c ComplexSample) float64 { return cmplx.Abs(c) }
