package synth

// NumEditableHarmonics is the count of per-harmonic gains an editor
// exposes: every spectral bin except bin 0 and the Nyquist bin.
const NumEditableHarmonics = SpectralBufferSize - 2

// HarmonicEditor is a purely feed-forward spectral source: N editable
// per-harmonic stereo gains scaling HarmonicSeriesBuffer. It has no
// per-voice state since its output does not depend on which voice
// reads it. Grounded on
// original_source/src/synth_engine/modules/harmonic_editor.rs.
type HarmonicEditor struct {
	baseModule
	config    *moduleConfig
	harmonics [NumEditableHarmonics]StereoSample
	output    [NumChannels]SpectralBuffer
}

func NewHarmonicEditor(id ModuleID, config *moduleConfig) *HarmonicEditor {
	e := &HarmonicEditor{
		baseModule: newBaseModule(id, ModuleTypeHarmonicEditor),
		config:     config,
	}
	e.SetAllToOne()
	return e
}

// SetAllToOne resets every harmonic gain to unity (the ideal sawtooth).
func (e *HarmonicEditor) SetAllToOne() *HarmonicEditor {
	for i := range e.harmonics {
		e.harmonics[i] = SplatStereo(1)
	}
	e.updateBuffers()
	return e
}

// SetAllToZero silences every harmonic.
func (e *HarmonicEditor) SetAllToZero() *HarmonicEditor {
	for i := range e.harmonics {
		e.harmonics[i] = SplatStereo(0)
	}
	e.updateBuffers()
	return e
}

// KeepSelected zeroes every harmonic except the arithmetic sequence
// starting at `first` with common difference `step` (1-indexed
// harmonic numbers), matching the original's keep_selected.
func (e *HarmonicEditor) KeepSelected(first, step int) *HarmonicEditor {
	for i := range e.harmonics {
		harmonicNum := i + 1
		if step <= 0 || (harmonicNum-first)%step != 0 || harmonicNum < first {
			e.harmonics[i] = SplatStereo(0)
		} else {
			e.harmonics[i] = SplatStereo(1)
		}
	}
	e.updateBuffers()
	return e
}

// SetHarmonic sets a single 1-indexed harmonic's stereo gain.
func (e *HarmonicEditor) SetHarmonic(harmonicNum int, gain StereoSample) *HarmonicEditor {
	if harmonicNum < 1 || harmonicNum > NumEditableHarmonics {
		return e
	}
	e.harmonics[harmonicNum-1] = gain
	e.updateBuffers()
	return e
}

func (e *HarmonicEditor) updateBuffers() {
	for c := 0; c < NumChannels; c++ {
		e.output[c][0] = 0
		for bin := 1; bin <= NumEditableHarmonics; bin++ {
			e.output[c][bin] = HarmonicSeriesBuffer[bin] * complex(float64(e.harmonics[bin-1][c]), 0)
		}
		e.output[c][SpectralBufferSize-1] = 0
	}

	gains := make([]any, len(e.harmonics))
	for i, g := range e.harmonics {
		gains[i] = g
	}
	e.config.set("harmonics", gains)
}

func (e *HarmonicEditor) Inputs() []InputType { return nil }
func (e *HarmonicEditor) Output() DataType    { return DataTypeSpectral }

func (e *HarmonicEditor) Process(*ProcessParams, Router) {}

// SpectralOutput ignores voiceIdx/current: the editor is feed-forward
// and has no per-voice or first/current distinction.
func (e *HarmonicEditor) SpectralOutput(_ int, channel int, _ bool) *SpectralBuffer {
	return &e.output[channel]
}
