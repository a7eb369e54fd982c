package synth

import (
	"encoding/json"
	"fmt"
	"io"
)

// Save snapshots every module's parameters and the current routing
// into a Preset, ready for json.Marshal.
func (e *Engine) Save(title string) *Preset {
	lastID, links, outputLevel := e.routingCfg.snapshot()

	modules := make(map[ModuleID]PresetModule, len(e.moduleConfigs))
	for id, cfg := range e.moduleConfigs {
		modules[id] = PresetModule{Type: cfg.Type, Data: cfg.snapshot()}
	}

	return &Preset{
		Info: PresetInfo{Title: title},
		Config: PresetConfig{
			Routing: PresetRouting{LastModuleID: lastID, Links: links, OutputLevel: outputLevel},
			Modules: modules,
		},
	}
}

// WritePreset marshals and writes a preset document, per spec.md §6's
// ".adp" JSON format.
func WritePreset(w io.Writer, preset *Preset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(preset); err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPresetIO, err)
	}
	return nil
}

// ReadPreset reads and unmarshals a preset document.
func ReadPreset(r io.Reader) (*Preset, error) {
	var preset Preset
	if err := json.NewDecoder(r).Decode(&preset); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrPresetIO, err)
	}
	return &preset, nil
}

// Load rebuilds this engine's module set and routing from a preset,
// discarding whatever was previously configured. Modules are
// instantiated in ascending id order so that id allocation (and any
// logging of it) is deterministic; routing is applied only after every
// module exists, since links may reference any id in the set.
func (e *Engine) Load(preset *Preset) error {
	e.modules = make(map[ModuleID]Module, len(preset.Config.Modules))
	e.moduleConfigs = make(map[ModuleID]*moduleConfig, len(preset.Config.Modules))
	e.links = nil
	e.order = nil

	ids := make([]ModuleID, 0, len(preset.Config.Modules))
	for id := range preset.Config.Modules {
		ids = append(ids, id)
	}
	sortModuleIDs(ids)

	for _, id := range ids {
		pm := preset.Config.Modules[id]
		cfg := newModuleConfig(pm.Type)
		module := e.instantiate(id, pm.Type, cfg)
		if err := applyModuleData(module, pm.Type, pm.Data); err != nil {
			return fmt.Errorf("%w: module %d: %v", ErrPresetIO, id, err)
		}
		cfg.Data = pm.Data
		e.modules[id] = module
		e.moduleConfigs[id] = cfg
	}

	if err := e.setupRouting(preset.Config.Routing.Links); err != nil {
		return fmt.Errorf("%w: %v", ErrPresetIO, err)
	}
	e.routingCfg = &routingConfig{
		LastModuleID: preset.Config.Routing.LastModuleID,
		Links:        preset.Config.Routing.Links,
		OutputLevel:  preset.Config.Routing.OutputLevel,
	}
	e.nextID = preset.Config.Routing.LastModuleID
	e.SetOutputLevel(preset.Config.Routing.OutputLevel)

	return nil
}

func sortModuleIDs(ids []ModuleID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func sampleField(data map[string]any, key string, def Sample) Sample {
	if v, ok := data[key]; ok {
		if f, ok := v.(float64); ok {
			return Sample(f)
		}
		if f, ok := v.(Sample); ok {
			return f
		}
	}
	return def
}

func stereoField(data map[string]any, key string, def StereoSample) StereoSample {
	return StereoSample{
		sampleField(data, "l_"+key, def[0]),
		sampleField(data, "r_"+key, def[1]),
	}
}

func intField(data map[string]any, key string, def int) int {
	if v, ok := data[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	switch n := data[key].(type) {
	case int:
		return n
	case VolumeType:
		return int(n)
	case LfoShape:
		return int(n)
	case ShaperType:
		return int(n)
	case Expression:
		return int(n)
	}
	return def
}

func boolField(data map[string]any, key string, def bool) bool {
	if v, ok := data[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// applyModuleData restores a freshly instantiated module's parameters
// from its saved config snapshot, type by type; the default-constructed
// module supplies every field's fallback, so a preset written by an
// older version with fewer fields still loads cleanly.
func applyModuleData(module Module, t ModuleType, data map[string]any) error {
	switch m := module.(type) {
	case *Oscillator:
		m.SetUnison(intField(data, "unison", m.unison))
		m.SetDetune(stereoField(data, "detune", StereoSample{m.channels[0].params.detune, m.channels[1].params.detune}))
		m.SetLevel(stereoField(data, "level", StereoSample{m.channels[0].params.level, m.channels[1].params.level}))
		m.SetPitchShift(stereoField(data, "pitch_shift", StereoSample{m.channels[0].params.pitchShift, m.channels[1].params.pitchShift}))
	case *SpectralFilter:
		m.SetQ(sampleField(data, "q", m.q))
		m.SetFourPole(boolField(data, "four_pole", m.fourPole))
		m.SetCutoff(stereoField(data, "cutoff", StereoSample{m.channels[0].params.cutoff, m.channels[1].params.cutoff}))
	case *HarmonicEditor:
		if raw, ok := data["harmonics"].([]any); ok {
			for i, v := range raw {
				if i >= NumEditableHarmonics {
					break
				}
				switch gain := v.(type) {
				case []any:
					// round-tripped through JSON: a decoded array of float64
					if len(gain) == NumChannels {
						l, _ := gain[0].(float64)
						r, _ := gain[1].(float64)
						m.SetHarmonic(i+1, StereoSample{Sample(l), Sample(r)})
					}
				case StereoSample:
					// in-memory Save() -> Load() with no JSON round trip
					m.SetHarmonic(i+1, gain)
				}
			}
		}
	case *Envelope:
		m.SetKeepAlive(boolField(data, "keep_alive", m.keepAlive))
		m.SetAttack(stereoField(data, "attack", StereoSample{m.channels[0].params.attackTime, m.channels[1].params.attackTime}))
		m.SetDecay(stereoField(data, "decay", StereoSample{m.channels[0].params.decayTime, m.channels[1].params.decayTime}))
		m.SetSustain(stereoField(data, "sustain", StereoSample{m.channels[0].params.sustainLvl, m.channels[1].params.sustainLvl}))
		m.SetRelease(stereoField(data, "release", StereoSample{m.channels[0].params.releaseTime, m.channels[1].params.releaseTime}))
	case *Amplifier:
		m.SetVoiceKillTime(sampleField(data, "voice_kill_time", m.voiceKillTime))
		m.SetLevel(stereoField(data, "level", StereoSample{m.channels[0].params.level, m.channels[1].params.level}))
	case *Mixer:
		m.SetNumInputs(intField(data, "num_inputs", m.numInputs))
		m.SetOutputVolumeType(VolumeType(intField(data, "output_volume_type", int(m.outputVolumeType))))
		for i := 0; i < MaxMixerInputs; i++ {
			m.SetVolumeType(i, VolumeType(intField(data, fmt.Sprintf("input_volume_type_%d", i), int(m.inputVolumeTypes[i]))))
			m.SetInputGain(i, stereoField(data, fmt.Sprintf("input_gain_%d", i), StereoSample{m.channels[0].params.inputs[i].gain, m.channels[1].params.inputs[i].gain}))
			m.SetInputLevel(i, stereoField(data, fmt.Sprintf("input_level_%d", i), StereoSample{m.channels[0].params.inputs[i].level, m.channels[1].params.inputs[i].level}))
		}
		m.SetOutputLevel(stereoField(data, "output_level", StereoSample{m.channels[0].params.outputLevel, m.channels[1].params.outputLevel}))
		m.SetOutputGain(stereoField(data, "output_gain", StereoSample{m.channels[0].params.outputGain, m.channels[1].params.outputGain}))
	case *SpectralMixer:
		m.SetNumInputs(intField(data, "num_inputs", m.numInputs))
		m.SetOutputLevel(stereoField(data, "output_level", StereoSample{m.channels[0].params.outputLevel, m.channels[1].params.outputLevel}))
	case *SpectralBlend:
		m.SetBlend(stereoField(data, "blend", StereoSample{m.channels[0].params.blend, m.channels[1].params.blend}))
	case *WaveShaper:
		m.SetShaperType(ShaperType(intField(data, "shaper_type", int(m.shaperType))))
		m.SetDistortion(stereoField(data, "distortion", StereoSample{m.channels[0].params.distortion, m.channels[1].params.distortion}))
		m.SetClippingLevel(stereoField(data, "clipping_level", StereoSample{m.channels[0].params.clippingLevel, m.channels[1].params.clippingLevel}))
	case *LFO:
		m.SetShape(LfoShape(intField(data, "shape", int(m.shape))))
		m.SetBipolar(boolField(data, "bipolar", m.bipolar))
		m.SetResetPhase(boolField(data, "reset_phase", m.resetPhase))
		m.SetFrequency(stereoField(data, "frequency", StereoSample{m.channels[0].params.frequency, m.channels[1].params.frequency}))
		m.SetPhaseShift(stereoField(data, "phase_shift", StereoSample{m.channels[0].params.phaseShift, m.channels[1].params.phaseShift}))
		m.SetSkew(stereoField(data, "skew", StereoSample{m.channels[0].params.skew, m.channels[1].params.skew}))
	case *Expressions:
		m.SetExpression(Expression(intField(data, "expression", int(m.expression))))
		m.SetUseReleaseVelocity(boolField(data, "use_release_velocity", m.useReleaseVelocity))
		m.SetSmooth(sampleField(data, "smooth", m.smooth))
	case *ExternalParam:
		m.SelectParam(intField(data, "selected_param_index", m.selectedParamIdx))
		m.SetSmooth(sampleField(data, "smooth", m.smooth))
		m.SetSampleAndHold(boolField(data, "sample_and_hold", m.sampleAndHold))
	case *ModulationFilter:
		m.SetCutoffFrequency(sampleField(data, "cutoff_frequency", m.cutoffFrequency))
	default:
		return fmt.Errorf("unhandled module type %v", t)
	}
	return nil
}
