package additizer

import "github.com/cbegin/additizer-go/internal/synth"

// BuildDefaultPatch wires a minimal four-module voice onto engine: a
// HarmonicEditor feeding an Oscillator's spectrum, an Envelope driving
// an Amplifier's level, and the Amplifier's output routed to OUTPUT.
// It is the graph-engine analogue of the teacher's defaultMML constant
// in cmd/play_mml/main.go: a ready-to-play patch for a first run of
// cmd/play_synth or a quick render in tests, not a stand-in for a
// saved preset.
func BuildDefaultPatch(engine *synth.Engine) error {
	harmonics := engine.AddModule(synth.ModuleTypeHarmonicEditor)
	osc := engine.AddModule(synth.ModuleTypeOscillator)
	env := engine.AddModule(synth.ModuleTypeEnvelope)
	amp := engine.AddModule(synth.ModuleTypeAmplifier)

	links := []synth.ModuleLink{
		synth.NewLink(synth.NewOutput(synth.OutputSpectrum, harmonics), synth.NewInput(synth.InputSpectrum, osc)),
		synth.NewLink(synth.NewOutput(synth.OutputAudio, osc), synth.NewInput(synth.InputAudio, amp)),
		synth.NewLink(synth.NewOutput(synth.OutputAudio, env), synth.NewInput(synth.InputLevel, amp)),
		synth.NewLink(synth.NewOutput(synth.OutputAudio, amp), synth.NewInput(synth.InputAudio, synth.OutputModuleID)),
	}
	for _, link := range links {
		if err := engine.SetLink(link); err != nil {
			return err
		}
	}
	return nil
}
