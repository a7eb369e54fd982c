package synth

import (
	"strings"

	"github.com/cbegin/additizer-go/internal/effects"
)

// EffectSpec describes one post-chain insert effect, the typed
// replacement for the teacher player's "#EFFECTn{type param,param,...}" MML
// directive now that MML text parsing is out of scope: Type names one
// of delay/reverb/chorus/distortion/eq/compressor and Params supplies
// its positional arguments in the same order createEffect expects.
type EffectSpec struct {
	Type   string
	Params []float64
}

// BuildEffectChain constructs a post-chain insert effect.Chain from a
// list of typed specs, grounded on the teacher player's buildEffectChain;
// each spec is built by createEffect below. An unrecognized Type is skipped rather than erroring,
// matching the teacher's tolerant directive parsing. Returns nil if
// specs is empty or every entry is unrecognized.
func BuildEffectChain(specs []EffectSpec, sampleRate int) *effects.Chain {
	chain := effects.NewChain()
	added := false
	for _, spec := range specs {
		if eff := createEffect(strings.ToLower(strings.TrimSpace(spec.Type)), spec.Params, sampleRate); eff != nil {
			chain.Add(eff)
			added = true
		}
	}
	if !added {
		return nil
	}
	return chain
}

func createEffect(effectType string, params []float64, sampleRate int) effects.Effector {
	getParam := func(idx int, def float64) float64 {
		if idx < len(params) {
			return params[idx]
		}
		return def
	}
	switch effectType {
	case "delay":
		return effects.NewDelay(sampleRate,
			getParam(0, 250),
			float32(getParam(1, 0.4)),
			float32(getParam(2, 0.2)),
			float32(getParam(3, 0.3)),
		)
	case "reverb":
		return effects.NewReverb(sampleRate,
			float32(getParam(0, 0.5)),
			float32(getParam(1, 0.7)),
			float32(getParam(2, 0.25)),
		)
	case "chorus":
		return effects.NewChorus(sampleRate,
			float32(getParam(0, 15)),
			float32(getParam(1, 0.3)),
			float32(getParam(2, 3)),
			float32(getParam(3, 1.5)),
			float32(getParam(4, 0.4)),
		)
	case "dist", "distortion":
		return effects.NewDistortion(sampleRate,
			float32(getParam(0, 4)),
			float32(getParam(1, 0.5)),
			float32(getParam(2, 8000)),
		)
	case "eq":
		return effects.NewEQ3Band(sampleRate,
			float32(getParam(0, 1.0)),
			float32(getParam(1, 1.0)),
			float32(getParam(2, 1.0)),
			float32(getParam(3, 300)),
			float32(getParam(4, 3000)),
		)
	case "comp", "compressor":
		return effects.NewCompressor(sampleRate,
			float32(getParam(0, -20)),
			float32(getParam(1, 4)),
			float32(getParam(2, 5)),
			float32(getParam(3, 100)),
			float32(getParam(4, 6)),
		)
	}
	return nil
}
