package synth

import "math"

// Phase is a 32-bit fixed-point wavetable phase accumulator. Its high
// WaveformBits bits index the wavetable; the remaining bits are the
// fractional position within that sample, scaled into [0,1). Advancing
// wraps for free via unsigned overflow.
type Phase uint32

// ZeroPhase is the phase at note-on before any randomization.
const ZeroPhase Phase = 0

const (
	intermediateBits = 32 - WaveformBits
	intermediateMask = (1 << intermediateBits) - 1
	intermediateMult = 1.0 / float64(uint32(1)<<intermediateBits)
)

// FreqPhaseMult returns the per-sample phase increment multiplier for
// the given sample rate: advancing by frequency f adds
// round(f * FreqPhaseMult(sr)) to the accumulator each sample.
func FreqPhaseMult(sampleRate Sample) float64 {
	return float64(uint64(1)<<32) / float64(sampleRate)
}

// WaveIndex returns the integer wavetable index for this phase.
func (p Phase) WaveIndex() int {
	return int(uint32(p) >> intermediateBits)
}

// WaveIndexFraction returns the sub-sample fractional position in [0,1).
func (p Phase) WaveIndexFraction() Sample {
	return Sample(float64(uint32(p)&intermediateMask) * intermediateMult)
}

// Normalized returns the phase as a value in [0,1).
func (p Phase) Normalized() Sample {
	return Sample(float64(uint32(p)) / float64(uint64(1)<<32))
}

// FromNormalized builds a Phase from a value in [0,1) (values outside
// the range wrap, matching the accumulator's modular arithmetic).
func FromNormalized(norm Sample) Phase {
	return Phase(uint32(int64(float64(norm) * float64(uint64(1)<<32))))
}

// AddNormalized returns this phase advanced by a normalized offset,
// without mutating the receiver.
func (p Phase) AddNormalized(norm Sample) Phase {
	return p + FromNormalized(norm)
}

// Advance adds a raw Phase delta (wrapping).
func (p *Phase) Advance(delta Phase) {
	*p += delta
}

// AdvanceNormalized advances the phase by a normalized offset in place.
func (p *Phase) AdvanceNormalized(norm Sample) {
	*p += FromNormalized(norm)
}

// AdvanceFrequency advances the phase by one sample at the given
// frequency and sample rate, per spec.md's fixed-point phase rule.
func (p *Phase) AdvanceFrequency(frequency, sampleRate Sample) {
	*p += Phase(uint32(int64(math.Round(float64(frequency) * FreqPhaseMult(sampleRate)))))
}
