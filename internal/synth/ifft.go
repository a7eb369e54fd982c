package synth

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// buildWave reconstructs a time-domain wavetable cycle from a
// half-complex spectral frame: zero every bin at or above cutoff
// (anti-aliasing, spec.md §4.3 step 3), mirror/conjugate the spectrum
// to full length, inverse-transform, then wrap-pad for Catmull-Rom
// reads at the cycle boundary.
//
// scratch must be length WaveformSize and is reused across calls to
// avoid reallocating per voice per block; go-dsp's fft.IFFT itself
// allocates its result slice internally (no zero-alloc Go FFT plan
// object appears anywhere in the example pack), but this is only
// invoked once per voice when its spectral input actually changes, not
// every sample, matching the original's "computed synchronously ...
// for each active voice whose oscillator received a new spectral
// snapshot" note.
func buildWave(spectrum *SpectralBuffer, cutoffBin int, scratch []ComplexSample, out *WaveformBuffer) {
	for i := range scratch {
		scratch[i] = 0
	}

	n := WaveformSize
	for k := 0; k < cutoffBin && k < SpectralBufferSize; k++ {
		scratch[k] = spectrum[k]
		if k != 0 && k != n/2 {
			scratch[n-k] = cmplx.Conj(spectrum[k])
		}
	}

	result := fft.IFFT(scratch)

	dst := waveSlice(out)
	for i := range dst {
		dst[i] = Sample(real(result[i]))
	}

	wrapWaveBuffer(out)
}

// cutoffBinForFrequency returns the spectral bin at or above which
// harmonics would alias above Nyquist, per spec.md §4.3 step 2.
func cutoffBinForFrequency(frequency, sampleRate Sample) int {
	bin := int(math.Floor(float64(0.5*sampleRate/frequency))) + 1
	if bin > SpectralBufferSize-1 {
		bin = SpectralBufferSize - 1
	}
	if bin < 0 {
		bin = 0
	}
	return bin
}
