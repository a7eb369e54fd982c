package synth

// BufferSize is the fixed audio block length in samples.
const BufferSize = 128

// WaveformBits is the log2 of the wavetable length; the high bits of a
// Phase index into a wavetable of this size.
const WaveformBits = 11

// WaveformSize is the wavetable length, 2^WaveformBits.
const WaveformSize = 1 << WaveformBits

// WaveformPadLeft/WaveformPadRight are the Catmull-Rom interpolation
// guard samples mirrored around the wavetable's wraparound point.
const (
	WaveformPadLeft  = 1
	WaveformPadRight = 2
)

// WaveformBufferSize is the padded wavetable storage length.
const WaveformBufferSize = WaveformSize + WaveformPadLeft + WaveformPadRight

// SpectralBufferSize is the half-complex spectral frame length for a
// WaveformSize-point real FFT.
const SpectralBufferSize = WaveformSize/2 + 1

// Buffer is one block of per-sample audio.
type Buffer [BufferSize]Sample

// WaveformBuffer is a padded single-cycle wavetable.
type WaveformBuffer [WaveformBufferSize]Sample

// SpectralBuffer is a half-complex frequency-domain frame.
type SpectralBuffer [SpectralBufferSize]ComplexSample

// ZeroBuffer and OnesBuffer are shared read-only sentinels handed to
// modules whose input has no source connected.
var (
	ZeroBuffer Buffer
	OnesBuffer Buffer
)

// ZeroSpectralBuffer is the sentinel for an unconnected spectral input.
var ZeroSpectralBuffer SpectralBuffer

// HarmonicSeriesBuffer is the spectral coefficients of an ideal
// sawtooth: bin k (k>=1) has imaginary part (-1)^(k+1)/(k*pi); bin 0 is
// zero. This is the default spectral source for an unconnected
// Oscillator input and the raw material HarmonicEditor scales.
var HarmonicSeriesBuffer SpectralBuffer

func init() {
	for i := range OnesBuffer {
		OnesBuffer[i] = 1
	}

	for k := 1; k < SpectralBufferSize; k++ {
		sign := 1.0
		if k%2 == 0 {
			sign = -1.0
		}
		HarmonicSeriesBuffer[k] = complex(0, sign/(float64(k)*piF64))
	}
}

const piF64 = 3.14159265358979323846

// fillOrAdd copies src into dst (overwrite=true) or accumulates it
// (overwrite=false), matching the teacher's mixing idiom in
// internal/effects and the original's copy_or_add_buffer helper.
func fillOrAdd(dst *Buffer, src *Buffer, overwrite bool) {
	if overwrite {
		*dst = *src
		return
	}
	for i := range dst {
		dst[i] += src[i]
	}
}

// catmullRom interpolates between four consecutive samples at fractional
// position t in [0,1) between p1 and p2.
func catmullRom(p0, p1, p2, p3, t Sample) Sample {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2*p1)+
		(-p0+p2)*t+
		(2*p0-5*p1+4*p2-p3)*t2+
		(-p0+3*p1-3*p2+p3)*t3)
}

// interpolatedSample reads a Catmull-Rom interpolated value from a
// padded wavetable at wave index idx (already reduced mod WaveformSize)
// with fractional offset frac in [0,1).
func interpolatedSample(wave *WaveformBuffer, idx int, frac Sample) Sample {
	// wave[WaveformPadLeft + idx] is the sample at the integer index;
	// the padding guarantees idx-1 and idx+1, idx+2 are valid reads.
	base := WaveformPadLeft + idx
	return catmullRom(wave[base-1], wave[base], wave[base+1], wave[base+2], frac)
}

// wrapWaveBuffer mirrors the wavetable's wraparound samples into its pad
// regions so interpolation never reads past the cycle boundary.
func wrapWaveBuffer(wave *WaveformBuffer) {
	const lastReal = WaveformPadLeft + WaveformSize - 1
	wave[0] = wave[lastReal]
	wave[WaveformBufferSize-WaveformPadRight] = wave[WaveformPadLeft]
	wave[WaveformBufferSize-WaveformPadRight+1] = wave[WaveformPadLeft+1]
}

// waveSlice returns the unpadded [0:WaveformSize) region of a wavetable
// for writing (e.g. by the inverse FFT).
func waveSlice(wave *WaveformBuffer) []Sample {
	return wave[WaveformPadLeft : WaveformPadLeft+WaveformSize]
}
