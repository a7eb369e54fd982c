package additizer

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cbegin/additizer-go/internal/synth"
)

// RenderSamples drives p's engine through score for the given duration
// and returns the rendered interleaved stereo float32 samples, without
// touching any audio output device. The engine's graph, routing, and
// output level must already be configured (via Engine()) before
// calling this.
func (p *Player) RenderSamples(score []NoteEvent, seconds float64) []float32 {
	frames := int(float64(p.sampleRate) * seconds)
	out := make([]float32, frames*2)

	wrapper := &scoreWrapper{
		engine:     p.engine,
		sampleRate: p.sampleRate,
		events:     score,
		masterEQ:   p.masterEQ,
	}
	wrapper.Process(out)
	return out
}

// Render renders score for the given duration and writes it to w as a
// 32-bit float PCM WAV file, the headless analogue of PlayScore: used
// by tests and cmd/play_synth's -render preview mode, adapting
// offline.go's RenderSamples + EncodeWAVFloat32LE pattern.
func (p *Player) Render(w io.Writer, score []NoteEvent, seconds float64) error {
	samples := p.RenderSamples(score, seconds)
	_, err := w.Write(EncodeWAVFloat32LE(samples, p.sampleRate, synth.NumChannels))
	return err
}

// EncodeWAVFloat32LE wraps interleaved stereo float32 samples in a
// minimal canonical WAV header (format tag 3, 32-bit float samples).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
