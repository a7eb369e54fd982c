package additizer

import (
	"errors"
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/additizer-go/internal/audio"
	intfx "github.com/cbegin/additizer-go/internal/effects"
	"github.com/cbegin/additizer-go/internal/synth"
)

// NoteEventKind identifies what a scheduled NoteEvent does to the
// engine's voice pool.
type NoteEventKind int

const (
	NoteEventOn NoteEventKind = iota
	NoteEventOff
	NoteEventChoke
)

// NoteEvent schedules a single engine action at an offset, in seconds,
// from the start of playback. It is the host-agnostic replacement for
// MML text: a timeline a sequencer, a MIDI file reader, or a test
// harness builds directly, with no text parsing stage.
type NoteEvent struct {
	Time     float64
	Kind     NoteEventKind
	Channel  uint8
	Note     uint8
	Velocity float32
}

// PlaybackEvent carries playback and voice-termination events from
// Watch(), the graph-engine analogue of the teacher's EventTrigger.
type PlaybackEvent struct {
	Kind    int
	VoiceID synth.VoiceID
}

const (
	EventPlaybackEnded int = iota
	EventVoiceTerminated
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	loopPlayback bool
	sampleTap    func([]float32)
	effects      []synth.EffectSpec
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{}
}

// WithLoopPlayback makes PlayScore restart the event timeline from its
// beginning once every scheduled event has fired and every voice has
// released, instead of ending playback.
func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated stereo
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithEffects installs the engine's post-chain insert effects, applied
// to the OUTPUT sink's stereo signal after the master output level and
// ahead of the master EQ.
func WithEffects(specs ...synth.EffectSpec) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = specs
	}
}

// Player drives a synth.Engine against a live audio output, the
// graph-engine analogue of the teacher's MML-driven Player: the module
// graph itself is built by the host through Engine() before playback
// starts (AddModule/SetLink), exactly as a GUI or preset load would
// configure it.
type Player struct {
	mu           sync.Mutex
	sampleRate   int
	engine       *synth.Engine
	audio        *intaudio.Player
	volume       float64
	loopPlayback bool
	sampleTap    func([]float32)
	masterEQ     *intfx.EQ5Band
	done         chan struct{}
	eventCh      chan PlaybackEvent
	eventChMu    sync.Mutex
}

// scoreWrapper wraps an engine and a NoteEvent timeline and implements
// SampleSource + FinishingSource: it fires due events before each rendered chunk, applies the master
// EQ and sample tap after the engine's own post-chain effects, and
// reports Finished() once the timeline is exhausted and every voice
// has released.
type scoreWrapper struct {
	engine     *synth.Engine
	sampleRate int
	events     []NoteEvent
	next       int
	loop       bool
	epoch      int64
	played     int64
	finished   atomic.Bool
	onEnded    func()
	onVoice    func(synth.VoiceID)
	masterEQ   *intfx.EQ5Band
	sampleTap  func([]float32)
}

func (w *scoreWrapper) loopLengthSamples() int64 {
	if len(w.events) == 0 {
		return 0
	}
	return int64(w.events[len(w.events)-1].Time * float64(w.sampleRate))
}

func (w *scoreWrapper) dispatchDue(samplePos int64) {
	for w.next < len(w.events) {
		ev := w.events[w.next]
		due := w.epoch + int64(ev.Time*float64(w.sampleRate))
		if due > samplePos {
			return
		}
		switch ev.Kind {
		case NoteEventOn:
			w.engine.NoteOn(nil, ev.Channel, ev.Note, ev.Velocity)
		case NoteEventOff:
			w.engine.NoteOff(ev.Channel, ev.Note, ev.Velocity)
		case NoteEventChoke:
			w.engine.Choke(ev.Channel, ev.Note)
		}
		w.next++
	}
}

func (w *scoreWrapper) Process(dst []float32) {
	frames := len(dst) / 2
	var left, right [synth.BufferSize]synth.Sample

	for frames > 0 {
		if w.finished.Load() {
			for i := range dst {
				dst[i] = 0
			}
			return
		}

		w.dispatchDue(w.played)

		chunk := frames
		if chunk > synth.BufferSize {
			chunk = synth.BufferSize
		}

		w.engine.Process(chunk, [synth.NumChannels][]synth.Sample{left[:chunk], right[:chunk]}, func(id synth.VoiceID) {
			if w.onVoice != nil {
				w.onVoice(id)
			}
		})

		for i := 0; i < chunk; i++ {
			l, r := left[i], right[i]
			if w.masterEQ != nil {
				l, r = w.masterEQ.Process(l, r)
			}
			dst[i*2] = l
			dst[i*2+1] = r
		}
		if w.sampleTap != nil {
			w.sampleTap(dst[:chunk*2])
		}

		w.played += int64(chunk)
		dst = dst[chunk*2:]
		frames -= chunk

		if w.next >= len(w.events) && w.engine.ActiveVoiceCount() == 0 {
			if w.loop && len(w.events) > 0 {
				w.epoch += w.loopLengthSamples()
				if w.epoch <= w.played {
					w.epoch = w.played
				}
				w.next = 0
				continue
			}
			w.finished.Store(true)
			if w.onEnded != nil {
				w.onEnded()
			}
		}
	}
}

func (w *scoreWrapper) Finished() bool {
	return w.finished.Load()
}

// NewPlayer constructs a Player with a fresh, empty engine at the
// given sample rate. Build the module graph via Engine() before
// calling PlayScore.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	engine := synth.NewEngine(synth.Sample(sampleRate))
	if chain := synth.BuildEffectChain(cfg.effects, sampleRate); chain != nil {
		engine.SetEffectChain(chain)
	}

	return &Player{
		sampleRate:   sampleRate,
		engine:       engine,
		volume:       1,
		loopPlayback: cfg.loopPlayback,
		sampleTap:    cfg.sampleTap,
		masterEQ:     intfx.NewEQ5Band(sampleRate),
	}, nil
}

// Engine exposes the underlying module graph for the host to build
// and mutate (AddModule, SetLink, SetOutputLevel, preset Load/Save).
func (p *Player) Engine() *synth.Engine {
	return p.engine
}

// PlayScore starts driving the engine from a NoteEvent timeline. It
// replaces any playback already in progress.
func (p *Player) PlayScore(events []NoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})

	wrapper := &scoreWrapper{
		engine:     p.engine,
		sampleRate: p.sampleRate,
		events:     events,
		loop:       p.loopPlayback,
		masterEQ:   p.masterEQ,
		sampleTap:  p.sampleTap,
	}
	wrapper.onEnded = func() {
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
		p.signalDone()
	}
	wrapper.onVoice = func(id synth.VoiceID) {
		p.sendEvent(PlaybackEvent{Kind: EventVoiceTerminated, VoiceID: id})
	}

	backend, err := intaudio.NewPlayer(p.sampleRate, wrapper)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full or closed; drop event.
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends. When loop playback is
// enabled, Wait blocks indefinitely. Wait returns immediately if no
// playback is active or it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback and voice-termination
// events. The channel is buffered (cap 8); receive in a goroutine to
// avoid blocking the engine. Only the most recent Watch() channel
// receives events; call Watch before PlayScore.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets the runtime output level scalar. 1.0 is
// default; applied directly on the engine's OUTPUT stage.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	level := synth.Sample(volume)
	p.engine.SetOutputLevel(synth.StereoSample{level, level})
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz,
// 4=>8kHz. Takes effect immediately on the audio thread (lock-free).
func (p *Player) SetEQBand(band int, gain float32) {
	p.masterEQ.SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (p *Player) EQBand(band int) float32 {
	return p.masterEQ.Gain(band)
}

// PlaybackPosition returns the current output position of the audio
// driver, i.e. what the listener actually hears right now. Returns 0
// if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	pos := a.Position()
	return int64(pos.Seconds() * float64(p.sampleRate))
}
