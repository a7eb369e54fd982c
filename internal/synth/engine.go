package synth

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/cbegin/additizer-go/internal/effects"
)

// outputLevelDefault is the engine's master linear gain at construction.
const outputLevelDefault Sample = 1.0

// outputLevelSmoothTime is how long a master-level change takes to
// ramp in, avoiding a click on a live parameter change.
const outputLevelSmoothTime Sample = 0.01

// Engine is the module-graph synthesizer: it owns every module
// instance, the link set between their typed ports, a cached
// topological execution order, and the fixed voice pool. It also
// implements Router, resolving each module's inputs from the
// already-processed outputs of its upstream dependencies during
// Process. Grounded on
// original_source/src/synth_engine.rs.
type Engine struct {
	modules       map[ModuleID]Module
	moduleConfigs map[ModuleID]*moduleConfig
	links         []ModuleLink
	order         []ModuleID
	pool          *voicePool
	sampleRate    Sample
	nextID        ModuleID
	routingCfg    *routingConfig

	outputLevelBits [NumChannels]atomic.Uint32
	outputSmoothers [NumChannels]smoother

	floatParams [NumFloatParams]Sample

	inputScratch  Buffer
	outputScratch Buffer
	levelModBuf   Buffer

	postChain *effects.Chain

	// Process scratch, reused across blocks rather than reallocated.
	aliveScratch        [MaxVoices]VoiceAlive
	alivePtrsScratch    [MaxVoices]*VoiceAlive
	activeVoicesScratch [MaxVoices]int
	activeBeforeScratch [MaxVoices]int
}

// NewEngine constructs an empty engine (no modules, no links) at the
// given audio sample rate.
func NewEngine(sampleRate Sample) *Engine {
	e := &Engine{
		modules:       make(map[ModuleID]Module),
		moduleConfigs: make(map[ModuleID]*moduleConfig),
		pool:          newVoicePool(),
		sampleRate:    sampleRate,
		nextID:        MinModuleID,
		routingCfg:    &routingConfig{OutputLevel: SplatStereo(outputLevelDefault)},
	}
	for c := range e.outputLevelBits {
		e.outputLevelBits[c].Store(math.Float32bits(outputLevelDefault))
	}
	return e
}

func (e *Engine) allocID() ModuleID {
	id := e.nextID
	e.nextID++
	e.routingCfg.setLastModuleID(e.nextID)
	return id
}

// AddModule instantiates a new module of the given type, assigns it
// the next id, retriggers it for every currently active voice (so a
// module added mid-performance doesn't miss in-flight notes), and
// returns its id.
func (e *Engine) AddModule(t ModuleType) ModuleID {
	id := e.allocID()
	cfg := newModuleConfig(t)
	module := e.instantiate(id, t, cfg)

	for _, voiceIdx := range e.pool.activeIndices() {
		module.NoteOn(&NoteOnParams{VoiceIdx: voiceIdx})
	}

	e.modules[id] = module
	e.moduleConfigs[id] = cfg
	return id
}

func (e *Engine) instantiate(id ModuleID, t ModuleType, cfg *moduleConfig) Module {
	switch t {
	case ModuleTypeOscillator:
		return NewOscillator(id, cfg)
	case ModuleTypeEnvelope:
		return NewEnvelope(id, cfg)
	case ModuleTypeAmplifier:
		return NewAmplifier(id, cfg)
	case ModuleTypeSpectralFilter:
		return NewSpectralFilter(id, cfg)
	case ModuleTypeHarmonicEditor:
		return NewHarmonicEditor(id, cfg)
	case ModuleTypeMixer:
		return NewMixer(id, cfg)
	case ModuleTypeSpectralMixer:
		return NewSpectralMixer(id, cfg)
	case ModuleTypeSpectralBlend:
		return NewSpectralBlend(id, cfg)
	case ModuleTypeWaveShaper:
		return NewWaveShaper(id, cfg)
	case ModuleTypeLFO:
		return NewLFO(id, cfg)
	case ModuleTypeExpressions:
		return NewExpressions(id, cfg)
	case ModuleTypeExternalParam:
		return NewExternalParam(id, cfg, &e.floatParams)
	case ModuleTypeModulationFilter:
		return NewModulationFilter(id, cfg)
	default:
		panic(fmt.Sprintf("synth: unknown module type %v", t))
	}
}

// RemoveModule deletes a module and every link touching it, then
// recomputes the execution order.
func (e *Engine) RemoveModule(id ModuleID) {
	if _, ok := e.modules[id]; !ok {
		return
	}
	delete(e.modules, id)
	delete(e.moduleConfigs, id)

	kept := e.links[:0:0]
	for _, link := range e.links {
		if link.Src.ModuleID != id && link.Dst.ModuleID != id {
			kept = append(kept, link)
		}
	}
	// setupRouting only returns an error on a genuine cycle; removing
	// links can't introduce one, so this can't fail here.
	_ = e.setupRouting(kept)
	e.routingCfg.setLinks(e.links)
}

func (e *Engine) inputExists(input ModuleInput) bool {
	if input.ModuleID == OutputModuleID {
		return input.Type == InputAudio
	}
	module, ok := e.modules[input.ModuleID]
	if !ok {
		return false
	}
	for _, in := range module.Inputs() {
		if in == input.Type {
			return true
		}
	}
	return false
}

func (e *Engine) outputExists(output ModuleOutput) bool {
	module, ok := e.modules[output.ModuleID]
	if !ok {
		return false
	}
	return module.Output() == output.Type.DataType()
}

func (e *Engine) canLink(src ModuleOutput, dst ModuleInput) error {
	if src.DataType() != dst.DataType() {
		return ErrTypeMismatch
	}
	if !e.inputExists(dst) || !e.outputExists(src) {
		return ErrUnknownModule
	}
	return nil
}

// SetLink adds or updates a routing link. An existing link with the
// same (src, dst) pair has its modulation amount replaced in place;
// otherwise the link is validated (matching data types, both ends
// existing) and appended, then the execution order is recomputed,
// rejecting the change with ErrCycle if it would create one.
func (e *Engine) SetLink(link ModuleLink) error {
	for i := range e.links {
		if e.links[i].Src == link.Src && e.links[i].Dst == link.Dst {
			e.links[i].Modulation = link.Modulation
			e.routingCfg.setLinks(e.links)
			return nil
		}
	}

	if err := e.canLink(link.Src, link.Dst); err != nil {
		return err
	}

	next := append(append([]ModuleLink(nil), e.links...), link)
	if err := e.setupRouting(next); err != nil {
		return err
	}
	e.routingCfg.setLinks(e.links)
	return nil
}

// RemoveLink removes a single routing link, if present.
func (e *Engine) RemoveLink(src ModuleOutput, dst ModuleInput) {
	kept := make([]ModuleLink, 0, len(e.links))
	for _, link := range e.links {
		if !(link.Src == src && link.Dst == dst) {
			kept = append(kept, link)
		}
	}
	_ = e.setupRouting(kept)
	e.routingCfg.setLinks(e.links)
}

func (e *Engine) setupRouting(links []ModuleLink) error {
	order, err := calcExecutionOrder(links)
	if err != nil {
		return err
	}
	e.links = links
	e.order = order
	return nil
}

// SetOutputLevel sets the engine's master linear output gain.
func (e *Engine) SetOutputLevel(level StereoSample) {
	for c := 0; c < NumChannels; c++ {
		e.outputLevelBits[c].Store(math.Float32bits(level[c]))
	}
	e.routingCfg.setOutputLevel(level)
}

func (e *Engine) outputLevel() StereoSample {
	var out StereoSample
	for c := 0; c < NumChannels; c++ {
		out[c] = math.Float32frombits(e.outputLevelBits[c].Load())
	}
	return out
}

// SetEffectChain installs (or clears, with nil) the post-chain insert
// effect chain applied to the OUTPUT sink's stereo signal after the
// master output level, so the chain runs ahead of the master EQ that
// player.go's scoreWrapper applies after Process.
func (e *Engine) SetEffectChain(chain *effects.Chain) {
	e.postChain = chain
}

// VoiceIndex reports the voice pool slot currently playing (channel,
// note), for callers (the Player, the offline harness) that need to
// target an ExpressionUpdate at a specific in-flight note without
// tracking voice indices themselves.
func (e *Engine) VoiceIndex(channel, note uint8) (int, bool) {
	for _, idx := range e.pool.activeIndices() {
		slot := e.pool.slots[idx]
		if slot.channel == channel && slot.note == note {
			return idx, true
		}
	}
	return 0, false
}

// SetFloatParam sets one of the engine's host-automatable float
// parameters, read by every ExternalParam module selecting that index.
func (e *Engine) SetFloatParam(idx int, value Sample) {
	if idx < 0 || idx >= NumFloatParams {
		return
	}
	e.floatParams[idx] = value
}

// ApplyExpression routes a per-voice controller update to every
// Expressions module configured to surface it.
func (e *Engine) ApplyExpression(update *ExpressionUpdate) {
	for _, module := range e.modules {
		if exprModule, ok := module.(*Expressions); ok {
			exprModule.ApplyExpression(update)
		}
	}
}

// NoteOn allocates (or steals) a voice for (channel, note), delivers
// NoteOn to every module (in no particular order), and reports the VoiceID
// of whatever voice was stolen to make room, if any.
func (e *Engine) NoteOn(externalID *int32, channel, note uint8, velocity Sample) *VoiceID {
	idx, sameNote, terminated := e.pool.allocate(channel, note, externalID)

	params := &NoteOnParams{
		Note:              Sample(note),
		Velocity:          velocity,
		VoiceIdx:          idx,
		SameNoteRetrigger: sameNote,
		Reset:             !sameNote,
	}

	// Every module gets the event, not just those currently reachable
	// in the execution order: note dispatch has no ordering dependency,
	// and a module added but not yet linked still needs to track voice
	// state so it behaves correctly once it is linked.
	for _, module := range e.modules {
		module.NoteOn(params)
	}

	return terminated
}

// NoteOff releases the active voice playing (channel, note), if any.
func (e *Engine) NoteOff(channel, note uint8, velocity Sample) {
	idx := e.pool.release(channel, note)
	if idx < 0 {
		return
	}
	params := &NoteOffParams{VoiceIdx: idx, Velocity: velocity}
	for _, module := range e.modules {
		module.NoteOff(params)
	}
}

// Choke immediately silences the voice playing note, bypassing
// release, and reports its VoiceID so the host can be notified.
func (e *Engine) Choke(channel, note uint8) *VoiceID {
	return e.pool.choke(channel, note)
}

// Process runs one block: polls every envelope-bearing module for
// voice liveness, kills any that have fully released or decayed,
// walks the execution order once per active voice, then sums each
// voice's contribution to the OUTPUT sink into outputs, applying the
// master output level. outputs must have NumChannels entries of at
// least `samples` length. onTerminate is called for every voice the
// engine reclaims this block.
func (e *Engine) Process(samples int, outputs [NumChannels][]Sample, onTerminate func(VoiceID)) {
	activeBefore := e.pool.appendActiveIndices(e.activeBeforeScratch[:0])

	alive := e.aliveScratch[:len(activeBefore)]
	for i, idx := range activeBefore {
		alive[i] = VoiceAlive{idx: idx}
	}
	alivePtrs := e.alivePtrsScratch[:len(alive)]
	for i := range alive {
		alivePtrs[i] = &alive[i]
	}

	for _, module := range e.modules {
		module.PollAliveVoices(alivePtrs)
	}

	activeVoices := e.activeVoicesScratch[:0]
	for i, idx := range activeBefore {
		if alive[i].alive || !alive[i].touched {
			activeVoices = append(activeVoices, idx)
		} else {
			onTerminate(e.pool.terminate(idx))
		}
	}
	sort.Ints(activeVoices)

	params := &ProcessParams{
		Samples:        samples,
		SampleRate:     e.sampleRate,
		TStep:          1.0 / e.sampleRate,
		BufferTStep:    Sample(samples) / e.sampleRate,
		ActiveVoices:   activeVoices,
		NeedsAudioRate: true,
	}

	for _, id := range e.order {
		e.modules[id].Process(params, e)
	}

	e.writeOutput(params, outputs)

	if e.postChain != nil {
		for i := 0; i < samples; i++ {
			outputs[0][i], outputs[1][i] = e.postChain.Process(outputs[0][i], outputs[1][i])
		}
	}
}

func (e *Engine) writeOutput(params *ProcessParams, outputs [NumChannels][]Sample) {
	level := e.outputLevel()

	for c := 0; c < NumChannels; c++ {
		out := outputs[c]
		for i := 0; i < params.Samples; i++ {
			out[i] = 0
		}

		e.outputSmoothers[c].update(e.sampleRate, outputLevelSmoothTime)
		e.outputSmoothers[c].segment(0, level[c], &e.levelModBuf, params.Samples)

		for _, voiceIdx := range params.ActiveVoices {
			input := e.GetInput(NewInput(InputAudio, OutputModuleID), voiceIdx, c, &e.outputScratch)
			if input == nil {
				continue
			}
			for i := 0; i < params.Samples; i++ {
				out[i] += input[i] * e.levelModBuf[i]
			}
		}
	}
}

// linksTo returns every link whose destination matches dst.
func (e *Engine) linksTo(dst ModuleInput) []ModuleLink {
	var out []ModuleLink
	for _, link := range e.links {
		if link.Dst == dst {
			out = append(out, link)
		}
	}
	return out
}

func (e *Engine) bufferOutputFor(src ModuleOutput, voiceIdx, channel int) *Buffer {
	return e.modules[src.ModuleID].BufferOutput(voiceIdx, channel)
}

// GetInput implements Router: it aggregates every link feeding this
// Buffer input, scaling each source by its per-channel modulation
// amount, summing into scratch.
func (e *Engine) GetInput(input ModuleInput, voiceIdx, channel int, scratch *Buffer) *Buffer {
	links := e.linksTo(input)
	if len(links) == 0 {
		return nil
	}

	for i, link := range links {
		src := e.bufferOutputFor(link.Src, voiceIdx, channel)
		mod := link.Modulation[channel]

		if i == 0 {
			for s := 0; s < BufferSize; s++ {
				scratch[s] = src[s] * mod
			}
		} else {
			for s := 0; s < BufferSize; s++ {
				scratch[s] += src[s] * mod
			}
		}
	}
	return scratch
}

// GetSpectralInput implements Router. Spectral ports take a single
// direct link (spectral blending/mixing is done by dedicated modules,
// not by Router-level aggregation).
func (e *Engine) GetSpectralInput(input ModuleInput, current bool, voiceIdx, channel int) *SpectralBuffer {
	links := e.linksTo(input)
	if len(links) == 0 {
		return nil
	}
	link := links[0]
	return e.modules[link.Src.ModuleID].SpectralOutput(voiceIdx, channel, current)
}

// GetScalarInput implements Router: it sums every link feeding this
// Scalar input, each scaled by its per-channel modulation amount,
// matching the buffer aggregation in GetInput.
func (e *Engine) GetScalarInput(input ModuleInput, current bool, voiceIdx, channel int) Sample {
	links := e.linksTo(input)
	if len(links) == 0 {
		return 0
	}
	var sum Sample
	for _, link := range links {
		value := e.modules[link.Src.ModuleID].ScalarOutput(voiceIdx, channel, current)
		sum += value * link.Modulation[channel]
	}
	return sum
}

// ActiveVoiceCount returns the number of voices currently held active
// by the voice pool, the signal an outer player uses to decide when a
// non-looping performance has fully ended (every note released and
// every release tail drained).
func (e *Engine) ActiveVoiceCount() int {
	return len(e.pool.activeIndices())
}

// Module returns a module instance by id, or nil if none exists.
func (e *Engine) Module(id ModuleID) Module { return e.modules[id] }

// Links returns a snapshot of the current link set.
func (e *Engine) Links() []ModuleLink {
	return append([]ModuleLink(nil), e.links...)
}
