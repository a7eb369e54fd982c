package synth

// VoiceID identifies a voice externally: the host's own voice id (if
// it supplied one), plus the (channel, note) pair that created it.
type VoiceID struct {
	ExternalID *int32
	Channel    uint8
	Note       uint8
}

// voiceSlot is one entry in the fixed MaxVoices pool.
type voiceSlot struct {
	internalID uint64
	externalID *int32
	channel    uint8
	note       uint8
	active     bool
}

func (v *voiceSlot) id() VoiceID {
	return VoiceID{ExternalID: v.externalID, Channel: v.channel, Note: v.note}
}

// voicePool is the fixed-size, no-allocation voice allocator. Slot
// reuse is governed by a monotonically increasing internal id so
// "oldest voice" is well defined, mirroring
// original_source/src/synth_engine.rs's note_on/note_off/choke.
type voicePool struct {
	slots      [MaxVoices]voiceSlot
	nextInternalID uint64
}

func newVoicePool() *voicePool {
	return &voicePool{nextInternalID: 1}
}

// allocate implements the note-on stealing policy: steal a voice
// already playing the same note; else take a free slot; else steal the
// oldest voice (smallest internal id). Returns the chosen slot index,
// whether this is a same-note retrigger, and the VoiceID of whatever
// was terminated to make room (nil if a free slot was used).
func (p *voicePool) allocate(channel, note uint8, externalID *int32) (idx int, sameNote bool, terminated *VoiceID) {
	if i, ok := p.findActive(channel, note); ok {
		id := p.slots[i].id()
		idx, sameNote, terminated = i, true, &id
	} else if i, ok := p.findFree(); ok {
		idx = i
	} else {
		idx = p.oldestSlot()
		id := p.slots[idx].id()
		terminated = &id
	}

	p.slots[idx] = voiceSlot{
		internalID: p.nextInternalID,
		externalID: externalID,
		channel:    channel,
		note:       note,
		active:     true,
	}
	p.nextInternalID++

	return idx, sameNote, terminated
}

func (p *voicePool) findActive(channel, note uint8) (int, bool) {
	for i := range p.slots {
		if p.slots[i].active && p.slots[i].note == note && p.slots[i].channel == channel {
			return i, true
		}
	}
	return 0, false
}

func (p *voicePool) findFree() (int, bool) {
	for i := range p.slots {
		if !p.slots[i].active {
			return i, true
		}
	}
	return 0, false
}

// oldestSlot returns the index of the active slot with the smallest
// internal id (the "oldest" voice, stolen when the pool is full).
func (p *voicePool) oldestSlot() int {
	best := 0
	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].internalID < p.slots[best].internalID {
			best = i
		}
	}
	return best
}

// release finds the active voice matching note and returns its slot
// index, or -1 if none is active.
func (p *voicePool) release(channel, note uint8) int {
	for i := range p.slots {
		if p.slots[i].active && p.slots[i].note == note && p.slots[i].channel == channel {
			return i
		}
	}
	return -1
}

// choke immediately deactivates the voice playing note, returning its
// id so the host can be notified, or nil if none is active.
func (p *voicePool) choke(channel, note uint8) *VoiceID {
	idx := p.release(channel, note)
	if idx < 0 {
		return nil
	}
	id := p.slots[idx].id()
	p.slots[idx].active = false
	return &id
}

// terminate marks a slot inactive (called once the engine's keep-alive
// poll determines no module still produces signal for it).
func (p *voicePool) terminate(idx int) VoiceID {
	id := p.slots[idx].id()
	p.slots[idx].active = false
	return id
}

// activeIndices returns every currently active slot index, ascending.
func (p *voicePool) activeIndices() []int {
	out := make([]int, 0, MaxVoices)
	return p.appendActiveIndices(out)
}

// appendActiveIndices appends every currently active slot index,
// ascending, to dst and returns the result. Used on the Process hot
// path with an engine-owned backing array so no allocation occurs.
func (p *voicePool) appendActiveIndices(dst []int) []int {
	for i := range p.slots {
		if p.slots[i].active {
			dst = append(dst, i)
		}
	}
	return dst
}
