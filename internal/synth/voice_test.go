package synth

import "testing"

func TestVoicePoolAllocateUsesFreeSlotsFirst(t *testing.T) {
	p := newVoicePool()
	idx, sameNote, terminated := p.allocate(0, 60, nil)
	if sameNote {
		t.Fatal("first allocation should not be a same-note retrigger")
	}
	if terminated != nil {
		t.Fatalf("first allocation should not terminate anything, got %+v", terminated)
	}
	if idx < 0 || idx >= MaxVoices {
		t.Fatalf("idx out of range: %d", idx)
	}
}

func TestVoicePoolAllocateRetriggersSameNote(t *testing.T) {
	p := newVoicePool()
	first, _, _ := p.allocate(2, 60, nil)
	second, sameNote, terminated := p.allocate(2, 60, nil)
	if !sameNote {
		t.Fatal("expected sameNote retrigger for identical channel/note")
	}
	if terminated == nil || terminated.Note != 60 || terminated.Channel != 2 {
		t.Fatalf("expected the prior voice to be reported terminated, got %+v", terminated)
	}
	if first != second {
		t.Fatalf("expected retrigger to reuse the same slot, got %d then %d", first, second)
	}
}

func TestVoicePoolStealsOldestWhenFull(t *testing.T) {
	p := newVoicePool()
	for i := 0; i < MaxVoices; i++ {
		if _, _, terminated := p.allocate(0, uint8(i), nil); terminated != nil {
			t.Fatalf("unexpected steal while filling pool at voice %d", i)
		}
	}
	idx, sameNote, terminated := p.allocate(0, 200, nil)
	if sameNote {
		t.Fatal("stealing should not report a same-note retrigger")
	}
	if terminated == nil || terminated.Note != 0 {
		t.Fatalf("expected note 0 (the oldest) to be stolen, got %+v", terminated)
	}
	if p.slots[idx].note != 200 {
		t.Fatalf("stolen slot should now hold note 200, got %d", p.slots[idx].note)
	}
}

func TestVoicePoolReleaseAndChoke(t *testing.T) {
	p := newVoicePool()
	p.allocate(1, 64, nil)

	if idx := p.release(1, 64); idx < 0 {
		t.Fatal("expected release to find the active voice")
	}
	if idx := p.release(1, 65); idx != -1 {
		t.Fatalf("release of an inactive note should return -1, got %d", idx)
	}

	p.allocate(1, 70, nil)
	id := p.choke(1, 70)
	if id == nil || id.Note != 70 {
		t.Fatalf("expected choke to return the voice id for note 70, got %+v", id)
	}
	if id := p.choke(1, 70); id != nil {
		t.Fatalf("choking an already-inactive voice should return nil, got %+v", id)
	}
}

func TestVoicePoolActiveIndices(t *testing.T) {
	p := newVoicePool()
	if len(p.activeIndices()) != 0 {
		t.Fatal("expected no active voices on a fresh pool")
	}
	a, _, _ := p.allocate(0, 10, nil)
	b, _, _ := p.allocate(0, 11, nil)

	active := p.activeIndices()
	if len(active) != 2 {
		t.Fatalf("expected 2 active voices, got %d", len(active))
	}
	seen := map[int]bool{active[0]: true, active[1]: true}
	if !seen[a] || !seen[b] {
		t.Fatalf("active indices %v missing allocated slots %d/%d", active, a, b)
	}

	p.terminate(a)
	active = p.activeIndices()
	if len(active) != 1 || active[0] != b {
		t.Fatalf("expected only slot %d active after terminate, got %v", b, active)
	}
}
