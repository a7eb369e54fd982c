package synth

import "testing"

func TestEnvelopeAttackRampsFromZero(t *testing.T) {
	ch := envelopeChannel{attackTime: 1.0, decayTime: 1.0, sustainLvl: 0.5, releaseTime: 1.0}
	v := &envelopeVoice{}
	v.resetVoice(false)

	if got := v.sampleLevel(&ch); got != 0 {
		t.Fatalf("level at t=0 = %v, want 0", got)
	}
	v.advance(&ch, 0.5)
	if got := v.sampleLevel(&ch); got < 0.4 || got > 0.6 {
		t.Fatalf("level at mid-attack = %v, want ~0.5", got)
	}
}

func TestEnvelopeRetriggerRampsFromHeldLevel(t *testing.T) {
	ch := envelopeChannel{attackTime: 1.0, decayTime: 0, sustainLvl: 1.0, releaseTime: 1.0}
	v := &envelopeVoice{}
	v.resetVoice(false)
	v.lastLevel = 0.7

	v.resetVoice(true)
	if v.attackFrom != 0.7 {
		t.Fatalf("retrigger attackFrom = %v, want 0.7", v.attackFrom)
	}
	if got := v.sampleLevel(&ch); got != 0.7 {
		t.Fatalf("level immediately after retrigger = %v, want 0.7", got)
	}
}

func TestEnvelopeDecaysToSustain(t *testing.T) {
	ch := envelopeChannel{attackTime: 0, decayTime: 1.0, sustainLvl: 0.3, releaseTime: 1.0}
	v := &envelopeVoice{}
	v.resetVoice(false)

	if got := v.sampleLevel(&ch); got != 1.0 {
		t.Fatalf("level at decay start = %v, want 1.0", got)
	}
	v.advance(&ch, 1.0)
	if got := v.sampleLevel(&ch); got != 0.3 {
		t.Fatalf("level after full decay = %v, want sustain 0.3", got)
	}
}

func TestEnvelopeReleaseReachesZeroAndGoesInactive(t *testing.T) {
	ch := envelopeChannel{attackTime: 0, decayTime: 0, sustainLvl: 1.0, releaseTime: 0.5}
	v := &envelopeVoice{}
	v.resetVoice(false)
	v.lastLevel = v.sampleLevel(&ch)

	v.releaseVoice()
	if !v.isActive(&ch) {
		t.Fatal("voice should be active immediately at release onset")
	}
	v.advance(&ch, 0.5)
	if v.isActive(&ch) {
		t.Fatal("voice should go inactive once release has fully elapsed")
	}
	if got := v.sampleLevel(&ch); got != 0 {
		t.Fatalf("level after full release = %v, want 0", got)
	}
}

func TestEnvelopeModuleTracksAliveVoices(t *testing.T) {
	cfg := newModuleConfig(ModuleTypeEnvelope)
	env := NewEnvelope(1, cfg)
	env.SetAttack(StereoSample{0, 0}).SetDecay(StereoSample{0, 0}).
		SetSustain(StereoSample{1, 1}).SetRelease(StereoSample{0.1, 0.1})

	env.NoteOn(&NoteOnParams{VoiceIdx: 0})
	params := &ProcessParams{Samples: BufferSize, TStep: 1.0 / 48000, ActiveVoices: []int{0}}
	env.Process(params, zeroRouter{})

	if got := env.ScalarOutput(0, 0, true); got != 1 {
		t.Fatalf("sustain level = %v, want 1", got)
	}

	env.NoteOff(&NoteOffParams{VoiceIdx: 0})
	alive := []*VoiceAlive{{idx: 0}}
	env.PollAliveVoices(alive)
	if !alive[0].alive {
		t.Fatal("voice should still be alive right after release begins")
	}

	for i := 0; i < 200; i++ {
		env.Process(params, zeroRouter{})
	}
	alive = []*VoiceAlive{{idx: 0}}
	env.PollAliveVoices(alive)
	if alive[0].alive {
		t.Fatal("voice should be reported dead once the release tail has fully elapsed")
	}
}
