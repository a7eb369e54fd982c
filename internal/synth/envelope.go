package synth

// envelopeChannel holds the timing parameters of one ADSR, in seconds.
type envelopeChannel struct {
	attackTime  Sample
	decayTime   Sample
	sustainLvl  Sample
	releaseTime Sample
}

func defaultEnvelopeChannel() envelopeChannel {
	return envelopeChannel{
		attackTime:  fromMs(10),
		decayTime:   fromMs(200),
		sustainLvl:  1.0,
		releaseTime: fromMs(300),
	}
}

// releaseState remembers where a voice was when release began, so the
// release ramp starts from the held level rather than jumping to it.
type releaseState struct {
	releaseT  Sample
	fromLevel Sample
}

// envelopeVoice is the per-voice running state of one ADSR instance.
type envelopeVoice struct {
	t          Sample
	attackFrom Sample
	release    *releaseState
	lastLevel  Sample
}

// resetVoice (re)triggers the envelope. On a same-note retrigger the
// attack ramps from the previous held level instead of from zero, which
// avoids an audible click.
func (v *envelopeVoice) resetVoice(sameNoteRetrigger bool) {
	if sameNoteRetrigger {
		v.attackFrom = v.lastLevel
	} else {
		v.attackFrom = 0
	}
	v.t = 0
	v.release = nil
}

// releaseVoice begins the release ramp from the envelope's current level.
func (v *envelopeVoice) releaseVoice() {
	v.release = &releaseState{releaseT: 0, fromLevel: v.lastLevel}
}

// isActive reports whether the voice should still be considered alive:
// true until release has fully elapsed (or release hasn't begun).
func (v *envelopeVoice) isActive(ch *envelopeChannel) bool {
	if v.release == nil {
		return true
	}
	return v.release.releaseT < ch.releaseTime
}

// sampleLevel evaluates the ADSR curve at the voice's current time t
// without advancing it.
func (v *envelopeVoice) sampleLevel(ch *envelopeChannel) Sample {
	if v.release != nil {
		if ch.releaseTime <= 0 || v.release.releaseT >= ch.releaseTime {
			return 0
		}
		return v.release.fromLevel * (1 - v.release.releaseT/ch.releaseTime)
	}

	t := v.t
	switch {
	case ch.attackTime > 0 && t < ch.attackTime:
		return v.attackFrom + (1-v.attackFrom)*(t/ch.attackTime)
	case t < ch.attackTime+ch.decayTime:
		if ch.decayTime <= 0 {
			return ch.sustainLvl
		}
		return 1 - (1-ch.sustainLvl)*((t-ch.attackTime)/ch.decayTime)
	default:
		return ch.sustainLvl
	}
}

// advance steps the voice's internal clock by dt seconds.
func (v *envelopeVoice) advance(ch *envelopeChannel, dt Sample) {
	if v.release != nil {
		v.release.releaseT += dt
	} else {
		v.t += dt
	}
}

// processSample evaluates then advances, updating lastLevel, matching
// the original's combined process_voice step.
func (v *envelopeVoice) processSample(ch *envelopeChannel, dt Sample) Sample {
	level := v.sampleLevel(ch)
	v.lastLevel = level
	v.advance(ch, dt)
	return level
}

func fromMs(ms Sample) Sample { return ms / 1000 }
