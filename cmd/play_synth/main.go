package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	additizer "github.com/cbegin/additizer-go"
	"github.com/cbegin/additizer-go/internal/synth"
)

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "output sample rate")
		note        = flag.Int("note", 60, "MIDI note number to play")
		velocity    = flag.Float64("velocity", 1.0, "note-on velocity, 0-1")
		hold        = flag.Float64("hold", 1.0, "seconds to hold the note before releasing")
		tail        = flag.Float64("tail", 1.5, "seconds to let the release tail ring out")
		volume      = flag.Float64("volume", 1.0, "master volume scalar")
		renderPath  = flag.String("render", "", "render to this WAV file instead of opening an audio device")
		presetPath  = flag.String("preset", "", "load a .adp preset instead of the built-in default patch")
		effectsFlag = flag.String("effects", "", "comma-separated post-chain effects to insert, e.g. \"delay,reverb\"")
	)
	flag.Parse()

	pl, err := additizer.NewPlayer(*sampleRate, additizer.WithEffects(parseEffects(*effectsFlag)...))
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)

	if *presetPath != "" {
		f, err := os.Open(*presetPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := loadPreset(pl, f); err != nil {
			log.Fatal(err)
		}
	} else if err := additizer.BuildDefaultPatch(pl.Engine()); err != nil {
		log.Fatal(err)
	}

	score := []additizer.NoteEvent{
		{Time: 0, Kind: additizer.NoteEventOn, Channel: 0, Note: uint8(*note), Velocity: float32(*velocity)},
		{Time: *hold, Kind: additizer.NoteEventOff, Channel: 0, Note: uint8(*note), Velocity: 0},
	}

	if *renderPath != "" {
		f, err := os.Create(*renderPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := pl.Render(f, score, *hold+*tail); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("rendered %.2fs to %s\n", *hold+*tail, *renderPath)
		return
	}

	ch := pl.Watch()
	if err := pl.PlayScore(score); err != nil {
		log.Fatal(err)
	}
	go func() {
		for event := range ch {
			if event.Kind == additizer.EventPlaybackEnded {
				fmt.Println("playback completed")
			}
		}
	}()
	pl.Wait()
}

// parseEffects turns a comma-separated list of effect type names (see
// synth.BuildEffectChain's supported names) into specs using each
// effect's built-in defaults; unknown names are left for
// BuildEffectChain to skip.
func parseEffects(flagValue string) []synth.EffectSpec {
	if strings.TrimSpace(flagValue) == "" {
		return nil
	}
	var specs []synth.EffectSpec
	for _, name := range strings.Split(flagValue, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		specs = append(specs, synth.EffectSpec{Type: name})
	}
	return specs
}

func loadPreset(pl *additizer.Player, r *os.File) error {
	preset, err := synth.ReadPreset(r)
	if err != nil {
		return err
	}
	return pl.Engine().Load(preset)
}
