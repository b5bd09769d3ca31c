package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/stevebarakat/Minimoog-sub001/src/audio"
	"golang.org/x/sync/errgroup"
)

const auditionNote = "A2"
const auditionSeconds = 1.5

var waveforms = []string{
	"triangle",
	"triangle-saw",
	"sawtooth",
	"reverse-saw",
	"pulse-wide",
	"pulse-narrow",
	"pulse-narrowest",
}

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		panic("dir is not passed")
	}
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range waveforms {
		name := name
		g.Go(func() error {
			return bounce(dir, name)
		})
	}
	err := g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated wave auditions.")
}

func bounce(dir string, name string) error {
	engine := audio.NewEngine()
	defer engine.Close()
	engine.CommandCh <- []string{"set", "osc", "0", "waveform", name}
	engine.CommandCh <- []string{"note_on", auditionNote}
	// let the command goroutine drain before the first pull
	time.Sleep(10 * time.Millisecond)
	if err := engine.RenderWAV(dir+"/"+name+".wav", auditionSeconds); err != nil {
		return err
	}
	log.Println("generated " + name)
	return nil
}
