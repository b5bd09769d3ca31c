package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
)

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}

// ----- Changes ----- //

// Changes ...
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- State ----- //

type state struct {
	sync.Mutex
	graph  *Context
	pool   *nodePool
	waves  *waveCache
	params *params
	voice  *voice
	mono   []float64 // scratch, grown on demand
	closed bool
}

func newState() *state {
	graph := NewContext(sampleRate)
	pool := newNodePool(graph)
	waves := newWaveCache()
	params := newParams()
	return &state{
		graph:  graph,
		pool:   pool,
		waves:  waves,
		params: params,
		voice:  newVoice(graph, pool, waves, params),
		mono:   make([]float64, samplesPerCycle),
	}
}

// ----- Engine ----- //

// Engine ...
type Engine struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	Changes    *Changes
}

var _ io.Reader = (*Engine)(nil)

type engineJSON struct {
	State json.RawMessage `json:"state"`
}

// NewEngine builds a fully wired engine with no audio device attached.
// Start opens the device; Read and RenderWAV work without one.
func NewEngine() *Engine {
	commandCh := make(chan []string, 256)
	e := &Engine{
		ctx:       context.Background(),
		CommandCh: commandCh,
		state:     newState(),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
	}
	go processCommands(e, commandCh)
	return e
}

func processCommands(e *Engine, commandCh <-chan []string) {
	for command := range commandCh {
		if err := e.update(command); err != nil {
			log.Printf("command %v failed: %v", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

// ApplyJSON ...
func (e *Engine) ApplyJSON(data []byte) {
	e.state.Lock()
	defer e.state.Unlock()
	var j engineJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to Engine", err)
		return
	}
	e.state.params.applyJSON(j.State)
	e.state.voice.applyAll()
}

// ToJSON ...
func (e *Engine) ToJSON() []byte {
	e.state.Lock()
	defer e.state.Unlock()
	bytes, err := json.Marshal(toRawMessage(&engineJSON{
		State: e.state.params.toJSON(),
	}))
	if err != nil {
		panic(err)
	}
	return bytes
}

func (e *Engine) Read(buf []byte) (int, error) {
	select {
	case <-e.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		e.state.Lock()
		defer e.state.Unlock()
		bufSamples := len(buf) / bytesPerSample
		for len(e.state.mono) < bufSamples {
			e.state.mono = append(e.state.mono, make([]float64, samplesPerCycle)...)
		}
		mono := e.state.mono[:bufSamples]
		e.state.graph.ReadSamples(mono)
		writeBuffer(mono, buf, 0)
		writeBuffer(mono, buf, 1)
		return len(buf), nil
	}
}

// pull renders mono samples directly, for offline use.
func (e *Engine) pull(out []float64) {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.graph.ReadSamples(out)
}

func writeBuffer(out []float64, buf []byte, ch int) {
	for i, value := range out {
		value = clamp(value, -1, 1)
		switch bitDepthInBytes {
		case 1:
			const max = 127
			b := int(value * max)
			buf[bytesPerSample*i+ch] = byte(b + 128)
		case 2:
			const max = 32767
			b := int16(value * max)
			buf[bytesPerSample*i+2*ch] = byte(b)
			buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
		}
	}
}

func (e *Engine) update(command []string) error {
	e.state.Lock()
	defer e.state.Unlock()
	if e.state.closed {
		return nil
	}

	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) == 0 {
			return fmt.Errorf("missing set target")
		}
		switch command[0] {
		case "osc":
			command = command[1:]
			if len(command) != 3 {
				return fmt.Errorf("invalid osc command %v", command)
			}
			index, err := strconv.ParseInt(command[0], 10, 64)
			if err != nil {
				return err
			}
			if index < 0 || int(index) >= len(e.state.params.oscParams) {
				return fmt.Errorf("osc index out of range: %d", index)
			}
			if err := e.state.params.oscParams[index].set(command[1], command[2]); err != nil {
				return err
			}
			e.state.voice.applyOsc(int(index))
		case "controls":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := e.state.params.controlParams.set(command[0], command[1]); err != nil {
				return err
			}
			switch command[0] {
			case "master_tune", "pitch_wheel":
				e.state.voice.applyPitchControls()
			case "mod_wheel", "osc_mod":
				e.state.voice.applyModulation()
			}
		case "mixer":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := e.state.params.mixerParams.set(command[0], command[1]); err != nil {
				return err
			}
			e.state.voice.applyMixer()
		case "filter":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := e.state.params.filterParams.set(command[0], command[1]); err != nil {
				return err
			}
			e.state.voice.applyFilter()
			e.Changes.Add("filter-shape")
		default:
			return fmt.Errorf("unknown set target %v", command[0])
		}
		e.Changes.Add("data")
	case "note_on":
		if len(command) != 2 {
			return fmt.Errorf("note_on needs a note")
		}
		e.state.voice.noteOn(parseNoteArg(command[1]))
	case "note_off":
		if len(command) < 2 {
			e.state.voice.noteOffAll()
		} else {
			e.state.voice.noteOff(parseNoteArg(command[1]))
		}
	case "silence":
		e.state.voice.silence()
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// parseNoteArg accepts a MIDI note number or a note name. Anything
// unparseable becomes A4 so a bad event still sounds rather than erroring.
func parseNoteArg(s string) int {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		if n < 0 {
			return 0
		}
		if n > 127 {
			return 127
		}
		return int(n)
	}
	n, err := parseNote(s)
	if err != nil {
		log.Printf("%v, using A4", err)
		return 69
	}
	return n
}

// GetFFT returns the output spectrum as magnitudes up to Nyquist.
func (e *Engine) GetFFT() []float64 {
	e.state.Lock()
	defer e.state.Unlock()
	return e.state.voice.analyser.Spectrum()
}

// Silence stops every sounding source without tearing the engine down.
func (e *Engine) Silence() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.voice.silence()
}

// ActiveNodes reports how many graph nodes are currently lent out.
func (e *Engine) ActiveNodes() int {
	e.state.Lock()
	defer e.state.Unlock()
	return e.state.pool.activeCount()
}

// AddMidiEvent ...
func (e *Engine) AddMidiEvent(data []byte) {
	if len(data) < 2 {
		return
	}
	e.state.Lock()
	defer e.state.Unlock()
	if e.state.closed {
		return
	}
	status := data[0] >> 4
	switch {
	case status == 8 || (status == 9 && len(data) > 2 && data[2] == 0):
		log.Printf("got note-off: %v\n", data)
		e.state.voice.noteOff(int(data[1]))
	case status == 9:
		log.Printf("got note-on: %v\n", data)
		e.state.voice.noteOn(int(data[1]))
	case status == 0xe && len(data) > 2:
		// 14-bit pitch bend mapped onto the 0..100 wheel
		raw := int(data[1]) | int(data[2])<<7
		e.state.params.controlParams.pitchWheel = float64(raw) / 16383 * 100
		e.state.voice.applyPitchControls()
	case status == 0xb && len(data) > 2 && data[1] == 1:
		e.state.params.controlParams.modWheel = float64(data[2]) / 127 * 100
		e.state.voice.applyModulation()
	}
}

// Close tears the whole engine down: all notes silenced, every pooled
// handle released, the graph closed. Safe to call more than once.
func (e *Engine) Close() error {
	e.state.Lock()
	if e.state.closed {
		e.state.Unlock()
		return nil
	}
	log.Println("Closing Engine...")
	e.state.closed = true
	close(e.CommandCh)
	e.state.voice.close()
	e.state.pool.drain()
	e.state.graph.Close()
	e.state.Unlock()

	if e.otoContext != nil {
		return e.otoContext.Close()
	}
	return nil
}

// Start opens the audio device and streams until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return err
	}
	e.otoContext = otoContext
	p := otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	e.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, e, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}
