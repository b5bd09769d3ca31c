package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Range (footage) ----- //

type rangeKind int

const (
	rangeLo rangeKind = iota
	range32
	range16
	range8
	range4
	range2
)

// rangeMultiplier maps organ footage to a frequency multiplier; 8' is unity
// and each shorter pipe doubles. lo sits an octave under 32'.
func (r rangeKind) multiplier() float64 {
	switch r {
	case rangeLo:
		return 0.125
	case range32:
		return 0.25
	case range16:
		return 0.5
	case range8:
		return 1
	case range4:
		return 2
	case range2:
		return 4
	}
	return 1
}

func (r rangeKind) String() string {
	switch r {
	case rangeLo:
		return "lo"
	case range32:
		return "32"
	case range16:
		return "16"
	case range8:
		return "8"
	case range4:
		return "4"
	case range2:
		return "2"
	}
	return "8"
}

func rangeKindFromString(s string) rangeKind {
	switch s {
	case "lo":
		return rangeLo
	case "32", "32'":
		return range32
	case "16", "16'":
		return range16
	case "8", "8'":
		return range8
	case "4", "4'":
		return range4
	case "2", "2'":
		return range2
	}
	log.Printf("unknown range %q, using 8'", s)
	return range8
}

// ----- OSC Params ----- //

type oscParams struct {
	enabled     bool
	kind        waveformKind
	rang        rangeKind
	freq        int     // -12 ~ 12 semitones
	level       float64 // 0 ~ 1
	detuneCents float64 // fixed per-oscillator thickening offset
}

type oscJSON struct {
	Enabled  bool    `json:"enabled"`
	Waveform string  `json:"waveform"`
	Range    string  `json:"range"`
	Freq     int     `json:"frequency"`
	Level    float64 `json:"level"`
}

func (o *oscParams) applyJSON(data json.RawMessage) {
	var j oscJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to oscParams")
		return
	}
	o.enabled = j.Enabled
	o.kind = waveformKindOrFallback(j.Waveform)
	o.rang = rangeKindFromString(j.Range)
	o.freq = j.Freq
	o.level = j.Level
}

func (o *oscParams) toJSON() json.RawMessage {
	return toRawMessage(&oscJSON{
		Enabled:  o.enabled,
		Waveform: o.kind.String(),
		Range:    o.rang.String(),
		Freq:     o.freq,
		Level:    o.level,
	})
}

func (o *oscParams) set(key string, value string) error {
	switch key {
	case "enabled":
		o.enabled = value == "true"
	case "waveform":
		o.kind = waveformKindOrFallback(value)
	case "range":
		o.rang = rangeKindFromString(value)
	case "frequency":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		o.freq = int(value)
	case "level":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.level = value
	}
	return nil
}

func waveformKindOrFallback(s string) waveformKind {
	kind, ok := waveformKindFromString(s)
	if !ok {
		log.Printf("unknown waveform %q, using triangle", s)
	}
	return kind
}

// ----- Control Params ----- //

type controlParams struct {
	masterTune float64 // -12 ~ 12 semitones
	pitchWheel float64 // 0 ~ 100, 50 center
	modWheel   float64 // 0 ~ 100
	glideOn    bool
	glideTime  float64 // 0 ~ 10 knob
	oscMod     bool    // mod wheel routed to oscillator pitch
	decayHold  bool    // decay switch: notes ring down instead of cutting
}

type controlJSON struct {
	MasterTune float64 `json:"masterTune"`
	PitchWheel float64 `json:"pitchWheel"`
	ModWheel   float64 `json:"modWheel"`
	GlideOn    bool    `json:"glideOn"`
	GlideTime  float64 `json:"glideTime"`
	OscMod     bool    `json:"oscMod"`
	DecayHold  bool    `json:"decaySwitch"`
}

func (c *controlParams) applyJSON(data json.RawMessage) {
	var j controlJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to controlParams")
		return
	}
	c.masterTune = j.MasterTune
	c.pitchWheel = j.PitchWheel
	c.modWheel = j.ModWheel
	c.glideOn = j.GlideOn
	c.glideTime = j.GlideTime
	c.oscMod = j.OscMod
	c.decayHold = j.DecayHold
}

func (c *controlParams) toJSON() json.RawMessage {
	return toRawMessage(&controlJSON{
		MasterTune: c.masterTune,
		PitchWheel: c.pitchWheel,
		ModWheel:   c.modWheel,
		GlideOn:    c.glideOn,
		GlideTime:  c.glideTime,
		OscMod:     c.oscMod,
		DecayHold:  c.decayHold,
	})
}

func (c *controlParams) set(key string, value string) error {
	switch key {
	case "master_tune":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		c.masterTune = value
	case "pitch_wheel":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		c.pitchWheel = value
	case "mod_wheel":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		c.modWheel = value
	case "glide_on":
		c.glideOn = value == "true"
	case "glide_time":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		c.glideTime = value
	case "osc_mod":
		c.oscMod = value == "true"
	case "decay_switch":
		c.decayHold = value == "true"
	}
	return nil
}

// ----- Mixer Params ----- //

type mixerParams struct {
	noiseOn    bool
	noiseLevel float64 // 0 ~ 1
	noiseKind  noiseColor
}

type mixerJSON struct {
	NoiseOn    bool    `json:"noiseOn"`
	NoiseLevel float64 `json:"noiseLevel"`
	NoiseKind  string  `json:"noiseKind"`
}

func noiseColorFromString(s string) noiseColor {
	if s == "pink" {
		return noisePink
	}
	return noiseWhite
}

func noiseColorToString(c noiseColor) string {
	if c == noisePink {
		return "pink"
	}
	return "white"
}

func (m *mixerParams) applyJSON(data json.RawMessage) {
	var j mixerJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to mixerParams")
		return
	}
	m.noiseOn = j.NoiseOn
	m.noiseLevel = j.NoiseLevel
	m.noiseKind = noiseColorFromString(j.NoiseKind)
}

func (m *mixerParams) toJSON() json.RawMessage {
	return toRawMessage(&mixerJSON{
		NoiseOn:    m.noiseOn,
		NoiseLevel: m.noiseLevel,
		NoiseKind:  noiseColorToString(m.noiseKind),
	})
}

func (m *mixerParams) set(key string, value string) error {
	switch key {
	case "noise_on":
		m.noiseOn = value == "true"
	case "noise_level":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		m.noiseLevel = value
	case "noise_kind":
		m.noiseKind = noiseColorFromString(value)
	}
	return nil
}

// ----- Filter Params ----- //

type filterParams struct {
	cutoff        float64 // Hz
	emphasis      float64 // 0 ~ 10
	contourAmount float64 // 0 ~ 10
	attack        float64 // ms
	decay         float64 // ms
	sustain       float64 // 0 ~ 1
	modOn         bool    // contour sweeps the cutoff
}

type filterJSON struct {
	Cutoff        float64 `json:"cutoff"`
	Emphasis      float64 `json:"emphasis"`
	ContourAmount float64 `json:"contourAmount"`
	Attack        float64 `json:"attack"`
	Decay         float64 `json:"decay"`
	Sustain       float64 `json:"sustain"`
	ModOn         bool    `json:"modOn"`
}

func (f *filterParams) applyJSON(data json.RawMessage) {
	var j filterJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to filterParams")
		return
	}
	f.cutoff = j.Cutoff
	f.emphasis = j.Emphasis
	f.contourAmount = j.ContourAmount
	f.attack = j.Attack
	f.decay = j.Decay
	f.sustain = j.Sustain
	f.modOn = j.ModOn
}

func (f *filterParams) toJSON() json.RawMessage {
	return toRawMessage(&filterJSON{
		Cutoff:        f.cutoff,
		Emphasis:      f.emphasis,
		ContourAmount: f.contourAmount,
		Attack:        f.attack,
		Decay:         f.decay,
		Sustain:       f.sustain,
		ModOn:         f.modOn,
	})
}

func (f *filterParams) set(key string, value string) error {
	switch key {
	case "cutoff":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.cutoff = value
	case "emphasis":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.emphasis = value
	case "contour_amount":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.contourAmount = value
	case "attack":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.attack = value
	case "decay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.decay = value
	case "sustain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.sustain = value
	case "mod_on":
		f.modOn = value == "true"
	}
	return nil
}

// ----- Params ----- //

type params struct {
	oscParams     []*oscParams
	controlParams *controlParams
	mixerParams   *mixerParams
	filterParams  *filterParams
}

func newParams() *params {
	return &params{
		oscParams: []*oscParams{
			{enabled: true, kind: waveSawtooth, rang: range8, level: 1.0, detuneCents: 0},
			{enabled: false, kind: waveSawtooth, rang: range8, level: 0.7, detuneCents: -3},
			{enabled: false, kind: waveSawtooth, rang: range8, level: 0.7, detuneCents: 3},
		},
		controlParams: &controlParams{pitchWheel: 50},
		mixerParams:   &mixerParams{noiseLevel: 0.3},
		filterParams: &filterParams{
			cutoff:        1000,
			emphasis:      2,
			contourAmount: 5,
			attack:        300,
			decay:         500,
			sustain:       0.5,
			modOn:         true,
		},
	}
}

type paramsJSON struct {
	Oscs     []json.RawMessage `json:"oscs"`
	Controls json.RawMessage   `json:"controls"`
	Mixer    json.RawMessage   `json:"mixer"`
	Filter   json.RawMessage   `json:"filter"`
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println(err)
		log.Println("failed to apply JSON to state")
		return
	}
	if len(j.Oscs) == len(p.oscParams) {
		for i, j := range j.Oscs {
			p.oscParams[i].applyJSON(j)
		}
	} else {
		log.Println("failed to apply JSON to osc params")
	}
	p.controlParams.applyJSON(j.Controls)
	p.mixerParams.applyJSON(j.Mixer)
	p.filterParams.applyJSON(j.Filter)
}

func (p *params) toJSON() json.RawMessage {
	oscJsons := make([]json.RawMessage, len(p.oscParams))
	for i, oscParam := range p.oscParams {
		oscJsons[i] = oscParam.toJSON()
	}
	return toRawMessage(&paramsJSON{
		Oscs:     oscJsons,
		Controls: p.controlParams.toJSON(),
		Mixer:    p.mixerParams.toJSON(),
		Filter:   p.filterParams.toJSON(),
	})
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
