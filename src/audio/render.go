package audio

import (
	"log"
	"os"

	"github.com/dustin/go-humanize"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RenderWAV bounces the engine's output offline into a 16-bit stereo WAV
// file. No audio device is needed; the graph is pulled directly.
func (e *Engine) RenderWAV(path string, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close %v: %v\n", path, err)
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, 8*bitDepthInBytes, channelNum, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channelNum,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: 8 * bitDepthInBytes,
		Data:           make([]int, samplesPerCycle*channelNum),
	}
	mono := make([]float64, samplesPerCycle)

	remaining := int(seconds * sampleRate)
	for remaining > 0 {
		n := samplesPerCycle
		if n > remaining {
			n = remaining
		}
		chunk := mono[:n]
		e.pull(chunk)
		data := buf.Data[:n*channelNum]
		for i, value := range chunk {
			v := int(clamp(value, -1, 1) * 32767)
			for ch := 0; ch < channelNum; ch++ {
				data[i*channelNum+ch] = v
			}
		}
		buf.Data = data
		if err := enc.Write(buf); err != nil {
			return err
		}
		remaining -= n
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil {
		log.Printf("wrote %v (%v)\n", path, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}
