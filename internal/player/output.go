// ABOUTME: Audio preview playback using oto
// ABOUTME: Plays sample buffers once with software volume control
package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/ebitengine/oto/v3"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
)

// Output plays sample buffers through the system audio device. It is
// built for short A/B previews: starting a new buffer stops whatever
// is still playing.
type Output struct {
	otoCtx *oto.Context
	player *oto.Player
	format audio.Format
	volume int
	muted  bool
	ready  bool
}

// NewOutput creates an audio output
func NewOutput() *Output {
	return &Output{
		volume: 100,
	}
}

// Initialize sets up oto with the specified format
func (o *Output) Initialize(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("cannot initialize output: %w", err)
	}
	if o.otoCtx != nil {
		o.Close()
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels",
		format.SampleRate, format.Channels)

	return nil
}

// Play starts one-shot playback of a buffer and returns immediately.
// A buffer already playing is stopped first.
func (o *Output) Play(buf *audio.Buffer) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}
	if buf.Format.SampleRate != o.format.SampleRate || buf.Format.Channels != o.format.Channels {
		return fmt.Errorf("buffer format %dHz/%dch does not match output %dHz/%dch",
			buf.Format.SampleRate, buf.Format.Channels, o.format.SampleRate, o.format.Channels)
	}

	if o.player != nil {
		o.player.Close()
		o.player = nil
	}

	samples := applyVolume(buf.Samples, o.volume, o.muted)

	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(sample))
	}

	o.player = o.otoCtx.NewPlayer(bytes.NewReader(output))
	o.player.Play()

	return nil
}

// IsPlaying reports whether a preview is still audible
func (o *Output) IsPlaying() bool {
	return o.player != nil && o.player.IsPlaying()
}

// SetVolume sets the volume (0-100)
func (o *Output) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Output) SetMuted(muted bool) {
	o.muted = muted
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (o *Output) GetVolume() int {
	return o.volume
}

// IsMuted returns mute state
func (o *Output) IsMuted() bool {
	return o.muted
}

// Close stops playback and suspends the audio device
func (o *Output) Close() {
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
}

// applyVolume applies volume and mute to samples
func applyVolume(samples []int16, volume int, muted bool) []int16 {
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int16, len(samples))
	for i, sample := range samples {
		result[i] = int16(float64(sample) * multiplier)
	}

	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
