// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats and PCM sample buffers
package audio

import (
	"fmt"
	"time"
)

const (
	// 16-bit PCM range constants
	MaxSample = 32767  // 2^15 - 1
	MinSample = -32768 // -2^15
)

// Format describes the shape of a PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate checks that the format describes playable 16-bit PCM
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (only 16-bit PCM)", f.BitDepth)
	}
	return nil
}

// Buffer represents decoded PCM audio
type Buffer struct {
	Samples []int16 // Interleaved PCM samples
	Format  Format
}

// Clone returns a deep copy of the buffer. Operations that produce
// modified audio work on a clone so callers keep their original.
func (b *Buffer) Clone() *Buffer {
	samples := make([]int16, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, Format: b.Format}
}

// Frames returns the number of sample frames (samples per channel)
func (b *Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return len(b.Samples)
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.Format.SampleRate) * float64(time.Second))
}

// ClipSample converts a float sample to int16, clamping to the 16-bit
// range and truncating toward zero like an integer cast
func ClipSample(v float64) int16 {
	if v > MaxSample {
		return MaxSample
	}
	if v < MinSample {
		return MinSample
	}
	return int16(v)
}

// DownmixMono averages interleaved channels into a single channel.
// Buffers that are already mono come back as a clone.
func DownmixMono(b *Buffer) *Buffer {
	if b.Format.Channels <= 1 {
		return b.Clone()
	}
	ch := b.Format.Channels
	frames := b.Frames()
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < ch; c++ {
			sum += float64(b.Samples[i*ch+c])
		}
		samples[i] = ClipSample(sum / float64(ch))
	}
	format := b.Format
	format.Channels = 1
	return &Buffer{Samples: samples, Format: format}
}
