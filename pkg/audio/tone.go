// ABOUTME: Sine tone generator for test signals
// ABOUTME: Produces deterministic buffers for examples and quality checks
package audio

import "math"

// NewTone generates a sine wave at the given frequency, duplicated
// across channels at half full scale. The output is deterministic:
// the same arguments always produce the same samples.
func NewTone(frequency float64, sampleRate, channels, frames int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	samples := make([]int16, frames*channels)

	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		sample := math.Sin(2 * math.Pi * frequency * t)

		// Convert to 16-bit PCM at 50% volume
		pcmValue := int16(sample * 32767.0 * 0.5)

		for c := 0; c < channels; c++ {
			samples[i*channels+c] = pcmValue
		}
	}

	return &Buffer{
		Samples: samples,
		Format: Format{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
	}
}
