// ABOUTME: Signal quality metrics for stego impact measurement
// ABOUTME: Computes signal-to-noise ratio between reference and test audio
package quality

import (
	"math"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
)

// SNR returns the signal-to-noise ratio in decibels, treating the
// difference between test and reference as noise. Slices of unequal
// length are compared over the shorter one. Identical signals (and
// empty input) return +Inf; a silent reference against a non-silent
// test returns -Inf.
func SNR(reference, test []int16) float64 {
	n := len(reference)
	if len(test) < n {
		n = len(test)
	}

	var signal, noise float64
	for i := 0; i < n; i++ {
		ref := float64(reference[i])
		diff := float64(test[i]) - ref
		signal += ref * ref
		noise += diff * diff
	}

	if noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(signal/noise)
}

// SNRBuffers compares two buffers sample for sample
func SNRBuffers(reference, test *audio.Buffer) float64 {
	return SNR(reference.Samples, test.Samples)
}
