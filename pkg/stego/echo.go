// ABOUTME: Echo hiding steganography engine
// ABOUTME: Hides one bit per chunk as a delayed attenuated echo
package stego

import (
	"fmt"
	"math"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
)

// ChunkSize is the number of samples carrying a single echo-hidden bit
const ChunkSize = 8192

// Default echo parameters
const (
	DefaultDelay0 = 200
	DefaultDelay1 = 400
	DefaultAlpha  = 0.5
)

// EchoParams configures echo hiding. Delay0 carries bit 0 and Delay1
// carries bit 1, both in samples; Alpha scales the echo amplitude.
// The same delays must be used for encoding and decoding.
type EchoParams struct {
	Delay0 int
	Delay1 int
	Alpha  float64
}

// Validate checks the parameter invariants: positive distinct delays
// and an attenuation in (0, 1]
func (p EchoParams) Validate() error {
	if err := validateDelays(p.Delay0, p.Delay1); err != nil {
		return err
	}
	if p.Alpha <= 0 || p.Alpha > 1 {
		return fmt.Errorf("echo alpha must be in (0, 1], got %v", p.Alpha)
	}
	return nil
}

func (p EchoParams) maxDelay() int {
	if p.Delay0 > p.Delay1 {
		return p.Delay0
	}
	return p.Delay1
}

func validateDelays(d0, d1 int) error {
	if d0 <= 0 || d1 <= 0 {
		return fmt.Errorf("echo delays must be positive (d0=%d, d1=%d)", d0, d1)
	}
	if d0 == d1 {
		return fmt.Errorf("echo delays must differ, both are %d", d0)
	}
	return nil
}

// ChunkDiagnostic records the correlation evidence for one chunk
type ChunkDiagnostic struct {
	Chunk int     `json:"chunk"`
	Corr0 float64 `json:"corr_d0"`
	Corr1 float64 `json:"corr_d1"`
	Bit   byte    `json:"bit"`
}

// EchoDecodeResult carries a decoded message together with the raw
// bit decisions and per-chunk correlation evidence
type EchoDecodeResult struct {
	Message string
	Found   bool
	Bits    []byte
	Chunks  []ChunkDiagnostic
}

// EncodeEcho hides a message by adding a delayed, attenuated copy of
// each chunk back into the signal: one bit per ChunkSize samples, the
// delay selecting the bit value. Echo accumulation runs in float64
// and the result is clipped back to the 16-bit range, so loud
// passages saturate rather than wrap. The input buffer is not
// modified. Decoding requires the original buffer (see DecodeEcho).
func EncodeEcho(buf *audio.Buffer, message string, params EchoParams) (*audio.Buffer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	bits := EncodeBits(message)
	maxDelay := params.maxDelay()
	if need := len(bits)*ChunkSize + maxDelay; need > len(buf.Samples) {
		return nil, fmt.Errorf("%w: message needs %d samples, buffer has %d",
			ErrCapacityExceeded, need, len(buf.Samples))
	}

	samples := buf.Samples
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}

	usable := len(samples) - maxDelay
	for i, bit := range bits {
		start := i * ChunkSize
		end := start + ChunkSize
		if end > usable {
			end = usable
		}
		if end <= start {
			break
		}

		delay := params.Delay0
		if bit == 1 {
			delay = params.Delay1
		}

		// Echo copies the clean input, not the accumulating output.
		// A chunk whose echo would run past the buffer adds none.
		if start+delay+(end-start) > len(out) {
			continue
		}
		for j := start; j < end; j++ {
			out[j+delay] += params.Alpha * float64(samples[j])
		}
	}

	result := buf.Clone()
	for i, v := range out {
		result.Samples[i] = audio.ClipSample(v)
	}
	return result, nil
}

// DecodeEcho recovers a message hidden with EncodeEcho. The scheme is
// not self-decodable: the pre-embedding original buffer is required.
// Each chunk's bit is decided by correlating the original chunk with
// the stego-minus-original difference at both candidate delays; the
// stronger correlation wins. Buffers of different lengths are
// compared over the shorter one rather than failing. The delays must
// match the ones used for encoding or the result is garbage, which
// normally surfaces as NoMessageFound.
func DecodeEcho(original, stego *audio.Buffer, d0, d1 int) (*EchoDecodeResult, error) {
	if err := validateDelays(d0, d1); err != nil {
		return nil, err
	}

	n := len(original.Samples)
	if len(stego.Samples) < n {
		n = len(stego.Samples)
	}

	maxDelay := d0
	if d1 > maxDelay {
		maxDelay = d1
	}

	numChunks := (n - maxDelay) / ChunkSize
	if numChunks < 0 {
		numChunks = 0
	}

	bits := make([]byte, 0, numChunks)
	chunks := make([]ChunkDiagnostic, 0, numChunks)

	for i := 0; i < numChunks; i++ {
		start := i * ChunkSize
		end := start + ChunkSize
		if end+maxDelay > n {
			break
		}

		var corr0, corr1 float64
		for j := start; j < end; j++ {
			ref := float64(original.Samples[j])
			corr0 += ref * (float64(stego.Samples[j+d0]) - float64(original.Samples[j+d0]))
			corr1 += ref * (float64(stego.Samples[j+d1]) - float64(original.Samples[j+d1]))
		}
		corr0 = math.Abs(corr0)
		corr1 = math.Abs(corr1)

		bit := byte(0)
		if corr1 > corr0 {
			bit = 1
		}
		bits = append(bits, bit)
		chunks = append(chunks, ChunkDiagnostic{Chunk: i, Corr0: corr0, Corr1: corr1, Bit: bit})
	}

	message, found := decodeBitsASCII(bits)
	return &EchoDecodeResult{
		Message: message,
		Found:   found,
		Bits:    bits,
		Chunks:  chunks,
	}, nil
}
