// ABOUTME: LSB steganography engine
// ABOUTME: Hides one message bit in the least-significant bit of each sample
package stego

import (
	"errors"
	"fmt"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
)

// ErrCapacityExceeded is returned when a framed message needs more
// carrier samples than the buffer provides
var ErrCapacityExceeded = errors.New("message exceeds carrier capacity")

// EncodeLSB hides a message in the least-significant bits of the
// buffer's samples, one bit per sample starting at sample zero.
// Samples beyond the framed message keep their original value, and
// the upper 15 bits of every sample are untouched. The input buffer
// is not modified; a new buffer with the same format is returned.
func EncodeLSB(buf *audio.Buffer, message string) (*audio.Buffer, error) {
	bits := EncodeBits(message)
	if len(bits) > len(buf.Samples) {
		return nil, fmt.Errorf("%w: message needs %d samples, buffer has %d",
			ErrCapacityExceeded, len(bits), len(buf.Samples))
	}

	out := buf.Clone()
	for i, bit := range bits {
		// Work on the unsigned bit pattern to avoid sign extension
		out.Samples[i] = int16(uint16(out.Samples[i])&0xFFFE | uint16(bit))
	}
	return out, nil
}

// DecodeLSB extracts the least-significant bit of every sample and
// reassembles the embedded message. The second return value reports
// whether a terminated message was found; when it is false the
// message is the NoMessageFound sentinel.
func DecodeLSB(buf *audio.Buffer) (string, bool) {
	bits := make([]byte, len(buf.Samples))
	for i, sample := range buf.Samples {
		bits[i] = byte(uint16(sample) & 1)
	}
	return DecodeBits(bits)
}
