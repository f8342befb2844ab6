// ABOUTME: Capacity calculations for the embedding techniques
// ABOUTME: Reports how many message characters a carrier can hold
package stego

import "github.com/Undertone-Audio/undertone-go/pkg/audio"

// CapacityLSB returns the number of message characters the carrier can
// hold with LSB embedding, terminator excluded. One sample carries one
// bit.
func CapacityLSB(buf *audio.Buffer) int {
	return clampCapacity(len(buf.Samples)/8 - len(terminator))
}

// CapacityEcho returns the number of message characters the carrier can
// hold with echo hiding at the given parameters, terminator excluded.
// One chunk carries one bit, and the longest delay is reserved at the
// end of the signal.
func CapacityEcho(buf *audio.Buffer, params EchoParams) int {
	usable := len(buf.Samples) - params.maxDelay()
	return clampCapacity(usable/(8*ChunkSize) - len(terminator))
}

func clampCapacity(chars int) int {
	if chars < 0 {
		return 0
	}
	return chars
}
