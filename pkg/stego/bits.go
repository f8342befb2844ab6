// ABOUTME: Bit framing between text messages and raw bitstreams
// ABOUTME: Appends the terminator marker and packs bits MSB-first
package stego

import "bytes"

const (
	// Terminator marks the end of an embedded message
	Terminator = "###"

	// NoMessageFound is returned by decode operations when no
	// terminated message is present in the carrier
	NoMessageFound = "No hidden message found"
)

var terminator = []byte(Terminator)

// EncodeBits frames a message for embedding: the terminator is
// appended and every byte is expanded to its 8 bits, most significant
// first. Each element of the result is a single 0 or 1 value.
// Capacity is the embedding engine's concern, not checked here.
func EncodeBits(message string) []byte {
	framed := message + Terminator
	bits := make([]byte, 0, len(framed)*8)
	for i := 0; i < len(framed); i++ {
		c := framed[i]
		for j := 7; j >= 0; j-- {
			bits = append(bits, (c>>uint(j))&1)
		}
	}
	return bits
}

// DecodeBits reassembles a message from extracted bits. Bits are
// consumed in groups of 8; a partial trailing group is ignored and a
// zero byte ends the scan, since unused carrier capacity commonly
// reads back as zeros. The message ends at the last point where the
// accumulated text ends with the terminator, so a message may itself
// contain the marker. Returns (message, true) on success and
// (NoMessageFound, false) when no terminator is present.
func DecodeBits(bits []byte) (string, bool) {
	return decodeMessage(bits, false)
}

// decodeBitsASCII is the echo-mode variant: correlation decisions are
// noisier, so byte values above 127 end the scan the same way a zero
// byte does.
func decodeBitsASCII(bits []byte) (string, bool) {
	return decodeMessage(bits, true)
}

func decodeMessage(bits []byte, asciiOnly bool) (string, bool) {
	var decoded []byte
	end := -1

	for i := 0; i+8 <= len(bits); i += 8 {
		var value byte
		for j := 0; j < 8; j++ {
			value = value<<1 | bits[i+j]&1
		}
		if value == 0 || (asciiOnly && value > 127) {
			break
		}
		decoded = append(decoded, value)
		if bytes.HasSuffix(decoded, terminator) {
			end = len(decoded)
		}
	}

	if end < 0 {
		return NoMessageFound, false
	}
	return string(decoded[:end-len(terminator)]), true
}
