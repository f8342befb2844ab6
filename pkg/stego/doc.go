// ABOUTME: Steganography package hiding text messages in PCM audio
// ABOUTME: Provides LSB substitution and echo hiding engines
// Package stego hides short text messages inside 16-bit PCM sample buffers.
//
// Two interchangeable schemes are provided:
//   - LSB: one bit per sample in the least-significant bit. Inaudible
//     and self-decodable, but fragile against any resampling.
//   - Echo hiding: one bit per 8192-sample chunk as a delayed,
//     attenuated echo. More robust, but decoding needs the original
//     buffer for the correlation test.
//
// Every message is framed with a trailing "###" terminator before
// embedding. Decode operations never fail on absent payloads; they
// return the NoMessageFound sentinel with found == false.
//
// All operations are pure: input buffers are never mutated, encode
// returns a freshly allocated buffer. Calls on independent buffers
// are safe to run concurrently.
//
// Example:
//
//	out, err := stego.EncodeLSB(buf, "meet at noon")
//	if err != nil {
//	    // message did not fit
//	}
//	msg, found := stego.DecodeLSB(out)
package stego
