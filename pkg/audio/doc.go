// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample helpers
// Package audio provides fundamental audio types and utilities for 16-bit PCM processing.
//
// This package defines core types used throughout the undertone library:
//   - Format: Describes a PCM stream (sample rate, channels, bit depth)
//   - Buffer: Holds interleaved int16 samples plus their format
//
// It also provides helpers used by the steganography engines and the
// evaluation tools:
//   - ClipSample: float to int16 with clamping and truncation
//   - DownmixMono: channel averaging for single-channel analysis
//   - NewTone: deterministic sine test signals
//
// Example:
//
//	buf := audio.NewTone(440, 44100, 2, 44100)
//	fmt.Println(buf.Frames(), buf.Duration())
package audio
