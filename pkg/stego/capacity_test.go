// ABOUTME: Tests for carrier capacity calculations
// ABOUTME: Verifies character counts and agreement with the encoders
package stego

import (
	"strings"
	"testing"
)

func TestCapacityLSB(t *testing.T) {
	tests := []struct {
		name     string
		samples  int
		expected int
	}{
		{"empty", 0, 0},
		{"terminator only", 24, 0},
		{"one char", 32, 1},
		{"short carrier", 23, 0},
		{"typical carrier", 16000, 1997},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := silentBuffer(tt.samples, 1)
			if got := CapacityLSB(buf); got != tt.expected {
				t.Errorf("expected capacity %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCapacityLSBMatchesEncoder(t *testing.T) {
	buf := silentBuffer(100, 1)

	capacity := CapacityLSB(buf)
	if capacity != 9 {
		t.Fatalf("expected capacity 9, got %d", capacity)
	}

	if _, err := EncodeLSB(buf, strings.Repeat("a", capacity)); err != nil {
		t.Errorf("expected message at capacity to fit: %v", err)
	}

	if _, err := EncodeLSB(buf, strings.Repeat("a", capacity+1)); err == nil {
		t.Error("expected message over capacity to be rejected")
	}
}

func TestCapacityEcho(t *testing.T) {
	params := EchoParams{Delay0: 200, Delay1: 400, Alpha: 0.5}

	tests := []struct {
		name     string
		samples  int
		expected int
	}{
		{"empty", 0, 0},
		{"below terminator", 3*8*ChunkSize + 399, 0},
		{"terminator only", 3*8*ChunkSize + 400, 0},
		{"five chars", 8*8*ChunkSize + 400, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := silentBuffer(tt.samples, 1)
			if got := CapacityEcho(buf, params); got != tt.expected {
				t.Errorf("expected capacity %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCapacityEchoMatchesEncoder(t *testing.T) {
	params := EchoParams{Delay0: 200, Delay1: 400, Alpha: 0.5}
	buf := silentBuffer(8*8*ChunkSize+400, 1)

	capacity := CapacityEcho(buf, params)
	if capacity != 5 {
		t.Fatalf("expected capacity 5, got %d", capacity)
	}

	if _, err := EncodeEcho(buf, strings.Repeat("a", capacity), params); err != nil {
		t.Errorf("expected message at capacity to fit: %v", err)
	}

	if _, err := EncodeEcho(buf, strings.Repeat("a", capacity+1), params); err == nil {
		t.Error("expected message over capacity to be rejected")
	}
}
