// ABOUTME: Tests for audio types
// ABOUTME: Tests buffer helpers and sample clipping
package audio

import (
	"testing"
	"time"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"valid mono", Format{SampleRate: 44100, Channels: 1, BitDepth: 16}, false},
		{"valid stereo", Format{SampleRate: 48000, Channels: 2, BitDepth: 16}, false},
		{"zero rate", Format{SampleRate: 0, Channels: 1, BitDepth: 16}, true},
		{"zero channels", Format{SampleRate: 44100, Channels: 0, BitDepth: 16}, true},
		{"24-bit", Format{SampleRate: 44100, Channels: 2, BitDepth: 24}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClipSample(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 1000.0, 1000},
		{"negative", -1000.0, -1000},
		{"truncates toward zero positive", 99.9, 99},
		{"truncates toward zero negative", -99.9, -99},
		{"clamps high", 40000.0, 32767},
		{"clamps low", -40000.0, -32768},
		{"max", 32767.0, 32767},
		{"min", -32768.0, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClipSample(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestBufferClone(t *testing.T) {
	original := &Buffer{
		Samples: []int16{1, 2, 3, 4},
		Format:  Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
	}

	clone := original.Clone()
	if len(clone.Samples) != len(original.Samples) {
		t.Fatalf("expected %d samples, got %d", len(original.Samples), len(clone.Samples))
	}
	if clone.Format != original.Format {
		t.Errorf("expected format %+v, got %+v", original.Format, clone.Format)
	}

	// Mutating the clone must not touch the original
	clone.Samples[0] = 99
	if original.Samples[0] != 1 {
		t.Errorf("clone mutation leaked into original: got %d", original.Samples[0])
	}
}

func TestBufferFrames(t *testing.T) {
	buf := &Buffer{
		Samples: make([]int16, 100),
		Format:  Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
	}
	if got := buf.Frames(); got != 50 {
		t.Errorf("expected 50 frames, got %d", got)
	}
}

func TestBufferDuration(t *testing.T) {
	buf := &Buffer{
		Samples: make([]int16, 44100),
		Format:  Format{SampleRate: 44100, Channels: 1, BitDepth: 16},
	}
	if got := buf.Duration(); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
}

func TestDownmixMono(t *testing.T) {
	buf := &Buffer{
		Samples: []int16{100, 200, -100, -200},
		Format:  Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
	}

	mono := DownmixMono(buf)
	if mono.Format.Channels != 1 {
		t.Fatalf("expected 1 channel, got %d", mono.Format.Channels)
	}
	expected := []int16{150, -150}
	if len(mono.Samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(mono.Samples))
	}
	for i, want := range expected {
		if mono.Samples[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, mono.Samples[i])
		}
	}
}

func TestDownmixMono_AlreadyMono(t *testing.T) {
	buf := &Buffer{
		Samples: []int16{1, 2, 3},
		Format:  Format{SampleRate: 8000, Channels: 1, BitDepth: 16},
	}

	mono := DownmixMono(buf)
	if len(mono.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(mono.Samples))
	}
	mono.Samples[0] = 9
	if buf.Samples[0] != 1 {
		t.Errorf("downmix of mono buffer must return a copy")
	}
}

func TestNewTone_Deterministic(t *testing.T) {
	a := NewTone(440, 44100, 2, 1000)
	b := NewTone(440, 44100, 2, 1000)

	if len(a.Samples) != 2000 {
		t.Fatalf("expected 2000 samples, got %d", len(a.Samples))
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("tone not deterministic at sample %d: %d vs %d", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestNewTone_ChannelsDuplicated(t *testing.T) {
	buf := NewTone(1000, 8000, 2, 100)
	for i := 0; i < buf.Frames(); i++ {
		left := buf.Samples[i*2]
		right := buf.Samples[i*2+1]
		if left != right {
			t.Fatalf("frame %d: channels differ (%d vs %d)", i, left, right)
		}
	}
}
