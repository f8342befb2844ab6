// ABOUTME: Tests for the WAV codec
// ABOUTME: Tests round trips, chunk handling and malformed headers
package wav

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
)

func testBuffer() *audio.Buffer {
	return &audio.Buffer{
		Samples: []int16{0, 100, -100, 32767, -32768, 7},
		Format:  audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	original := testBuffer()

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != 44+len(original.Samples)*2 {
		t.Errorf("expected %d bytes, got %d", 44+len(original.Samples)*2, len(data))
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Format != original.Format {
		t.Errorf("expected format %+v, got %+v", original.Format, decoded.Format)
	}
	if len(decoded.Samples) != len(original.Samples) {
		t.Fatalf("expected %d samples, got %d", len(original.Samples), len(decoded.Samples))
	}
	for i, want := range original.Samples {
		if decoded.Samples[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, decoded.Samples[i])
		}
	}
}

func TestEncode_InvalidFormat(t *testing.T) {
	buf := &audio.Buffer{
		Samples: []int16{1, 2},
		Format:  audio.Format{SampleRate: 0, Channels: 1, BitDepth: 16},
	}
	if _, err := Encode(buf); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestDecode_TooShort(t *testing.T) {
	_, err := Decode([]byte("RIFF"))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestDecode_BadMarkers(t *testing.T) {
	data, _ := Encode(testBuffer())
	copy(data[8:12], "OGGS")
	if _, err := Decode(data); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestDecode_NonPCM(t *testing.T) {
	data, _ := Encode(testBuffer())
	// Patch the audio format field to IEEE float
	binary.LittleEndian.PutUint16(data[20:22], 3)
	if _, err := Decode(data); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecode_Not16Bit(t *testing.T) {
	data, _ := Encode(testBuffer())
	binary.LittleEndian.PutUint16(data[34:36], 8)
	if _, err := Decode(data); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecode_ChunkOverrun(t *testing.T) {
	data, _ := Encode(testBuffer())
	// Claim more data than the file holds
	binary.LittleEndian.PutUint32(data[40:44], 1<<30)
	if _, err := Decode(data); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestDecode_SkipsUnknownChunks(t *testing.T) {
	data, _ := Encode(testBuffer())

	// Splice a LIST chunk with an odd size (plus pad byte) between
	// the fmt and data chunks
	extra := make([]byte, 8+3+1)
	copy(extra[0:4], "LIST")
	binary.LittleEndian.PutUint32(extra[4:8], 3)

	spliced := make([]byte, 0, len(data)+len(extra))
	spliced = append(spliced, data[:36]...)
	spliced = append(spliced, extra...)
	spliced = append(spliced, data[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	decoded, err := Decode(spliced)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.Samples) != 6 {
		t.Errorf("expected 6 samples, got %d", len(decoded.Samples))
	}
}

func TestDecode_DataBeforeFmt(t *testing.T) {
	data := make([]byte, 0, 32)
	data = append(data, "RIFF"...)
	data = append(data, []byte{20, 0, 0, 0}...)
	data = append(data, "WAVE"...)
	data = append(data, "data"...)
	data = append(data, []byte{4, 0, 0, 0}...)
	data = append(data, []byte{1, 0, 2, 0}...)

	if _, err := Decode(data); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	original := audio.NewTone(440, 8000, 1, 800)

	if err := WriteFile(path, original); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(loaded.Samples) != len(original.Samples) {
		t.Errorf("expected %d samples, got %d", len(original.Samples), len(loaded.Samples))
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}
