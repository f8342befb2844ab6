// ABOUTME: WAV container codec for 16-bit PCM audio
// ABOUTME: Parses and produces RIFF/WAVE files around audio.Buffer
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
)

const headerSize = 44

var (
	ErrInvalidHeader     = errors.New("invalid WAV header")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Decode parses a RIFF/WAVE file into a sample buffer. Only
// uncompressed 16-bit PCM payloads are accepted; unknown chunks
// between the header and the data chunk are skipped.
func Decode(data []byte) (*audio.Buffer, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", ErrInvalidHeader, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE markers", ErrInvalidHeader)
	}

	var format audio.Format
	fmtFound := false

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidHeader, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrInvalidHeader, size)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate := binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])

			if audioFormat != 1 {
				return nil, fmt.Errorf("%w: audio format %d (only PCM)", ErrUnsupportedFormat, audioFormat)
			}
			if bits != 16 {
				return nil, fmt.Errorf("%w: %d-bit samples (only 16-bit)", ErrUnsupportedFormat, bits)
			}
			if channels == 0 || sampleRate == 0 {
				return nil, fmt.Errorf("%w: channels=%d rate=%d", ErrInvalidHeader, channels, sampleRate)
			}

			format = audio.Format{
				SampleRate: int(sampleRate),
				Channels:   int(channels),
				BitDepth:   16,
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidHeader)
			}
			n := size / 2
			samples := make([]int16, n)
			for i := 0; i < n; i++ {
				samples[i] = int16(binary.LittleEndian.Uint16(data[body+i*2 : body+i*2+2]))
			}
			return &audio.Buffer{Samples: samples, Format: format}, nil
		}

		// Chunks are word aligned; odd sizes carry a pad byte
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !fmtFound {
		return nil, fmt.Errorf("%w: no fmt chunk", ErrInvalidHeader)
	}
	return nil, fmt.Errorf("%w: no data chunk", ErrInvalidHeader)
}

// Encode serializes a buffer as a canonical WAV file with a 44-byte
// header followed by little-endian 16-bit samples.
func Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Format.Validate(); err != nil {
		return nil, fmt.Errorf("cannot encode buffer: %w", err)
	}

	dataSize := len(buf.Samples) * 2
	out := make([]byte, headerSize+dataSize)

	// RIFF header
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	// fmt chunk
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(buf.Format.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(buf.Format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(buf.Format.SampleRate*buf.Format.Channels*2)) // byte rate
	binary.LittleEndian.PutUint16(out[32:34], uint16(buf.Format.Channels*2))                       // block align
	binary.LittleEndian.PutUint16(out[34:36], 16)                                                  // bits per sample

	// data chunk
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))
	for i, sample := range buf.Samples {
		binary.LittleEndian.PutUint16(out[headerSize+i*2:], uint16(sample))
	}

	return out, nil
}

// ReadFile loads and decodes a WAV file from disk
func ReadFile(path string) (*audio.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	buf, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return buf, nil
}

// WriteFile encodes a buffer and writes it to disk
func WriteFile(path string, buf *audio.Buffer) error {
	data, err := Encode(buf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
