// ABOUTME: Tests for Undertone protocol message types
// ABOUTME: Verifies JSON marshaling/unmarshaling of envelope and payloads
package protocol

import (
	"encoding/json"
	"testing"

	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

func TestClientHelloMarshaling(t *testing.T) {
	msg := Message{
		Type: TypeClientHello,
		Payload: ClientHello{
			ClientID: "test-id",
			Name:     "Test Workbench",
			Version:  ProtocolVersion,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Type != TypeClientHello {
		t.Errorf("expected type %s, got %s", TypeClientHello, decoded.Type)
	}

	payload, _ := json.Marshal(decoded.Payload)
	var hello ClientHello
	if err := json.Unmarshal(payload, &hello); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if hello.ClientID != "test-id" {
		t.Errorf("expected client_id test-id, got %s", hello.ClientID)
	}
}

func TestJobCompleteMarshaling(t *testing.T) {
	snr := 72.4
	msg := Message{
		Type: TypeJobComplete,
		Payload: JobComplete{
			JobID:      "7c9f",
			Kind:       KindEncode,
			Technique:  TechniqueEcho,
			DurationMS: 12,
			SNR:        &snr,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	payload, _ := json.Marshal(decoded.Payload)
	var complete JobComplete
	if err := json.Unmarshal(payload, &complete); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if complete.SNR == nil || *complete.SNR != snr {
		t.Errorf("expected snr %v, got %v", snr, complete.SNR)
	}
	if complete.Found != nil {
		t.Errorf("encode completion should not carry found, got %v", *complete.Found)
	}
}

func TestDecodeResponseMarshaling(t *testing.T) {
	resp := DecodeResponse{
		JobID:     "a1b2",
		Technique: TechniqueEcho,
		Found:     true,
		Message:   "payload",
		Chunks: []stego.ChunkDiagnostic{
			{Chunk: 0, Corr0: 12.5, Corr1: 900.1, Bit: 1},
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded DecodeResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(decoded.Chunks) != 1 || decoded.Chunks[0].Bit != 1 {
		t.Errorf("chunk diagnostics did not survive the round trip: %+v", decoded.Chunks)
	}
}

func TestDecodeResponse_OmitsEmptyChunks(t *testing.T) {
	data, err := json.Marshal(DecodeResponse{JobID: "x", Technique: TechniqueLSB})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, present := raw["chunks"]; present {
		t.Error("expected chunks to be omitted for LSB decodes")
	}
}
