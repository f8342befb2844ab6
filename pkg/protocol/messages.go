// ABOUTME: Undertone wire protocol message definitions
// ABOUTME: Defines the JSON envelope, handshake and job event payloads
package protocol

import "github.com/Undertone-Audio/undertone-go/pkg/stego"

// ProtocolVersion is the handshake version spoken by this library
const ProtocolVersion = 1

// Message types exchanged over the event socket
const (
	TypeClientHello   = "client/hello"
	TypeClientGoodbye = "client/goodbye"
	TypeServerHello   = "server/hello"
	TypeJobAccepted   = "job/accepted"
	TypeJobComplete   = "job/complete"
	TypeJobFailed     = "job/failed"
)

// Job kinds and techniques
const (
	KindEncode = "encode"
	KindDecode = "decode"

	TechniqueLSB  = "lsb"
	TechniqueEcho = "echo"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string   `json:"server_id"`
	Name       string   `json:"name"`
	Version    int      `json:"version"`
	Techniques []string `json:"techniques"`
}

// ClientGoodbye is sent before a graceful disconnect
type ClientGoodbye struct {
	Reason string `json:"reason"`
}

// JobAccepted announces that the server started working on a job
type JobAccepted struct {
	JobID     string `json:"job_id"`
	Kind      string `json:"kind"`
	Technique string `json:"technique"`
}

// JobComplete announces a finished job. SNR is only present for
// encode jobs, Found and Message only for decode jobs, Chunks only
// for echo decode jobs.
type JobComplete struct {
	JobID      string                  `json:"job_id"`
	Kind       string                  `json:"kind"`
	Technique  string                  `json:"technique"`
	DurationMS int64                   `json:"duration_ms"`
	SNR        *float64                `json:"snr_db,omitempty"`
	Found      *bool                   `json:"found,omitempty"`
	Message    string                  `json:"message,omitempty"`
	Chunks     []stego.ChunkDiagnostic `json:"chunks,omitempty"`
}

// JobFailed announces a job that ended with an error
type JobFailed struct {
	JobID     string `json:"job_id"`
	Kind      string `json:"kind"`
	Technique string `json:"technique"`
	Error     string `json:"error"`
}

// DelayRange describes the accepted echo delay values in samples
type DelayRange struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// AlphaRange describes the accepted echo attenuation values
type AlphaRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// InfoResponse describes a server to REST clients
type InfoResponse struct {
	ServerID       string     `json:"server_id"`
	Name           string     `json:"name"`
	Version        string     `json:"version"`
	Techniques     []string   `json:"techniques"`
	MaxUploadBytes int64      `json:"max_upload_bytes"`
	EchoDelays     DelayRange `json:"echo_delays"`
	EchoAlpha      AlphaRange `json:"echo_alpha"`
}

// DecodeResponse carries a decode outcome to REST clients. Chunks is
// only populated for echo decodes.
type DecodeResponse struct {
	JobID     string                  `json:"job_id"`
	Technique string                  `json:"technique"`
	Found     bool                    `json:"found"`
	Message   string                  `json:"message"`
	Chunks    []stego.ChunkDiagnostic `json:"chunks,omitempty"`
}

// ErrorResponse carries a REST failure with an HTTP status
type ErrorResponse struct {
	Error string `json:"error"`
}
