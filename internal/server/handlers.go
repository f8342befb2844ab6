// ABOUTME: REST handlers for the undertone HTTP API
// ABOUTME: Implements the encode, decode and info endpoints
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Undertone-Audio/undertone-go/internal/config"
	"github.com/Undertone-Audio/undertone-go/internal/version"
	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/wav"
	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

// JobHeader carries the job ID on encode responses
const JobHeader = "X-Undertone-Job"

// multipartMemory is how much of a parsed form stays in memory before
// spilling to disk
const multipartMemory = 32 << 20

// handleInfo serves GET /api/v1/info
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, protocol.InfoResponse{
		ServerID:       s.serverID,
		Name:           s.config.Name,
		Version:        version.Version,
		Techniques:     []string{protocol.TechniqueLSB, protocol.TechniqueEcho},
		MaxUploadBytes: s.config.MaxUploadBytes,
		EchoDelays: protocol.DelayRange{
			Min:  config.DelayMin,
			Max:  config.DelayMax,
			Step: config.DelayStep,
		},
		EchoAlpha: protocol.AlphaRange{
			Min: config.AlphaMin,
			Max: config.AlphaMax,
		},
	})
}

// handleEncode serves POST /api/v1/encode. The multipart form carries
// the carrier WAV in "audio", the message text and the technique. The
// response body is the stego WAV, with the job ID in X-Undertone-Job.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, uploadErrorStatus(err), fmt.Sprintf("invalid upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	message := r.FormValue("message")
	if message == "" {
		writeError(w, http.StatusBadRequest, "no message provided")
		return
	}

	carrier, err := formWAV(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := EncodeJob{Technique: technique(r), Carrier: carrier, Message: message}
	switch job.Technique {
	case protocol.TechniqueLSB:
	case protocol.TechniqueEcho:
		params, err := s.echoParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		job.Echo = params
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown technique: %s", job.Technique))
		return
	}

	outcome, err := s.engine.Encode(job)
	if err != nil {
		if errors.Is(err, stego.ErrCapacityExceeded) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := wav.Encode(outcome.Stego)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode wav: %v", err))
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set(JobHeader, outcome.JobID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Failed to write encode response: %v", err)
	}
	s.updateTUI()
}

// handleDecode serves POST /api/v1/decode. The multipart form carries
// the stego WAV in "audio" and, for the echo technique, the clean
// carrier in "original".
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, uploadErrorStatus(err), fmt.Sprintf("invalid upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	stegoBuf, err := formWAV(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := DecodeJob{Technique: technique(r), Stego: stegoBuf}
	switch job.Technique {
	case protocol.TechniqueLSB:
	case protocol.TechniqueEcho:
		original, err := formWAV(r, "original")
		if err != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("echo decode needs the original audio: %v", err))
			return
		}
		d0, d1, err := s.echoDelays(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		job.Original = original
		job.Delay0 = d0
		job.Delay1 = d1
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown technique: %s", job.Technique))
		return
	}

	outcome, err := s.engine.Decode(job)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, protocol.DecodeResponse{
		JobID:     outcome.JobID,
		Technique: job.Technique,
		Found:     outcome.Found,
		Message:   outcome.Message,
		Chunks:    outcome.Chunks,
	})
	s.updateTUI()
}

// technique reads the requested technique, defaulting to LSB
func technique(r *http.Request) string {
	t := r.FormValue("technique")
	if t == "" {
		return protocol.TechniqueLSB
	}
	return t
}

// echoParams reads d0, d1 and alpha from the form, falling back to
// the server defaults, and validates them against the service ranges
func (s *Server) echoParams(r *http.Request) (stego.EchoParams, error) {
	params := s.config.Defaults.Params()

	d0, d1, err := s.echoDelays(r)
	if err != nil {
		return params, err
	}
	params.Delay0 = d0
	params.Delay1 = d1

	if v := r.FormValue("alpha"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("invalid alpha: %q", v)
		}
		params.Alpha = alpha
	}

	if err := config.ValidateEchoParams(params.Delay0, params.Delay1, params.Alpha); err != nil {
		return params, err
	}
	return params, nil
}

// echoDelays reads d0 and d1 from the form, falling back to the
// server defaults, and validates them against the service ranges
func (s *Server) echoDelays(r *http.Request) (int, int, error) {
	d0 := s.config.Defaults.Delay0
	d1 := s.config.Defaults.Delay1

	if v := r.FormValue("d0"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid d0: %q", v)
		}
		d0 = n
	}
	if v := r.FormValue("d1"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid d1: %q", v)
		}
		d1 = n
	}

	if err := config.ValidateEchoDelays(d0, d1); err != nil {
		return 0, 0, err
	}
	return d0, d1, nil
}

// formWAV reads and decodes a WAV file from a multipart field
func formWAV(r *http.Request, field string) (*audio.Buffer, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload: %w", field, err)
	}

	buf, err := wav.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s wav: %w", field, err)
	}
	return buf, nil
}

// uploadErrorStatus maps a form parse failure to an HTTP status
func uploadErrorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{Error: msg})
}
