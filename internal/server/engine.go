// ABOUTME: Steganography job engine for the undertone server
// ABOUTME: Runs encode/decode jobs, records outcomes and notifies subscribers
package server

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/quality"
	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

// maxRecentJobs bounds the job history kept for the dashboard
const maxRecentJobs = 32

// JobRecord captures the outcome of one encode or decode job
type JobRecord struct {
	ID        string
	Kind      string
	Technique string
	Started   time.Time
	Duration  time.Duration
	SNR       float64
	HasSNR    bool
	Found     bool
	HasFound  bool
	Message   string
	Chunks    []stego.ChunkDiagnostic
	Err       string
}

// EncodeJob describes one embedding request
type EncodeJob struct {
	Technique string
	Carrier   *audio.Buffer
	Message   string
	Echo      stego.EchoParams
}

// EncodeOutcome is the result of a successful encode job
type EncodeOutcome struct {
	JobID string
	Stego *audio.Buffer
	SNR   float64
}

// DecodeJob describes one extraction request. Original, Delay0 and
// Delay1 are only consulted for the echo technique.
type DecodeJob struct {
	Technique string
	Stego     *audio.Buffer
	Original  *audio.Buffer
	Delay0    int
	Delay1    int
}

// DecodeOutcome is the result of a successful decode job
type DecodeOutcome struct {
	JobID   string
	Message string
	Found   bool
	Chunks  []stego.ChunkDiagnostic
}

// Engine executes steganography jobs. It keeps a bounded history of
// outcomes for the dashboard and pushes job events to a notifier.
type Engine struct {
	mu        sync.RWMutex
	recent    []JobRecord
	completed int
	failed    int

	notify func(protocol.Message)
}

// NewEngine creates a job engine
func NewEngine() *Engine {
	return &Engine{}
}

// SetNotify installs the callback that receives job events. The
// callback must not block.
func (e *Engine) SetNotify(fn func(protocol.Message)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = fn
}

// Encode embeds a message into the carrier using the job's technique
func (e *Engine) Encode(job EncodeJob) (*EncodeOutcome, error) {
	rec := e.begin(protocol.KindEncode, job.Technique)

	var out *audio.Buffer
	var err error
	switch job.Technique {
	case protocol.TechniqueLSB:
		out, err = stego.EncodeLSB(job.Carrier, job.Message)
	case protocol.TechniqueEcho:
		out, err = stego.EncodeEcho(job.Carrier, job.Message, job.Echo)
	default:
		err = fmt.Errorf("unknown technique: %s", job.Technique)
	}
	if err != nil {
		e.fail(rec, err)
		return nil, err
	}

	snr := quality.SNRBuffers(job.Carrier, out)
	rec.SNR = snr
	rec.HasSNR = true
	e.complete(rec)

	return &EncodeOutcome{JobID: rec.ID, Stego: out, SNR: snr}, nil
}

// Decode extracts a message from stego audio using the job's technique
func (e *Engine) Decode(job DecodeJob) (*DecodeOutcome, error) {
	rec := e.begin(protocol.KindDecode, job.Technique)

	outcome := &DecodeOutcome{JobID: rec.ID}
	switch job.Technique {
	case protocol.TechniqueLSB:
		outcome.Message, outcome.Found = stego.DecodeLSB(job.Stego)
	case protocol.TechniqueEcho:
		result, err := stego.DecodeEcho(job.Original, job.Stego, job.Delay0, job.Delay1)
		if err != nil {
			e.fail(rec, err)
			return nil, err
		}
		outcome.Message = result.Message
		outcome.Found = result.Found
		outcome.Chunks = result.Chunks
	default:
		err := fmt.Errorf("unknown technique: %s", job.Technique)
		e.fail(rec, err)
		return nil, err
	}

	rec.Found = outcome.Found
	rec.HasFound = true
	rec.Message = outcome.Message
	rec.Chunks = outcome.Chunks
	e.complete(rec)

	return outcome, nil
}

// RecentJobs returns a copy of the job history, newest first
func (e *Engine) RecentJobs() []JobRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	jobs := make([]JobRecord, len(e.recent))
	for i, rec := range e.recent {
		jobs[len(e.recent)-1-i] = rec
	}
	return jobs
}

// Counts returns the number of completed and failed jobs
func (e *Engine) Counts() (completed, failed int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.completed, e.failed
}

func (e *Engine) begin(kind, technique string) *JobRecord {
	rec := &JobRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		Technique: technique,
		Started:   time.Now(),
	}
	log.Printf("Job %s: %s/%s started", rec.ID, kind, technique)

	e.send(protocol.Message{
		Type: protocol.TypeJobAccepted,
		Payload: protocol.JobAccepted{
			JobID:     rec.ID,
			Kind:      kind,
			Technique: technique,
		},
	})
	return rec
}

func (e *Engine) complete(rec *JobRecord) {
	rec.Duration = time.Since(rec.Started)

	event := protocol.JobComplete{
		JobID:      rec.ID,
		Kind:       rec.Kind,
		Technique:  rec.Technique,
		DurationMS: rec.Duration.Milliseconds(),
	}
	if rec.HasSNR {
		snr := rec.SNR
		event.SNR = &snr
		log.Printf("Job %s: %s/%s completed in %v (snr %.1f dB)",
			rec.ID, rec.Kind, rec.Technique, rec.Duration, rec.SNR)
	} else {
		found := rec.Found
		event.Found = &found
		event.Message = rec.Message
		event.Chunks = rec.Chunks
		log.Printf("Job %s: %s/%s completed in %v (found: %v)",
			rec.ID, rec.Kind, rec.Technique, rec.Duration, rec.Found)
	}

	e.mu.Lock()
	e.completed++
	e.remember(*rec)
	e.mu.Unlock()

	e.send(protocol.Message{Type: protocol.TypeJobComplete, Payload: event})
}

func (e *Engine) fail(rec *JobRecord, err error) {
	rec.Duration = time.Since(rec.Started)
	rec.Err = err.Error()
	log.Printf("Job %s: %s/%s failed after %v: %v",
		rec.ID, rec.Kind, rec.Technique, rec.Duration, err)

	e.mu.Lock()
	e.failed++
	e.remember(*rec)
	e.mu.Unlock()

	e.send(protocol.Message{
		Type: protocol.TypeJobFailed,
		Payload: protocol.JobFailed{
			JobID:     rec.ID,
			Kind:      rec.Kind,
			Technique: rec.Technique,
			Error:     rec.Err,
		},
	})
}

// remember appends to the history, dropping the oldest entry when
// full. Caller holds e.mu.
func (e *Engine) remember(rec JobRecord) {
	e.recent = append(e.recent, rec)
	if len(e.recent) > maxRecentJobs {
		e.recent = e.recent[len(e.recent)-maxRecentJobs:]
	}
}

func (e *Engine) send(msg protocol.Message) {
	e.mu.RLock()
	notify := e.notify
	e.mu.RUnlock()

	if notify != nil {
		notify(msg)
	}
}
