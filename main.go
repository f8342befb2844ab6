// ABOUTME: Entry point for the Undertone workbench client
// ABOUTME: Parses CLI flags, submits encode/decode jobs and drives the TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Undertone-Audio/undertone-go/internal/discovery"
	"github.com/Undertone-Audio/undertone-go/internal/player"
	"github.com/Undertone-Audio/undertone-go/internal/ui"
	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/wav"
	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
	"github.com/Undertone-Audio/undertone-go/pkg/stego"
	"github.com/Undertone-Audio/undertone-go/pkg/undertone"
)

var (
	serverAddr   = flag.String("server", "", "Manual server address (skip mDNS)")
	name         = flag.String("name", "", "Client friendly name (default: hostname-undertone)")
	op           = flag.String("op", "encode", "Operation: encode or decode")
	technique    = flag.String("technique", protocol.TechniqueLSB, "Embedding technique: lsb or echo")
	inPath       = flag.String("in", "", "Input WAV: carrier for encode, stego audio for decode")
	originalPath = flag.String("original", "", "Unmodified original WAV (echo decode)")
	outPath      = flag.String("out", "stego.wav", "Output WAV path (encode)")
	message      = flag.String("message", "", "Message to embed (encode)")
	delay0       = flag.Int("d0", stego.DefaultDelay0, "Echo delay for bit 0 in samples")
	delay1       = flag.Int("d1", stego.DefaultDelay1, "Echo delay for bit 1 in samples")
	alpha        = flag.Float64("alpha", stego.DefaultAlpha, "Echo attenuation in (0, 1]")
	logFile      = flag.String("log-file", "undertone.log", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs   = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	// Flag validation happens before the log file swallows the output
	if err := validateFlags(); err != nil {
		log.Fatalf("%v", err)
	}

	// Determine if we should use TUI or streaming logs
	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	// Determine client name
	clientName := *name
	if clientName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		clientName = fmt.Sprintf("%s-undertone", hostname)
	}

	if !useTUI {
		log.Printf("Starting Undertone workbench: %s", clientName)
		log.Printf("TUI disabled - logging to file for debugging")
	}

	// Load the input audio up front so flag mistakes fail fast
	inputAudio, err := wav.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *inPath, err)
	}

	var originalAudio *audio.Buffer
	if *originalPath != "" {
		originalAudio, err = wav.ReadFile(*originalPath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *originalPath, err)
		}
	}

	// TUI setup
	var tuiProg *tea.Program
	var previewCtrl *ui.PreviewControl

	if useTUI {
		previewCtrl = ui.NewPreviewControl()
		tuiProg, err = ui.Run(previewCtrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Handle server discovery if no manual server specified
	var serverAddress string
	if *serverAddr == "" {
		log.Printf("Starting server discovery...")
		disc := discovery.NewManager(discovery.Config{
			ServiceName: clientName,
		})
		disc.Browse()

		// Wait for server discovery
		select {
		case server := <-disc.Servers():
			serverAddress = server.Addr()
			log.Printf("Discovered server at %s", serverAddress)
		case <-time.After(10 * time.Second):
			log.Fatalf("No server found after 10 seconds")
		}
		disc.Stop()
	} else {
		serverAddress = *serverAddr
	}

	// Create client with callbacks for TUI
	config := undertone.Config{
		ServerAddr: serverAddress,
		ClientName: clientName,
		OnJob: func(ev undertone.JobEvent) {
			logJobEvent(ev)
			updateTUI(jobEventStatus(ev))
		},
		OnError: func(err error) {
			log.Printf("Client error: %v", err)
			updateTUI(ui.StatusMsg{Err: err.Error()})
		},
	}

	client, err := undertone.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	// Connect to server
	if err := client.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}

	log.Printf("Connected to server: %s", serverAddress)

	connected := true
	updateTUI(ui.StatusMsg{
		Connected:  &connected,
		ServerName: client.Server().Name,
		ServerAddr: serverAddress,
	})
	updateTUI(operationStatus(inputAudio))

	// Start preview handler if TUI is enabled
	previews := &previewBuffers{original: previewOriginal(inputAudio, originalAudio)}
	if *op == "decode" {
		previews.setStego(inputAudio)
	}
	if previewCtrl != nil {
		go handlePreviews(previewCtrl, previews, updateTUI)
	}

	// Run the job
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if useTUI {
		go runJob(ctx, client, inputAudio, originalAudio, previews, updateTUI)
	} else {
		runJob(ctx, client, inputAudio, originalAudio, previews, updateTUI)
		// Let the trailing job event arrive before the socket closes
		time.Sleep(200 * time.Millisecond)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for quit signal from TUI or OS
	if useTUI {
		select {
		case <-previewCtrl.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	}

	// Close client
	if err := client.Close(); err != nil {
		log.Printf("Error closing client: %v", err)
	}

	log.Printf("Workbench stopped")
}

// validateFlags rejects flag combinations the server would refuse
func validateFlags() error {
	if *inPath == "" {
		return fmt.Errorf("missing -in: an input WAV is required")
	}
	if *op != "encode" && *op != "decode" {
		return fmt.Errorf("unknown -op %q: use encode or decode", *op)
	}
	if *technique != protocol.TechniqueLSB && *technique != protocol.TechniqueEcho {
		return fmt.Errorf("unknown -technique %q: use lsb or echo", *technique)
	}
	if *op == "encode" && *message == "" {
		return fmt.Errorf("missing -message: encode needs a message to embed")
	}
	if *op == "decode" && *technique == protocol.TechniqueEcho && *originalPath == "" {
		return fmt.Errorf("missing -original: echo decode needs the unmodified audio")
	}
	return nil
}

// operationStatus seeds the TUI with the requested job
func operationStatus(input *audio.Buffer) ui.StatusMsg {
	msg := ui.StatusMsg{
		Kind:      *op,
		Technique: *technique,
		Carrier:   *inPath,
		Duration:  input.Duration(),
		Message:   *message,
	}
	switch *technique {
	case protocol.TechniqueLSB:
		msg.Capacity = stego.CapacityLSB(input)
	case protocol.TechniqueEcho:
		msg.Delay0 = *delay0
		msg.Delay1 = *delay1
		msg.Alpha = *alpha
		msg.Capacity = stego.CapacityEcho(input, echoParams())
	}
	return msg
}

func echoParams() stego.EchoParams {
	return stego.EchoParams{Delay0: *delay0, Delay1: *delay1, Alpha: *alpha}
}

// runJob submits the requested operation and reports the outcome
func runJob(ctx context.Context, client *undertone.Client, input, original *audio.Buffer, previews *previewBuffers, updateTUI func(ui.StatusMsg)) {
	if *op == "encode" {
		result, err := encodeJob(ctx, client, input)
		if err != nil {
			log.Printf("Encode failed: %v", err)
			updateTUI(ui.StatusMsg{Err: err.Error()})
			return
		}

		if err := wav.WriteFile(*outPath, result.Stego); err != nil {
			log.Printf("Failed to write %s: %v", *outPath, err)
			updateTUI(ui.StatusMsg{Err: err.Error()})
			return
		}

		previews.setStego(result.Stego)
		log.Printf("Encoded %q into %s (job %s)", *message, *outPath, result.JobID)
		updateTUI(ui.StatusMsg{JobID: result.JobID, Preview: "stego ready (s to play)"})
		return
	}

	result, err := decodeJob(ctx, client, input, original)
	if err != nil {
		log.Printf("Decode failed: %v", err)
		updateTUI(ui.StatusMsg{Err: err.Error()})
		return
	}

	if result.Found {
		log.Printf("Decoded message: %q (job %s)", result.Message, result.JobID)
	} else {
		log.Printf("%s (job %s)", result.Message, result.JobID)
	}

	running := false
	updateTUI(ui.StatusMsg{
		JobID:   result.JobID,
		Running: &running,
		Found:   &result.Found,
		Decoded: result.Message,
		Chunks:  result.Chunks,
	})
}

func encodeJob(ctx context.Context, client *undertone.Client, carrier *audio.Buffer) (*undertone.EncodeResult, error) {
	if *technique == protocol.TechniqueEcho {
		params := echoParams()
		return client.EncodeEcho(ctx, carrier, *message, &params)
	}
	return client.EncodeLSB(ctx, carrier, *message)
}

func decodeJob(ctx context.Context, client *undertone.Client, stegoAudio, original *audio.Buffer) (*undertone.DecodeResult, error) {
	if *technique == protocol.TechniqueEcho {
		return client.DecodeEcho(ctx, stegoAudio, original, *delay0, *delay1)
	}
	return client.DecodeLSB(ctx, stegoAudio)
}

// logJobEvent writes one line per job lifecycle event
func logJobEvent(ev undertone.JobEvent) {
	switch ev.Stage {
	case undertone.StageAccepted:
		log.Printf("Job %s accepted (%s/%s)", ev.JobID, ev.Kind, ev.Technique)
	case undertone.StageComplete:
		if ev.SNR != nil {
			log.Printf("Job %s complete in %dms, snr %.1f dB", ev.JobID, ev.DurationMS, *ev.SNR)
		} else {
			log.Printf("Job %s complete in %dms", ev.JobID, ev.DurationMS)
		}
	case undertone.StageFailed:
		log.Printf("Job %s failed: %s", ev.JobID, ev.Err)
	}
}

// jobEventStatus maps a job event onto the TUI
func jobEventStatus(ev undertone.JobEvent) ui.StatusMsg {
	switch ev.Stage {
	case undertone.StageAccepted:
		running := true
		return ui.StatusMsg{JobID: ev.JobID, Running: &running}
	case undertone.StageComplete:
		running := false
		return ui.StatusMsg{
			JobID:      ev.JobID,
			Running:    &running,
			DurationMS: ev.DurationMS,
			SNR:        ev.SNR,
			Found:      ev.Found,
			Decoded:    ev.Message,
			Chunks:     ev.Chunks,
		}
	case undertone.StageFailed:
		running := false
		return ui.StatusMsg{JobID: ev.JobID, Running: &running, Err: ev.Err}
	}
	return ui.StatusMsg{}
}

// previewBuffers holds the audio the TUI can audition. The stego side
// only appears once an encode job has returned.
type previewBuffers struct {
	mu       sync.Mutex
	original *audio.Buffer
	stego    *audio.Buffer
}

func (p *previewBuffers) setStego(buf *audio.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stego = buf
}

func (p *previewBuffers) get(target ui.PreviewTarget) *audio.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if target == ui.PreviewStego {
		return p.stego
	}
	return p.original
}

// previewOriginal picks the buffer the o key plays: the unmodified
// original when one was supplied, otherwise the input itself
func previewOriginal(input, original *audio.Buffer) *audio.Buffer {
	if original != nil {
		return original
	}
	return input
}

// handlePreviews plays preview requests from the TUI. The audio device
// opens on the first request so headless runs never touch it. The quit
// signal stays with main; this loop ends with the process.
func handlePreviews(previewCtrl *ui.PreviewControl, previews *previewBuffers, updateTUI func(ui.StatusMsg)) {
	var out *player.Output

	for target := range previewCtrl.Requests {
		buf := previews.get(target)
		if buf == nil {
			updateTUI(ui.StatusMsg{Preview: "stego not ready yet"})
			continue
		}

		if out == nil {
			out = player.NewOutput()
			if err := out.Initialize(buf.Format); err != nil {
				log.Printf("Preview unavailable: %v", err)
				updateTUI(ui.StatusMsg{Preview: "preview unavailable"})
				out = nil
				continue
			}
		}

		if err := out.Play(buf); err != nil {
			log.Printf("Preview failed: %v", err)
			updateTUI(ui.StatusMsg{Preview: "preview failed"})
			continue
		}

		if target == ui.PreviewStego {
			updateTUI(ui.StatusMsg{Preview: "playing stego"})
		} else {
			updateTUI(ui.StatusMsg{Preview: "playing original"})
		}
	}
}
