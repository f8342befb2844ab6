// ABOUTME: High-level Client API for Undertone steganography servers
// ABOUTME: Provides simple interface for encode/decode jobs and live job events
package undertone

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Undertone-Audio/undertone-go/internal/client"
	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/wav"
	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

// Config holds client configuration
type Config struct {
	// ServerAddr is the server address (host:port)
	ServerAddr string

	// ClientName is the display name announced to the server
	ClientName string

	// OnJob is called for every job lifecycle event the server
	// broadcasts, including jobs submitted by other clients
	OnJob func(JobEvent)

	// OnError is called when the event feed fails
	OnError func(error)
}

// Job event stages
const (
	StageAccepted = "accepted"
	StageComplete = "complete"
	StageFailed   = "failed"
)

// JobEvent describes one job lifecycle notification
type JobEvent struct {
	Stage      string
	JobID      string
	Kind       string // "encode" or "decode"
	Technique  string // "lsb" or "echo"
	DurationMS int64
	SNR        *float64 // encode outcome, nil otherwise
	Found      *bool    // decode outcome, nil otherwise
	Message    string
	Chunks     []stego.ChunkDiagnostic
	Err        string
}

// EncodeResult is the outcome of a server-side encode job
type EncodeResult struct {
	JobID string
	Stego *audio.Buffer
}

// DecodeResult is the outcome of a server-side decode job. When no
// terminated message is present, Found is false and Message holds the
// stego.NoMessageFound sentinel.
type DecodeResult struct {
	JobID   string
	Found   bool
	Message string
	Chunks  []stego.ChunkDiagnostic
}

// Client provides high-level access to an Undertone server. Encode and
// decode calls go over the REST API and work immediately; Connect adds
// a WebSocket subscription for live job events.
type Client struct {
	config Config

	rest   *client.RESTClient
	events *client.Client

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a client for the given configuration
func NewClient(config Config) (*Client, error) {
	if config.ServerAddr == "" {
		return nil, fmt.Errorf("server address is required")
	}
	if config.ClientName == "" {
		config.ClientName = "Undertone Client"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		rest:   client.NewRESTClient(config.ServerAddr),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Connect subscribes to the server's job event feed
func (c *Client) Connect() error {
	clientID := uuid.New().String()

	c.events = client.NewClient(client.Config{
		ServerAddr: c.config.ServerAddr,
		ClientID:   clientID,
		Name:       c.config.ClientName,
		Version:    protocol.ProtocolVersion,
	})

	if err := c.events.Connect(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	log.Printf("Connected to server: %s", c.config.ServerAddr)

	go c.pumpEvents()

	return nil
}

// pumpEvents forwards job notifications to the OnJob callback
func (c *Client) pumpEvents() {
	for {
		select {
		case accepted := <-c.events.Accepted:
			c.notifyJob(JobEvent{
				Stage:     StageAccepted,
				JobID:     accepted.JobID,
				Kind:      accepted.Kind,
				Technique: accepted.Technique,
			})

		case complete := <-c.events.Completed:
			c.notifyJob(JobEvent{
				Stage:      StageComplete,
				JobID:      complete.JobID,
				Kind:       complete.Kind,
				Technique:  complete.Technique,
				DurationMS: complete.DurationMS,
				SNR:        complete.SNR,
				Found:      complete.Found,
				Message:    complete.Message,
				Chunks:     complete.Chunks,
			})

		case failed := <-c.events.Failed:
			c.notifyJob(JobEvent{
				Stage:     StageFailed,
				JobID:     failed.JobID,
				Kind:      failed.Kind,
				Technique: failed.Technique,
				Err:       failed.Error,
			})

		case <-c.events.Done():
			if c.ctx.Err() == nil {
				c.notifyError(fmt.Errorf("connection to %s lost", c.config.ServerAddr))
			}
			return

		case <-c.ctx.Done():
			return
		}
	}
}

// Server returns the hello received from the connected server. The
// zero value is returned before Connect.
func (c *Client) Server() protocol.ServerHello {
	if c.events == nil {
		return protocol.ServerHello{}
	}
	return c.events.Server()
}

// IsConnected reports whether the event feed is up
func (c *Client) IsConnected() bool {
	return c.events != nil && c.events.IsConnected()
}

// Info fetches the server description: identity, supported techniques
// and accepted echo parameter ranges
func (c *Client) Info(ctx context.Context) (*protocol.InfoResponse, error) {
	return c.rest.Info(ctx)
}

// EncodeLSB embeds a message into the carrier's sample LSBs on the
// server and returns the stego audio
func (c *Client) EncodeLSB(ctx context.Context, carrier *audio.Buffer, message string) (*EncodeResult, error) {
	return c.encode(ctx, client.EncodeRequest{
		Carrier:   carrier,
		Message:   message,
		Technique: protocol.TechniqueLSB,
	})
}

// EncodeEcho embeds a message as delayed echoes on the server and
// returns the stego audio. A nil params uses the server defaults.
func (c *Client) EncodeEcho(ctx context.Context, carrier *audio.Buffer, message string, params *stego.EchoParams) (*EncodeResult, error) {
	return c.encode(ctx, client.EncodeRequest{
		Carrier:   carrier,
		Message:   message,
		Technique: protocol.TechniqueEcho,
		Echo:      params,
	})
}

func (c *Client) encode(ctx context.Context, req client.EncodeRequest) (*EncodeResult, error) {
	result, err := c.rest.Encode(ctx, req)
	if err != nil {
		return nil, err
	}
	return &EncodeResult{JobID: result.JobID, Stego: result.Stego}, nil
}

// DecodeLSB extracts an LSB-embedded message from stego audio
func (c *Client) DecodeLSB(ctx context.Context, stegoAudio *audio.Buffer) (*DecodeResult, error) {
	return c.decode(ctx, client.DecodeRequest{
		Stego:     stegoAudio,
		Technique: protocol.TechniqueLSB,
	})
}

// DecodeEcho extracts an echo-hidden message. The unmodified original
// audio is required, and the delays must match the ones used to
// encode. Zero delays use the server defaults.
func (c *Client) DecodeEcho(ctx context.Context, stegoAudio, original *audio.Buffer, delay0, delay1 int) (*DecodeResult, error) {
	return c.decode(ctx, client.DecodeRequest{
		Stego:     stegoAudio,
		Original:  original,
		Technique: protocol.TechniqueEcho,
		Delay0:    delay0,
		Delay1:    delay1,
	})
}

func (c *Client) decode(ctx context.Context, req client.DecodeRequest) (*DecodeResult, error) {
	resp, err := c.rest.Decode(ctx, req)
	if err != nil {
		return nil, err
	}
	return &DecodeResult{
		JobID:   resp.JobID,
		Found:   resp.Found,
		Message: resp.Message,
		Chunks:  resp.Chunks,
	}, nil
}

// EncodeLSBFile reads a carrier WAV, embeds the message on the server
// and writes the stego WAV to outPath
func (c *Client) EncodeLSBFile(ctx context.Context, carrierPath, outPath, message string) (*EncodeResult, error) {
	carrier, err := wav.ReadFile(carrierPath)
	if err != nil {
		return nil, err
	}
	result, err := c.EncodeLSB(ctx, carrier, message)
	if err != nil {
		return nil, err
	}
	if err := wav.WriteFile(outPath, result.Stego); err != nil {
		return nil, err
	}
	return result, nil
}

// EncodeEchoFile reads a carrier WAV, embeds the message with echo
// hiding on the server and writes the stego WAV to outPath
func (c *Client) EncodeEchoFile(ctx context.Context, carrierPath, outPath, message string, params *stego.EchoParams) (*EncodeResult, error) {
	carrier, err := wav.ReadFile(carrierPath)
	if err != nil {
		return nil, err
	}
	result, err := c.EncodeEcho(ctx, carrier, message, params)
	if err != nil {
		return nil, err
	}
	if err := wav.WriteFile(outPath, result.Stego); err != nil {
		return nil, err
	}
	return result, nil
}

// DecodeLSBFile reads a stego WAV and extracts its message
func (c *Client) DecodeLSBFile(ctx context.Context, stegoPath string) (*DecodeResult, error) {
	stegoAudio, err := wav.ReadFile(stegoPath)
	if err != nil {
		return nil, err
	}
	return c.DecodeLSB(ctx, stegoAudio)
}

// DecodeEchoFile reads a stego WAV and the unmodified original and
// extracts the echo-hidden message
func (c *Client) DecodeEchoFile(ctx context.Context, stegoPath, originalPath string, delay0, delay1 int) (*DecodeResult, error) {
	stegoAudio, err := wav.ReadFile(stegoPath)
	if err != nil {
		return nil, err
	}
	original, err := wav.ReadFile(originalPath)
	if err != nil {
		return nil, err
	}
	return c.DecodeEcho(ctx, stegoAudio, original, delay0, delay1)
}

// Close disconnects from the server and releases resources
func (c *Client) Close() error {
	c.cancel()

	if c.events != nil {
		if c.events.IsConnected() {
			if err := c.events.SendGoodbye("client shutdown"); err != nil {
				log.Printf("Failed to send goodbye: %v", err)
			}
		}
		c.events.Close()
	}

	return nil
}

// notifyJob calls the OnJob callback if set
func (c *Client) notifyJob(event JobEvent) {
	if c.config.OnJob != nil {
		c.config.OnJob(event)
	}
}

// notifyError calls the OnError callback if set
func (c *Client) notifyError(err error) {
	if c.config.OnError != nil {
		c.config.OnError(err)
	} else {
		log.Printf("Client error: %v", err)
	}
}
