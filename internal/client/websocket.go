// ABOUTME: WebSocket client for the undertone event socket
// ABOUTME: Handles connection, handshake, and job event routing
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	Version    int
}

// Client subscribes to the server's job event socket
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Accepted  chan protocol.JobAccepted
	Completed chan protocol.JobComplete
	Failed    chan protocol.JobFailed

	// State
	connected bool
	server    protocol.ServerHello
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:    config,
		Accepted:  make(chan protocol.JobAccepted, 10),
		Completed: make(chan protocol.JobComplete, 10),
		Failed:    make(chan protocol.JobFailed, 10),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect establishes the WebSocket connection and performs the
// handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/undertone"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	// Start message reader
	go c.readMessages()

	return nil
}

// handshake performs the protocol handshake
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  c.config.Version,
	}

	msg := protocol.Message{
		Type:    protocol.TypeClientHello,
		Payload: hello,
	}

	if err := c.sendJSON(msg); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	// Wait for server/hello (with timeout)
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{}) // Clear deadline

	var serverMsg protocol.Message
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	if serverMsg.Type != protocol.TypeServerHello {
		return fmt.Errorf("expected %s, got %s", protocol.TypeServerHello, serverMsg.Type)
	}

	payloadBytes, err := json.Marshal(serverMsg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal server/hello payload: %w", err)
	}

	var serverHello protocol.ServerHello
	if err := json.Unmarshal(payloadBytes, &serverHello); err != nil {
		return fmt.Errorf("failed to parse server/hello payload: %w", err)
	}

	c.mu.Lock()
	c.server = serverHello
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (techniques: %v)", serverHello.Name, serverHello.Techniques)
	return nil
}

// Server returns the hello received during the handshake
func (c *Client) Server() protocol.ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error: %v", err)
			return
		}

		if messageType == websocket.TextMessage {
			c.handleJSONMessage(data)
		}
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	payloadBytes, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case protocol.TypeJobAccepted:
		var accepted protocol.JobAccepted
		json.Unmarshal(payloadBytes, &accepted)
		select {
		case c.Accepted <- accepted:
		case <-c.ctx.Done():
		}

	case protocol.TypeJobComplete:
		var complete protocol.JobComplete
		json.Unmarshal(payloadBytes, &complete)
		select {
		case c.Completed <- complete:
		case <-c.ctx.Done():
		}

	case protocol.TypeJobFailed:
		var failed protocol.JobFailed
		json.Unmarshal(payloadBytes, &failed)
		select {
		case c.Failed <- failed:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// SendGoodbye tells the server the client is leaving
func (c *Client) SendGoodbye(reason string) error {
	msg := protocol.Message{
		Type:    protocol.TypeClientGoodbye,
		Payload: protocol.ClientGoodbye{Reason: reason},
	}
	return c.sendJSON(msg)
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Done is closed when the connection shuts down, whether by Close or
// by a read failure
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}
