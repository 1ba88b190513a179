// ABOUTME: WebSocket client for Robot stream servers
// ABOUTME: Handles connection, handshake, and message routing
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

	"github.com/scummtools/robot-go/internal/discovery"
	"github.com/scummtools/robot-go/internal/protocol"
)

const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	Codecs     []string // Preferred codecs, defaults to pcm
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	hello  protocol.ServerHello

	// Message channels
	AudioChunks chan AudioChunk
	StreamStart chan protocol.StreamStart
	Frames      chan protocol.StreamFrame
	StreamEnd   chan protocol.StreamEnd

	// State
	connected bool
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// AudioChunk represents a timestamped audio chunk
type AudioChunk struct {
	Timestamp int64  // Stream microseconds
	Data      []byte // Encoded audio
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if len(config.Codecs) == 0 {
		config.Codecs = []string{"pcm"}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:      config,
		AudioChunks: make(chan AudioChunk, 100),
		StreamStart: make(chan protocol.StreamStart, 1),
		Frames:      make(chan protocol.StreamFrame, 100),
		StreamEnd:   make(chan protocol.StreamEnd, 1),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: discovery.StreamPath}
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
		close(c.done)
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := protocol.Message{
		Type: protocol.TypeClientHello,
		Payload: protocol.ClientHello{
			ClientID:      c.config.ClientID,
			Name:          c.config.Name,
			Version:       protocol.Version,
			SupportCodecs: c.config.Codecs,
		},
	}
	if err := c.sendJSON(hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if env.Type != protocol.TypeServerHello {
		return fmt.Errorf("expected %s, got %s", protocol.TypeServerHello, env.Type)
	}
	if err := env.Decode(&c.hello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	log.Printf("Handshake complete with %s (ID: %s)", c.hello.Name, c.hello.ServerID)
	return nil
}

// ServerHello returns the server's handshake response
func (c *Client) ServerHello() protocol.ServerHello {
	return c.hello
}

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
	defer close(c.done)
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		if messageType == websocket.BinaryMessage {
			c.handleBinaryMessage(data)
		} else if c.handleJSONMessage(data) {
			return
		}
	}
}

func (c *Client) handleBinaryMessage(data []byte) {
	timestamp, payload, err := protocol.ParseAudioChunk(data)
	if err != nil {
		log.Printf("Invalid binary message: %v", err)
		return
	}

	select {
	case c.AudioChunks <- AudioChunk{Timestamp: timestamp, Data: payload}:
	case <-c.ctx.Done():
	}
}

// handleJSONMessage routes one JSON message and reports stream end
func (c *Client) handleJSONMessage(data []byte) bool {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return false
	}

	switch env.Type {
	case protocol.TypeStreamStart:
		var start protocol.StreamStart
		if err := env.Decode(&start); err != nil {
			log.Printf("Bad %s: %v", env.Type, err)
			return false
		}
		select {
		case c.StreamStart <- start:
		case <-c.ctx.Done():
		}

	case protocol.TypeStreamFrame:
		var frame protocol.StreamFrame
		if err := env.Decode(&frame); err != nil {
			log.Printf("Bad %s: %v", env.Type, err)
			return false
		}
		select {
		case c.Frames <- frame:
		case <-c.ctx.Done():
		}

	case protocol.TypeStreamEnd:
		var end protocol.StreamEnd
		if err := env.Decode(&end); err != nil {
			log.Printf("Bad %s: %v", env.Type, err)
		}
		c.StreamEnd <- end
		return true

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
	return false
}

// Done is closed when the read loop has stopped
func (c *Client) Done() <-chan struct{} {
	return c.done
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
