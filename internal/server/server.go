// ABOUTME: Stream server for decoded Robot sessions
// ABOUTME: Manages WebSocket connections, codec negotiation, and per-client streams
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scummtools/robot-go/internal/discovery"
	"github.com/scummtools/robot-go/internal/protocol"
	"github.com/scummtools/robot-go/pkg/session"
)

const (
	// DefaultChunkDuration is the audio carried by one binary message
	DefaultChunkDuration = 20 * time.Millisecond

	// OpusSampleRate is the rate Opus streams are resampled to
	OpusSampleRate = 48000

	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// Supported codecs in server preference order
var supportedCodecs = []string{"pcm", "opus"}

// Config holds server configuration
type Config struct {
	Port          int
	Name          string
	EnableMDNS    bool
	Debug         bool
	Codec         string        // Forced codec; empty picks the client's first supported codec
	ChunkDuration time.Duration // PCM chunk length, defaults to 20ms
	Unpaced       bool          // Send as fast as the client reads
	File          string        // Advertised file name
}

// Server streams one decoded session to every client that connects
type Server struct {
	config   Config
	serverID string
	res      *session.Result

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	opusOnce    sync.Once
	opusSamples []int16
	opusErr     error

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected listener
type Client struct {
	ID    string
	Name  string
	Conn  *websocket.Conn
	Codec string

	sendChan chan any
}

// New creates a new server instance
func New(config Config, res *session.Result) *Server {
	if config.ChunkDuration <= 0 {
		config.ChunkDuration = DefaultChunkDuration
	}
	if config.Name == "" {
		config.Name = "Robot Server"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		res:      res,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network deployments only
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(discovery.StreamPath, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the stream endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ID returns the server id sent in server/hello
func (s *Server) ID() string {
	return s.serverID
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Start serves until ctx is cancelled or Stop is called
func (s *Server) Start(ctx context.Context) error {
	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			File:        s.config.File,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, discovery.StreamPath)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		log.Printf("Server shutting down...")
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()
	s.Stop()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server and ends every stream
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		return
	}

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		Codec:    s.negotiateCodec(hello.SupportCodecs),
		sendChan: make(chan any, 100),
	}
	log.Printf("Client hello: %s (ID: %s, codecs: %v -> %s)", hello.Name, hello.ClientID, hello.SupportCodecs, client.Codec)

	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)
		writeJSON(conn, protocol.Message{
			Type:    "server/error",
			Payload: map[string]string{"error": "duplicate_client_id", "message": "Client ID already connected"},
		})
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	streamDone := make(chan struct{})

	defer func() {
		cancel()
		<-streamDone
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		log.Printf("Client disconnected: %s", client.Name)
	}()

	go func() {
		select {
		case <-s.stopChan:
			cancel()
			conn.Close()
		case <-ctx.Done():
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(streamDone)
		if err := s.stream(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Stream to %s failed: %v", client.Name, err)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if s.config.Debug {
			log.Printf("[DEBUG] Ignoring message from %s: %s", client.Name, data)
		}
	}
}

func readHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("error reading hello: %w", err)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("error unmarshaling message: %w", err)
	}
	if env.Type != protocol.TypeClientHello {
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, env.Type)
	}

	var hello protocol.ClientHello
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}
	if hello.ClientID == "" {
		return nil, errors.New("client hello missing ClientID")
	}
	if hello.Name == "" {
		hello.Name = hello.ClientID
	}
	return &hello, nil
}

// negotiateCodec picks the forced codec or the client's first supported one
func (s *Server) negotiateCodec(offered []string) string {
	if s.config.Codec != "" {
		return s.config.Codec
	}
	for _, codec := range offered {
		if slices.Contains(supportedCodecs, codec) {
			return codec
		}
	}
	return "pcm"
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	defer client.Conn.Close()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := writeJSON(client.Conn, v); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshaling message: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// send queues a message, blocking until there is room or ctx ends
func (s *Server) send(ctx context.Context, client *Client, msg any) error {
	select {
	case client.sendChan <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) sendMessage(ctx context.Context, client *Client, msgType string, payload any) error {
	return s.send(ctx, client, protocol.Message{Type: msgType, Payload: payload})
}
