// ABOUTME: Websocket server broadcasting an encoded laser signal
// ABOUTME: Implements the output sink contract so the encoder can stream to remote clients
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lasertools/ildawav/internal/discovery"
	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/encode"
)

const (
	defaultChunkFrames = 1024
	handshakeTimeout   = 5 * time.Second
	writeDeadline      = 10 * time.Second
	pingInterval       = 30 * time.Second
	drainTimeout       = 5 * time.Second
)

// ErrStopped is returned by Write once the server has been stopped
var ErrStopped = errors.New("stream server stopped")

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr        string // listen address used by Start, e.g. ":8928"
	Name        string
	Format      audio.Format
	Mapping     string
	ChunkFrames int // sample vectors per chunk

	// Realtime paces chunks at the sample rate instead of as fast as the
	// encoder produces them
	Realtime bool

	// WaitForClient makes Write block until the first client has connected
	WaitForClient bool

	EnableMDNS bool
	Debug      bool
}

// Server broadcasts samples to websocket clients
type Server struct {
	config   ServerConfig
	serverID string
	streamID string
	upgrader websocket.Upgrader
	encoder  *encode.PCMEncoder

	httpServer  *http.Server
	listener    net.Listener
	mdnsManager *discovery.Manager

	clients   map[string]*client
	clientsMu sync.RWMutex
	readyChan chan struct{}
	readyOnce sync.Once

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup

	pending    []float64
	sent       uint64 // sample vectors broadcast so far
	started    time.Time
	finishOnce sync.Once
	finishErr  error
}

type client struct {
	id       string
	name     string
	conn     *websocket.Conn
	sendChan chan interface{}
	done     chan struct{} // closed when the connection handler exits
}

// closeRequest tells a client writer to close the connection normally
type closeRequest struct{}

// NewServer creates a stream server. Call Start to listen on Addr, or mount
// it as an http.Handler.
func NewServer(config ServerConfig) (*Server, error) {
	if err := config.Format.Validate(); err != nil {
		return nil, err
	}
	if config.Mapping != "" && len(config.Mapping) != config.Format.Channels {
		return nil, fmt.Errorf("mapping %q has %d channels, stream has %d",
			config.Mapping, len(config.Mapping), config.Format.Channels)
	}
	if config.ChunkFrames <= 0 {
		config.ChunkFrames = defaultChunkFrames
	}
	if config.Name == "" {
		config.Name = "ildawav"
	}

	encoder, err := encode.NewPCM(config.Format)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:   config,
		serverID: uuid.New().String(),
		streamID: uuid.New().String(),
		encoder:  encoder,
		upgrader: websocket.Upgrader{
			// trusted local networks only; non-browser clients send no Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[string]*client),
		readyChan: make(chan struct{}),
		stopChan:  make(chan struct{}),
	}, nil
}

// Start listens on the configured address and advertises via mDNS if enabled
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle(DefaultPath, s)
	s.httpServer = &http.Server{Handler: mux}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	log.Printf("Stream server %s (ID: %s) listening on %s%s", s.config.Name, s.serverID, listener.Addr(), DefaultPath)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
			Path:        DefaultPath,
			Mapping:     s.config.Mapping,
			Format:      s.config.Format.String(),
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	return nil
}

// Addr returns the listening address once started
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Clients returns the names of the connected clients
func (s *Server) Clients() []string {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	names := make([]string, 0, len(s.clients))
	for _, c := range s.clients {
		names = append(names, c.name)
	}
	return names
}

// Stop unblocks a Write waiting for the first client. Finish still has to
// be called.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// ServeHTTP upgrades the request to a websocket stream connection
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	// no handler may start once Finish is waiting for the others
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		writeError(conn, "shutting_down", "stream has ended")
		conn.Close()
		return
	}
	s.wg.Add(1)
	s.shutdownMu.RUnlock()

	defer s.wg.Done()
	s.handleConnection(conn)
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		writeError(conn, "bad_hello", err.Error())
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	c := &client{
		id:       hello.ClientID,
		name:     hello.Name,
		conn:     conn,
		sendChan: make(chan interface{}, 64),
		done:     make(chan struct{}),
	}

	// queue the greeting before the client can see any chunk
	c.sendChan <- Message{Type: "server/hello", Payload: ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  ProtocolVersion,
	}}
	c.sendChan <- Message{Type: "stream/start", Payload: StreamStart{
		StreamID:   s.streamID,
		SampleRate: s.config.Format.SampleRate,
		Channels:   s.config.Format.Channels,
		BitDepth:   s.config.Format.BitDepth,
		Mapping:    s.config.Mapping,
	}}

	s.clientsMu.Lock()
	if existing, exists := s.clients[c.id]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", c.id, existing.name)
		writeError(conn, "duplicate_client_id", "Client ID already connected")
		return
	}
	s.clients[c.id] = c
	s.clientsMu.Unlock()
	s.readyOnce.Do(func() { close(s.readyChan) })

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		s.clientsMu.Unlock()
		close(c.done)
		log.Printf("Client disconnected: %s", c.name)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	// clients have nothing to say; read until the connection closes
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if s.config.Debug {
			log.Printf("[DEBUG] Ignoring message from %s: %s", c.name, data)
		}
	}
}

func readHello(conn *websocket.Conn) (ClientHello, error) {
	var hello ClientHello

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("failed to read client/hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return hello, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type != "client/hello" {
		return hello, fmt.Errorf("expected client/hello, got %s", env.Type)
	}
	if err := decodePayload(env, &hello); err != nil {
		return hello, err
	}
	if hello.ClientID == "" {
		return hello, fmt.Errorf("client hello missing client_id")
	}
	if hello.Name == "" {
		return hello, fmt.Errorf("client hello missing name")
	}
	return hello, nil
}

func writeError(conn *websocket.Conn, code, message string) {
	data, err := json.Marshal(Message{
		Type:    "server/error",
		Payload: ServerError{Error: code, Message: message},
	})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteMessage(websocket.TextMessage, data)
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))

			var err error
			switch v := msg.(type) {
			case []byte:
				err = c.conn.WriteMessage(websocket.BinaryMessage, v)
			case closeRequest:
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
				return
			default:
				var data []byte
				data, err = json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				err = c.conn.WriteMessage(websocket.TextMessage, data)
			}
			if err != nil {
				log.Printf("Error writing to %s: %v", c.name, err)
				c.conn.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				c.conn.Close()
				return
			}

		case <-c.done:
			return
		}
	}
}

// broadcast queues msg for every client, waiting on slow ones
func (s *Server) broadcast(msg interface{}) {
	s.clientsMu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		select {
		case c.sendChan <- msg:
		case <-c.done:
		}
	}
}

// Write buffers samples and broadcasts them in chunks
func (s *Server) Write(samples []float64) error {
	channels := s.config.Format.Channels
	if len(samples)%channels != 0 {
		return fmt.Errorf("got %d samples for %d channels", len(samples), channels)
	}

	s.shutdownMu.RLock()
	shutdown := s.isShutdown
	s.shutdownMu.RUnlock()
	if shutdown {
		return ErrStopped
	}

	if s.config.WaitForClient {
		select {
		case <-s.readyChan:
		case <-s.stopChan:
			return ErrStopped
		}
	}

	s.pending = append(s.pending, samples...)
	chunk := s.config.ChunkFrames * channels
	for len(s.pending) >= chunk {
		if err := s.sendChunk(s.pending[:chunk]); err != nil {
			return err
		}
		s.pending = append(s.pending[:0], s.pending[chunk:]...)
	}
	return nil
}

func (s *Server) sendChunk(samples []float64) error {
	pcm, err := s.encoder.Encode(samples)
	if err != nil {
		return err
	}
	frames := uint64(len(samples) / s.config.Format.Channels)

	if s.config.Realtime {
		s.pace()
	}
	s.broadcast(CreateChunk(s.sent, pcm))
	s.sent += frames
	return nil
}

// pace sleeps until the wall clock reaches the stream position
func (s *Server) pace() {
	if s.started.IsZero() {
		s.started = time.Now()
		return
	}
	due := s.started.Add(time.Duration(float64(s.sent) / float64(s.config.Format.SampleRate) * float64(time.Second)))
	if wait := time.Until(due); wait > 0 {
		select {
		case <-time.After(wait):
		case <-s.stopChan:
		}
	}
}

// Finish sends the remaining samples and stream/end, closes every client
// connection and shuts the server down.
func (s *Server) Finish() error {
	s.finishOnce.Do(func() {
		s.finishErr = s.finish()
	})
	return s.finishErr
}

func (s *Server) finish() error {
	var err error
	if len(s.pending) > 0 {
		err = s.sendChunk(s.pending)
		s.pending = s.pending[:0]
	}

	s.broadcast(Message{Type: "stream/end", Payload: StreamEnd{StreamID: s.streamID, Samples: s.sent}})
	s.broadcast(closeRequest{})

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()
	s.Stop()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	// give clients a moment to acknowledge the close
	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
		log.Printf("Clients did not close in time, dropping them")
		s.clientsMu.RLock()
		for _, c := range s.clients {
			c.conn.Close()
		}
		s.clientsMu.RUnlock()
		<-drained
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if serr := s.httpServer.Shutdown(ctx); serr != nil {
			log.Printf("HTTP server shutdown error: %v", serr)
		}
	}

	log.Printf("Stream %s ended after %d samples", s.streamID, s.sent)
	return err
}
