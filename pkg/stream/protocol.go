// ABOUTME: Stream protocol message definitions
// ABOUTME: JSON control messages and the binary chunk framing
package stream

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

const (
	ProtocolVersion = 1

	// DefaultPath is the websocket endpoint
	DefaultPath = "/ildawav"

	// ChunkMessageType identifies PCM chunks
	ChunkMessageType = 1

	// ChunkHeaderSize is the type byte plus the sample index
	ChunkHeaderSize = 1 + 8
)

// Message is the top-level wrapper for control messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// StreamStart describes the signal that follows
type StreamStart struct {
	StreamID   string `json:"stream_id"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
	Mapping    string `json:"mapping"`
}

// StreamEnd marks the end of the signal
type StreamEnd struct {
	StreamID string `json:"stream_id"`
	Samples  uint64 `json:"samples"`
}

// ServerError is sent before the server drops a client
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateChunk frames PCM data whose first sample vector has the given index
func CreateChunk(index uint64, pcm []byte) []byte {
	chunk := make([]byte, ChunkHeaderSize+len(pcm))
	chunk[0] = ChunkMessageType
	binary.BigEndian.PutUint64(chunk[1:ChunkHeaderSize], index)
	copy(chunk[ChunkHeaderSize:], pcm)
	return chunk
}

// ParseChunk splits a binary message into its sample index and PCM data
func ParseChunk(data []byte) (uint64, []byte, error) {
	if len(data) < ChunkHeaderSize {
		return 0, nil, fmt.Errorf("chunk too short: %d bytes", len(data))
	}
	if data[0] != ChunkMessageType {
		return 0, nil, fmt.Errorf("unknown binary message type: %d", data[0])
	}
	return binary.BigEndian.Uint64(data[1:ChunkHeaderSize]), data[ChunkHeaderSize:], nil
}

func decodePayload(env envelope, v interface{}) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return nil
}
