// ABOUTME: Websocket client receiving an encoded laser signal
// ABOUTME: Implements the input source contract over a stream server connection
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/decode"
)

// Client reads a stream from a server
type Client struct {
	conn    *websocket.Conn
	server  ServerHello
	start   StreamStart
	format  audio.Format
	decoder *decode.PCMDecoder
	next    uint64 // expected index of the next chunk
	ended   bool
	closed  atomic.Bool
}

// Dial connects to url (ws://host:port/path), performs the handshake and
// waits for the stream format.
func Dial(ctx context.Context, url, name string) (*Client, error) {
	log.Printf("Connecting to %s", url)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &Client{conn: conn}
	if err := c.handshake(name); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake failed: %w", err)
	}

	c.format = audio.Format{
		SampleRate: c.start.SampleRate,
		Channels:   c.start.Channels,
		BitDepth:   c.start.BitDepth,
	}
	if err := c.format.Validate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("server announced unusable format: %w", err)
	}
	c.decoder, err = decode.NewPCM(c.format)
	if err != nil {
		conn.Close()
		return nil, err
	}

	log.Printf("Receiving stream %s from %s: %s, channels %q",
		c.start.StreamID, c.server.Name, c.format, c.start.Mapping)
	return c, nil
}

func (c *Client) handshake(name string) error {
	hello := Message{
		Type: "client/hello",
		Payload: ClientHello{
			ClientID: uuid.New().String(),
			Name:     name,
			Version:  ProtocolVersion,
		},
	}
	if err := c.conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	if err := c.expect("server/hello", &c.server); err != nil {
		return err
	}
	return c.expect("stream/start", &c.start)
}

func (c *Client) expect(msgType string, v interface{}) error {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", msgType, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse %s: %w", msgType, err)
	}
	if env.Type == "server/error" {
		var serr ServerError
		decodePayload(env, &serr)
		return fmt.Errorf("server refused: %s (%s)", serr.Message, serr.Error)
	}
	if env.Type != msgType {
		return fmt.Errorf("expected %s, got %s", msgType, env.Type)
	}
	return decodePayload(env, v)
}

// Format returns the announced stream format
func (c *Client) Format() audio.Format {
	return c.format
}

// Mapping returns the announced channel mapping, empty if the server sent none
func (c *Client) Mapping() string {
	return c.start.Mapping
}

// Read returns the samples of the next chunk. It returns io.EOF after
// stream/end, a normal close or a local Close.
func (c *Client) Read() ([]float64, error) {
	for {
		if c.ended || c.closed.Load() {
			return nil, io.EOF
		}

		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.ended = true
				return nil, io.EOF
			}
			return nil, fmt.Errorf("stream read failed: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			index, pcm, err := ParseChunk(data)
			if err != nil {
				return nil, err
			}
			if index != c.next {
				log.Printf("Warning: stream jumped from sample %d to %d", c.next, index)
			}
			samples, err := c.decoder.Decode(pcm)
			if err != nil {
				return nil, err
			}
			c.next = index + uint64(len(samples)/c.format.Channels)
			if len(samples) == 0 {
				continue
			}
			return samples, nil

		case websocket.TextMessage:
			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Printf("Error unmarshaling message: %v", err)
				continue
			}
			switch env.Type {
			case "stream/end":
				var end StreamEnd
				if err := decodePayload(env, &end); err == nil && end.Samples != c.next {
					log.Printf("Warning: stream ended at sample %d, received up to %d", end.Samples, c.next)
				}
				c.ended = true
				return nil, io.EOF
			case "server/error":
				var serr ServerError
				decodePayload(env, &serr)
				return nil, fmt.Errorf("server error: %s (%s)", serr.Message, serr.Error)
			default:
				log.Printf("Unknown message type: %s", env.Type)
			}
		}
	}
}

// Close closes the connection. A Read blocked in another goroutine returns
// io.EOF.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}
