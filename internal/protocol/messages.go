// ABOUTME: Robot stream protocol message type definitions
// ABOUTME: Defines the JSON control messages and the binary audio chunk layout
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the protocol version spoken by server and clients
const Version = 1

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeStreamStart = "stream/start"
	TypeStreamFrame = "stream/frame"
	TypeStreamEnd   = "stream/end"
)

// AudioChunkType is the leading byte of binary audio messages
const AudioChunkType = 4

// AudioChunkHeaderSize is the type byte plus the big-endian timestamp
const AudioChunkHeaderSize = 9

var ErrShortChunk = errors.New("protocol: audio chunk shorter than header")

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Envelope is a received message whose payload is decoded later
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", e.Type, err)
	}
	return nil
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID      string   `json:"client_id"`
	Name          string   `json:"name"`
	Version       int      `json:"version"`
	SupportCodecs []string `json:"support_codecs"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// StreamStart notifies the client of the stream format and file
type StreamStart struct {
	Codec      string  `json:"codec"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	FrameRate  int     `json:"frame_rate"`
	FrameCount int     `json:"frame_count"`
	Duration   float64 `json:"duration"`
	SessionID  string  `json:"session_id"`
}

// StreamFrame announces the frame to present and for how long
type StreamFrame struct {
	Frame     int     `json:"frame"`
	Timestamp int64   `json:"timestamp"` // Stream microseconds the frame starts at
	Duration  float64 `json:"duration"`
	Regime    string  `json:"regime"`
}

// StreamEnd closes the stream
type StreamEnd struct {
	Frames  int   `json:"frames"`
	Samples int64 `json:"samples"`
}

// AppendAudioChunk appends a binary audio message to dst
func AppendAudioChunk(dst []byte, timestamp int64, payload []byte) []byte {
	dst = append(dst, AudioChunkType)
	dst = binary.BigEndian.AppendUint64(dst, uint64(timestamp))
	return append(dst, payload...)
}

// ParseAudioChunk splits a binary audio message
func ParseAudioChunk(data []byte) (timestamp int64, payload []byte, err error) {
	if len(data) < AudioChunkHeaderSize {
		return 0, nil, ErrShortChunk
	}
	if data[0] != AudioChunkType {
		return 0, nil, fmt.Errorf("protocol: unexpected binary message type %d", data[0])
	}
	return int64(binary.BigEndian.Uint64(data[1:9])), data[9:], nil
}
