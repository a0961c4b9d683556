// Package msghost implements the Chrome native messaging host: length-
// prefixed JSON frames over stdio, a command dispatcher, and edge-triggered
// status pushes to the extension.
//
// https://developer.chrome.com/docs/extensions/develop/concepts/native-messaging
package msghost

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds incoming messages. Extension commands are tiny; a
// larger length prefix means the stream is corrupt.
const maxFrameSize = 1 << 20

// Message is a command frame from the extension.
type Message struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers one Message, correlated by ID.
type Response struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Push is an unsolicited status frame sent between responses.
type Push struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ReadMessage reads one framed message: a 4-byte native-endian length
// prefix followed by that many bytes of JSON. A short read is a framing
// error; the stream cannot be resynchronized after one.
func ReadMessage(r io.Reader) (*Message, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}

	length := binary.NativeEndian.Uint32(lengthBytes[:])
	if length > maxFrameSize {
		return nil, fmt.Errorf("message length %d exceeds limit", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// WriteFrame writes v as one framed JSON message.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize frame: %w", err)
	}

	var lengthBytes [4]byte
	binary.NativeEndian.PutUint32(lengthBytes[:], uint32(len(payload)))
	if _, err := w.Write(lengthBytes[:]); err != nil {
		return fmt.Errorf("failed to write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame body: %w", err)
	}
	return nil
}
