// Package traceset provides acquisition collaborators for the engine: a gob
// stream format for recorded trace sets, an in-memory set and a file-backed
// container that streams a recorded set from disk.
package traceset

import (
	"encoding/gob"
	"fmt"
	"io"

	"lrawht/engine"
)

func init() {
	// Register types for gob encoding
	gob.Register(Header{})
	gob.Register(Record{})
}

// MessageType defines message types of the trace stream
type MessageType int

const (
	MsgHeader MessageType = iota
	MsgRecord
	MsgDone
	MsgError
)

// Message is one element of the trace stream
type Message struct {
	Type    MessageType
	Payload interface{}
}

// Header describes every record in the stream
type Header struct {
	SampleLength int
	// BlockSize is the number of plaintext bytes stored per trace.
	BlockSize int
	Tiles     []engine.Tile
}

// Record is a batch of traces measured on one tile. Plaintext holds Rows
// blocks of BlockSize bytes, Samples holds Rows traces of SampleLength
// samples, both row-major.
type Record struct {
	Tile      engine.Tile
	Rows      int
	Plaintext []byte
	Samples   []float64
}

// Check validates the record against the header of its stream.
func (r *Record) Check(h *Header) error {
	if r.Rows <= 0 {
		return fmt.Errorf("record has %d rows", r.Rows)
	}
	if len(r.Plaintext) != r.Rows*h.BlockSize {
		return fmt.Errorf("record has %d plaintext bytes, want %d", len(r.Plaintext), r.Rows*h.BlockSize)
	}
	if len(r.Samples) != r.Rows*h.SampleLength {
		return fmt.Errorf("record has %d samples, want %d", len(r.Samples), r.Rows*h.SampleLength)
	}
	return nil
}

// Protocol handles the trace stream encoding
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler. Either side may be nil when
// only reading or only writing.
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	p := &Protocol{}
	if w != nil {
		p.encoder = gob.NewEncoder(w)
	}
	if r != nil {
		p.decoder = gob.NewDecoder(r)
	}
	return p
}

// Send sends a message
func (p *Protocol) Send(msg *Message) error {
	return p.encoder.Encode(msg)
}

// Receive receives a message
func (p *Protocol) Receive() (*Message, error) {
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendHeader sends the stream header
func (p *Protocol) SendHeader(h Header) error {
	return p.Send(&Message{Type: MsgHeader, Payload: h})
}

// SendRecord sends one batch record
func (p *Protocol) SendRecord(r Record) error {
	return p.Send(&Message{Type: MsgRecord, Payload: r})
}

// SendDone signals the end of the stream
func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

// SendError aborts the stream with an error message
func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// ReceiveHeader receives the stream header
func (p *Protocol) ReceiveHeader() (*Header, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	if msg.Type == MsgError {
		return nil, fmt.Errorf("remote error: %v", msg.Payload)
	}
	if msg.Type != MsgHeader {
		return nil, fmt.Errorf("expected header message, got %d", msg.Type)
	}
	h, ok := msg.Payload.(Header)
	if !ok {
		return nil, fmt.Errorf("invalid header payload type")
	}
	if h.SampleLength <= 0 || h.BlockSize <= 0 {
		return nil, fmt.Errorf("invalid header: %d samples, block size %d", h.SampleLength, h.BlockSize)
	}
	return &h, nil
}

// ReceiveRecord receives the next record, or io.EOF at the end of the stream
func (p *Protocol) ReceiveRecord() (*Record, error) {
	msg, err := p.Receive()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if msg.Type == MsgError {
		return nil, fmt.Errorf("remote error: %v", msg.Payload)
	}
	if msg.Type == MsgDone {
		return nil, io.EOF
	}
	if msg.Type != MsgRecord {
		return nil, fmt.Errorf("expected record message, got %d", msg.Type)
	}
	r, ok := msg.Payload.(Record)
	if !ok {
		return nil, fmt.Errorf("invalid record payload type")
	}
	return &r, nil
}
