package smpp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderLength is the size of the fixed PDU header.
	HeaderLength = 16

	// MaxPDULength bounds command_length so a corrupt header cannot make a
	// session buffer an arbitrary amount of data.
	MaxPDULength = 64 * 1024
)

var (
	// ErrNeedMoreData is returned when the buffered bytes do not yet hold the
	// requested unit. It is not fatal; decoding resumes once more bytes arrive.
	ErrNeedMoreData = errors.New("need more data")

	// ErrInvalidCOctetString is returned when a C-octet string has no NUL
	// terminator within its bound or before the body ends.
	ErrInvalidCOctetString = errors.New("invalid c-octet string")

	// ErrFieldOverrun is returned when a fixed-size field runs past the body.
	ErrFieldOverrun = errors.New("field runs past end of body")

	// ErrInvalidCommandLength is returned for headers whose command_length is
	// below the header size or above MaxPDULength.
	ErrInvalidCommandLength = errors.New("invalid command length")
)

// PDU is one decoded frame. Body holds the raw command-specific bytes.
type PDU struct {
	Header PDUHeader
	Body   []byte
}

// PDUHeader represents the SMPP PDU header
type PDUHeader struct {
	CommandLength uint32
	CommandID     uint32
	CommandStatus uint32
	SequenceNum   uint32
}

// BodyLength returns the number of body bytes announced by the header.
func (h PDUHeader) BodyLength() int {
	return int(h.CommandLength) - HeaderLength
}

// Bytes encodes the PDU, recomputing command_length from the body.
func (p *PDU) Bytes() []byte {
	return EncodeFrame(p.Header.SequenceNum, p.Header.CommandID, p.Header.CommandStatus, p.Body)
}

// DecodeHeader reads the four big-endian header fields from the front of buf.
func DecodeHeader(buf []byte) (PDUHeader, error) {
	if len(buf) < HeaderLength {
		return PDUHeader{}, ErrNeedMoreData
	}

	return PDUHeader{
		CommandLength: binary.BigEndian.Uint32(buf[0:4]),
		CommandID:     binary.BigEndian.Uint32(buf[4:8]),
		CommandStatus: binary.BigEndian.Uint32(buf[8:12]),
		SequenceNum:   binary.BigEndian.Uint32(buf[12:16]),
	}, nil
}

// DecodeBody returns exactly length bytes from the front of buf.
func DecodeBody(buf []byte, length int) ([]byte, error) {
	if length < 0 {
		return nil, ErrInvalidCommandLength
	}
	if len(buf) < length {
		return nil, ErrNeedMoreData
	}

	body := make([]byte, length)
	copy(body, buf[:length])
	return body, nil
}

// EncodeFrame produces the 16-byte header followed by body.
func EncodeFrame(sequence, commandID, status uint32, body []byte) []byte {
	frame := make([]byte, HeaderLength, HeaderLength+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(HeaderLength+len(body)))
	binary.BigEndian.PutUint32(frame[4:8], commandID)
	binary.BigEndian.PutUint32(frame[8:12], status)
	binary.BigEndian.PutUint32(frame[12:16], sequence)
	return append(frame, body...)
}

// DecodeCOctetString scans body from cursor for a NUL terminator. The
// terminator must sit within maxLen bytes of cursor and inside the body.
// It returns the string and the cursor just past the terminator.
func DecodeCOctetString(body []byte, cursor, maxLen int) (string, int, error) {
	if cursor < 0 || cursor > len(body) {
		return "", cursor, ErrInvalidCOctetString
	}

	end := cursor + maxLen
	if end > len(body) {
		end = len(body)
	}

	for i := cursor; i < end; i++ {
		if body[i] == 0 {
			return string(body[cursor:i]), i + 1, nil
		}
	}

	return "", cursor, ErrInvalidCOctetString
}

// FrameReader accumulates inbound bytes for one connection and yields whole
// PDUs. A decoded header is kept across calls until its body has arrived, so
// a short read never discards a validated header.
type FrameReader struct {
	buf        []byte
	header     PDUHeader
	haveHeader bool
}

// Feed appends newly read bytes.
func (r *FrameReader) Feed(p []byte) {
	r.buf = append(r.buf, p...)
}

// Buffered returns the number of bytes not yet consumed.
func (r *FrameReader) Buffered() int {
	return len(r.buf)
}

// Next returns the next complete PDU, or ErrNeedMoreData if the buffered
// bytes end inside a header or body. Any other error is a framing error and
// the stream cannot be resynchronised.
func (r *FrameReader) Next() (*PDU, error) {
	if !r.haveHeader {
		header, err := DecodeHeader(r.buf)
		if err != nil {
			return nil, err
		}
		if header.CommandLength < HeaderLength || header.CommandLength > MaxPDULength {
			return nil, fmt.Errorf("%w: %d", ErrInvalidCommandLength, header.CommandLength)
		}
		r.consume(HeaderLength)
		r.header = header
		r.haveHeader = true
	}

	body, err := DecodeBody(r.buf, r.header.BodyLength())
	if err != nil {
		return nil, err
	}
	r.consume(len(body))
	r.haveHeader = false

	return &PDU{Header: r.header, Body: body}, nil
}

func (r *FrameReader) consume(n int) {
	remaining := copy(r.buf, r.buf[n:])
	r.buf = r.buf[:remaining]
}
