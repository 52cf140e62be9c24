package smpp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// readBufferSize is the size of each read issued by a connection reader.
const readBufferSize = 4096

// readEvent carries bytes or a read error from a connection reader to the
// control goroutine.
type readEvent struct {
	id   uint64
	data []byte
	err  error
}

// outboundQueueSize bounds the frames waiting for a connection's writer.
const outboundQueueSize = 256

var (
	// ErrOutboundQueueFull is returned by Send when the peer has stopped
	// draining its socket.
	ErrOutboundQueueFull = errors.New("outbound queue full")
	// ErrConnectionClosed is returned by Send after Close.
	ErrConnectionClosed = errors.New("connection closed")
)

// ServerConnection wraps an accepted net.Conn. Send only queues the frame;
// a writer goroutine owns the socket writes so the control goroutine never
// blocks on a slow peer.
type ServerConnection struct {
	id           uint64
	netConn      net.Conn
	writeTimeout time.Duration

	outbound  chan []byte
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewServerConnection creates a new server connection. Call writeLoop to
// start delivering queued frames.
func NewServerConnection(id uint64, netConn net.Conn, writeTimeout time.Duration) *ServerConnection {
	return &ServerConnection{
		id:           id,
		netConn:      netConn,
		writeTimeout: writeTimeout,
		outbound:     make(chan []byte, outboundQueueSize),
		stopped:      make(chan struct{}),
	}
}

// Send queues one encoded frame without blocking.
func (sc *ServerConnection) Send(frame []byte) error {
	select {
	case <-sc.stopped:
		return ErrConnectionClosed
	default:
	}

	select {
	case sc.outbound <- frame:
		return nil
	default:
		return ErrOutboundQueueFull
	}
}

// Close stops accepting frames. The writer flushes what is already queued
// and then closes the socket.
func (sc *ServerConnection) Close() error {
	sc.closeOnce.Do(func() { close(sc.stopped) })
	return nil
}

// RemoteAddr returns the remote address
func (sc *ServerConnection) RemoteAddr() string {
	return sc.netConn.RemoteAddr().String()
}

// writeLoop writes queued frames until Close. A write failure is reported
// on events and ends the loop.
func (sc *ServerConnection) writeLoop(events chan<- readEvent, done <-chan struct{}) {
	defer sc.netConn.Close()

	for {
		select {
		case frame := <-sc.outbound:
			if err := sc.write(frame); err != nil {
				select {
				case events <- readEvent{id: sc.id, err: err}:
				case <-done:
				}
				return
			}
		case <-sc.stopped:
			sc.flush()
			return
		}
	}
}

func (sc *ServerConnection) flush() {
	for {
		select {
		case frame := <-sc.outbound:
			if sc.write(frame) != nil {
				return
			}
		default:
			return
		}
	}
}

func (sc *ServerConnection) write(frame []byte) error {
	if sc.writeTimeout > 0 {
		if err := sc.netConn.SetWriteDeadline(time.Now().Add(sc.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if _, err := sc.netConn.Write(frame); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

// readLoop forwards everything read from conn to events until the read fails.
// The final event carries the error. It exits early when done is closed.
func readLoop(id uint64, conn net.Conn, events chan<- readEvent, done <-chan struct{}) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case events <- readEvent{id: id, data: data}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case events <- readEvent{id: id, err: err}:
			case <-done:
			}
			return
		}
	}
}

// adminConn is a connection on the administrative port. It is accepted and
// tracked but carries no protocol; inbound bytes are discarded.
type adminConn struct {
	id      uint64
	netConn net.Conn
}

func (a *adminConn) Close() error {
	return a.netConn.Close()
}
