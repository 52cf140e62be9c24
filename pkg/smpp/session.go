package smpp

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrSessionClosed is returned by Run and TimedCheck when the session has
// decided to close its connection.
var ErrSessionClosed = errors.New("session closed")

// BindState is the bind state of a session.
type BindState int

const (
	Unbound BindState = iota
	TransceiverBound
	TransmitterBound
	ReceiverBound
)

func (s BindState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case TransceiverBound:
		return "transceiver"
	case TransmitterBound:
		return "transmitter"
	case ReceiverBound:
		return "receiver"
	default:
		return fmt.Sprintf("BindState(%d)", int(s))
	}
}

// canSubmit reports whether submit_sm is legal in this state.
func (s BindState) canSubmit() bool {
	return s == TransceiverBound || s == TransmitterBound
}

// canReceive reports whether deliver_sm may be sent in this state.
func (s BindState) canReceive() bool {
	return s == TransceiverBound || s == ReceiverBound
}

var lastSessionID atomic.Uint64

// nextSessionID returns a process-wide unique, increasing id.
func nextSessionID() uint64 {
	return lastSessionID.Add(1)
}

// frameSink is where a session writes encoded PDUs.
type frameSink interface {
	Send(frame []byte) error
	Close() error
}

// Session holds the protocol state of one ESME connection. All methods are
// called from the server's control goroutine.
type Session struct {
	ID         uint64
	RemoteAddr string

	state    BindState
	systemID string
	version  uint8
	sequence uint32

	lastSeen      time.Time
	enquireSentAt time.Time
	closeAt       time.Time
	frames        FrameReader
	conn          frameSink
	config        *ServerConfig
	deps          *ServerDependencies
	logger        Logger
}

func newSession(id uint64, conn frameSink, remoteAddr string, config *ServerConfig, deps *ServerDependencies) *Session {
	s := &Session{
		ID:         id,
		RemoteAddr: remoteAddr,
		state:      Unbound,
		sequence:   1,
		conn:       conn,
		config:     config,
		deps:       deps,
	}
	s.logger = deps.Logger.WithFields(map[string]interface{}{
		"session_id":  id,
		"remote_addr": remoteAddr,
	})
	s.lastSeen = s.now()
	return s
}

// State returns the current bind state.
func (s *Session) State() BindState {
	return s.state
}

// SystemID returns the bound identity, or "" when unbound.
func (s *Session) SystemID() string {
	return s.systemID
}

// Version returns the interface version negotiated at bind.
func (s *Session) Version() uint8 {
	return s.version
}

// Feed appends bytes read from the connection.
func (s *Session) Feed(p []byte) {
	s.frames.Feed(p)
}

// Run decodes and handles every complete PDU currently buffered, in arrival
// order. A trailing partial PDU stays buffered for the next call.
func (s *Session) Run() error {
	for {
		pdu, err := s.frames.Next()
		if errors.Is(err, ErrNeedMoreData) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSessionClosed, err)
		}

		s.lastSeen = s.now()
		s.logPDU("PDU received", pdu.Header)
		s.deps.Metrics.IncCounter("pdus_total", map[string]string{
			"direction": "in",
			"command":   CommandName(pdu.Header.CommandID),
		})

		if err := s.handle(pdu); err != nil {
			return err
		}
	}
}

// TimedCheck runs the liveness monitor and then the delivery dispatcher.
func (s *Session) TimedCheck() error {
	now := s.now()
	if err := s.checkLiveness(now); err != nil {
		return err
	}
	return s.dispatch(now)
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) handle(pdu *PDU) error {
	h := pdu.Header
	switch h.CommandID {
	case CommandBindReceiver, CommandBindTransmitter, CommandBindTransceiver:
		return s.handleBind(pdu)
	case CommandUnbind:
		return s.handleUnbind(pdu)
	case CommandSubmitSM:
		return s.handleSubmit(pdu)
	case CommandEnquireLink:
		return s.respond(CommandEnquireLinkResp, h.SequenceNum, StatusOK, nil)
	case CommandEnquireLinkResp:
		s.enquireSentAt = time.Time{}
		return nil
	case CommandUnbindResp:
		s.unbind()
		return nil
	case CommandGenericNack, CommandDeliverSMResp:
		return nil
	}

	if IsResponse(h.CommandID) {
		s.logger.Debug("Ignoring unexpected response", "command_id", fmt.Sprintf("0x%08X", h.CommandID))
		return nil
	}
	return s.respond(CommandGenericNack, h.SequenceNum, StatusInvCmdID, nil)
}

func (s *Session) handleUnbind(pdu *PDU) error {
	if s.state == Unbound {
		return s.respond(CommandUnbindResp, pdu.Header.SequenceNum, StatusInvBnd, nil)
	}

	s.logger.Info("Session unbound", "system_id", s.systemID)
	s.unbind()
	return s.respond(CommandUnbindResp, pdu.Header.SequenceNum, StatusOK, nil)
}

func (s *Session) unbind() {
	s.state = Unbound
	s.systemID = ""
	s.version = 0
}

// respond answers a request, echoing its sequence number. Non-OK responses
// carry an empty body.
func (s *Session) respond(commandID, sequence, status uint32, body []byte) error {
	if status != StatusOK {
		body = nil
	}
	return s.write(commandID, sequence, status, body)
}

// send originates a request using the next outbound sequence number.
func (s *Session) send(commandID uint32, body []byte) error {
	sequence := s.sequence
	s.sequence++
	if s.sequence > 0x7FFFFFFF {
		s.sequence = 1
	}
	return s.write(commandID, sequence, StatusOK, body)
}

func (s *Session) write(commandID, sequence, status uint32, body []byte) error {
	header := PDUHeader{
		CommandLength: uint32(HeaderLength + len(body)),
		CommandID:     commandID,
		CommandStatus: status,
		SequenceNum:   sequence,
	}
	if err := s.conn.Send(EncodeFrame(sequence, commandID, status, body)); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrSessionClosed, CommandName(commandID), err)
	}

	s.logPDU("PDU sent", header)
	s.deps.Metrics.IncCounter("pdus_total", map[string]string{
		"direction": "out",
		"command":   CommandName(commandID),
	})
	return nil
}

func (s *Session) logPDU(msg string, h PDUHeader) {
	s.logger.Info(msg,
		"command", CommandName(h.CommandID),
		"seq", h.SequenceNum,
		"status", fmt.Sprintf("0x%08X", h.CommandStatus),
		"length", h.CommandLength)
}

func (s *Session) now() time.Time {
	return s.deps.Clock()
}
