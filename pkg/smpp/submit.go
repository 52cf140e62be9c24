package smpp

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oarkflow/smsc-simulator/internal/version"
)

const (
	// rejectedDestination is always refused with ESME_RSUBMITFAIL.
	rejectedDestination = "333"
	// minDestinationLength is the shortest destination_addr accepted.
	minDestinationLength = 8
)

// submitError is a submit_sm rejection carrying the status to return.
type submitError struct {
	status uint32
	reason string
	err    error
}

func (e *submitError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.reason, e.err)
	}
	return e.reason
}

func (e *submitError) Unwrap() error {
	return e.err
}

func reject(status uint32, reason string, err error) *submitError {
	return &submitError{status: status, reason: reason, err: err}
}

func (s *Session) handleSubmit(pdu *PDU) error {
	seq := pdu.Header.SequenceNum

	if !s.state.canSubmit() {
		s.logger.Warn("Submit rejected, invalid bind state", "state", s.state.String())
		s.countSubmit(StatusInvBnd)
		return s.respond(CommandSubmitSMResp, seq, StatusInvBnd, nil)
	}

	now := s.now()
	msg, deliverAt, err := s.acceptSubmit(pdu.Body, now)
	if err != nil {
		var se *submitError
		if !errors.As(err, &se) {
			se = reject(StatusSysErr, "internal error", err)
		}
		s.logger.Warn("Submit rejected",
			"system_id", s.systemID,
			"status", fmt.Sprintf("0x%08X", se.status),
			"reason", se.Error())
		s.countSubmit(se.status)
		return s.respond(CommandSubmitSMResp, seq, se.status, nil)
	}

	enqueueAt := deliverAt.Add(s.jitter())
	s.deps.Store.Put(s.systemID, enqueueAt, msg)

	s.logger.Info("Message accepted",
		"system_id", s.systemID,
		"message_id", msg.ID,
		"destination", msg.DestAddr.Addr,
		"deliver_at", enqueueAt)
	s.countSubmit(StatusOK)
	s.deps.Metrics.SetGauge("queued_messages", float64(s.deps.Store.Len()), nil)

	resp := SubmitSMResp{MessageID: msg.ID}
	return s.respond(CommandSubmitSMResp, seq, StatusOK, resp.Marshal())
}

// acceptSubmit validates a submit_sm body and returns the message to store
// together with its target delivery time.
func (s *Session) acceptSubmit(body []byte, now time.Time) (*Message, time.Time, error) {
	var req SubmitSM
	if err := req.Unmarshal(body); err != nil {
		return nil, time.Time{}, reject(StatusSubmitFail, "malformed submit_sm", err)
	}

	deliverAt, err := ParseScheduleTime(req.ScheduleDeliveryTime, now)
	if err != nil {
		return nil, time.Time{}, reject(StatusInvSched, "bad schedule_delivery_time", err)
	}
	if deliverAt.Before(now) {
		return nil, time.Time{}, reject(StatusInvSched, "schedule_delivery_time in the past", nil)
	}

	dest := req.DestAddr.Addr
	if dest == rejectedDestination {
		return nil, time.Time{}, reject(StatusSubmitFail, "destination rejected", nil)
	}
	if len(dest) < minDestinationLength {
		return nil, time.Time{}, reject(StatusInvDstAdr, "destination too short", nil)
	}

	if s.deps.Limiter != nil && !s.deps.Limiter.Allow(s.systemID, now) {
		return nil, time.Time{}, reject(StatusThrottled, "submit rate exceeded", nil)
	}

	var payload []byte
	if len(req.ShortMessage) == 0 {
		payload, _ = FindTLV(req.TLVs, TagMessagePayload)
	}

	msg := &Message{
		ID:                 newMessageID(version.SMPPVersion(s.version).MessageIDLength()),
		SourceAddr:         req.SourceAddr,
		DestAddr:           req.DestAddr,
		ShortMessage:       req.ShortMessage,
		Payload:            payload,
		DataCoding:         req.DataCoding,
		RegisteredDelivery: req.RegisteredDelivery,
		SubmitTime:         now,
		SessionID:          s.ID,
	}
	return msg, deliverAt, nil
}

// jitter returns a uniform delay in [DeliveryJitterMin, DeliveryJitterMax].
func (s *Session) jitter() time.Duration {
	lo, hi := s.config.DeliveryJitterMin, s.config.DeliveryJitterMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func (s *Session) countSubmit(status uint32) {
	s.deps.Metrics.IncCounter("submits_total", map[string]string{
		"status": fmt.Sprintf("0x%08X", status),
	})
}

// newMessageID returns length random lowercase hex characters. Only the
// first six octets of each UUID are used; octet 6 holds the version nibble
// and octet 8 the variant bits.
func newMessageID(length int) string {
	var sb strings.Builder
	for sb.Len() < length {
		id := uuid.New()
		sb.WriteString(hex.EncodeToString(id[:6]))
	}
	return sb.String()[:length]
}
