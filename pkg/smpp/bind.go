package smpp

import (
	"github.com/oarkflow/smsc-simulator/internal/version"
)

// bindTarget maps a bind command to the state it establishes.
func bindTarget(commandID uint32) BindState {
	switch commandID {
	case CommandBindTransceiver:
		return TransceiverBound
	case CommandBindTransmitter:
		return TransmitterBound
	default:
		return ReceiverBound
	}
}

func (s *Session) handleBind(pdu *PDU) error {
	respID := ResponseID(pdu.Header.CommandID)
	seq := pdu.Header.SequenceNum
	target := bindTarget(pdu.Header.CommandID)

	if s.state != Unbound {
		s.logger.Warn("Bind rejected, session already bound",
			"state", s.state.String(),
			"system_id", s.systemID)
		return s.respond(respID, seq, StatusInvBnd, nil)
	}

	var req BindRequest
	if err := req.Unmarshal(pdu.Body); err != nil {
		s.bindFailed(target, "", err.Error())
		return s.respond(respID, seq, StatusBindFail, nil)
	}
	if req.SystemID == "" {
		s.bindFailed(target, "", "empty system_id")
		return s.respond(respID, seq, StatusBindFail, nil)
	}

	v := version.SMPPVersion(req.InterfaceVersion)
	if target == TransceiverBound && !v.SupportsTransceiver() {
		s.bindFailed(target, req.SystemID, "transceiver requires interface version 0x34")
		return s.respond(respID, seq, StatusBindFail, nil)
	}

	s.state = target
	s.systemID = req.SystemID
	s.version = req.InterfaceVersion

	resp := BindResponse{SystemID: s.config.SystemID}
	if s.deps.Flags.Enabled(req.SystemID, FeatureSCInterfaceVersion) {
		resp.TLVs = append(resp.TLVs, TLV{Tag: TagSCInterfaceVersion, Value: []byte{InterfaceVersion34}})
	}

	s.logger.Info("Bind successful",
		"system_id", req.SystemID,
		"bind_type", target.String(),
		"interface_version", v.String())
	s.deps.Metrics.IncCounter("binds_total", map[string]string{
		"bind_type": target.String(),
		"result":    "ok",
	})

	return s.respond(respID, seq, StatusOK, resp.Marshal())
}

func (s *Session) bindFailed(target BindState, systemID, reason string) {
	s.logger.Warn("Bind failed",
		"system_id", systemID,
		"bind_type", target.String(),
		"reason", reason)
	s.deps.Metrics.IncCounter("binds_total", map[string]string{
		"bind_type": target.String(),
		"result":    "failed",
	})
}
