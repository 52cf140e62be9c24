package smpp

// Interface versions
const (
	InterfaceVersion33 uint8 = 0x33
	InterfaceVersion34 uint8 = 0x34
)

// Command IDs
const (
	CommandGenericNack     uint32 = 0x80000000
	CommandBindReceiver    uint32 = 0x00000001
	CommandBindTransmitter uint32 = 0x00000002
	CommandQuerySM         uint32 = 0x00000003
	CommandSubmitSM        uint32 = 0x00000004
	CommandDeliverSM       uint32 = 0x00000005
	CommandUnbind          uint32 = 0x00000006
	CommandReplaceSM       uint32 = 0x00000007
	CommandCancelSM        uint32 = 0x00000008
	CommandBindTransceiver uint32 = 0x00000009
	CommandOutbind         uint32 = 0x0000000B
	CommandEnquireLink     uint32 = 0x00000015
	CommandSubmitMulti     uint32 = 0x00000021
	CommandDataSM          uint32 = 0x00000103

	// Response command IDs (original command ID | 0x80000000)
	CommandBindReceiverResp    uint32 = 0x80000001
	CommandBindTransmitterResp uint32 = 0x80000002
	CommandSubmitSMResp        uint32 = 0x80000004
	CommandDeliverSMResp       uint32 = 0x80000005
	CommandUnbindResp          uint32 = 0x80000006
	CommandBindTransceiverResp uint32 = 0x80000009
	CommandEnquireLinkResp     uint32 = 0x80000015

	responseMask uint32 = 0x80000000
)

// Command Status
const (
	StatusOK         uint32 = 0x00000000
	StatusInvMsgLen  uint32 = 0x00000001
	StatusInvCmdLen  uint32 = 0x00000002
	StatusInvCmdID   uint32 = 0x00000003
	StatusInvBnd     uint32 = 0x00000004
	StatusAlreadyBnd uint32 = 0x00000005
	StatusSysErr     uint32 = 0x00000008
	StatusInvSrcAdr  uint32 = 0x0000000A
	StatusInvDstAdr  uint32 = 0x0000000B
	StatusInvMsgID   uint32 = 0x0000000C
	StatusBindFail   uint32 = 0x0000000D
	StatusInvPaswd   uint32 = 0x0000000E
	StatusInvSysID   uint32 = 0x0000000F
	StatusMsgQFul    uint32 = 0x00000014
	StatusSubmitFail uint32 = 0x00000045
	StatusThrottled  uint32 = 0x00000058
	StatusInvSched   uint32 = 0x00000061
	StatusInvExpiry  uint32 = 0x00000062
	StatusUnknownErr uint32 = 0x000000FF
)

// ESM Class values
const (
	EsmClassDefault         = 0x00
	EsmClassDeliveryReceipt = 0x04
	EsmClassUDHI            = 0x40
)

// Data Coding Scheme
const (
	DataCodingDefault  = 0x00
	DataCodingIA5      = 0x01
	DataCodingBinary   = 0x02
	DataCodingISO88591 = 0x03
	DataCodingISO88595 = 0x06
	DataCodingISO88598 = 0x07
	DataCodingUCS2     = 0x08
)

// TON (Type of Number)
const (
	TONUnknown       = 0x00
	TONInternational = 0x01
	TONNational      = 0x02
	TONAlphanumeric  = 0x05
)

// NPI (Numbering Plan Indicator)
const (
	NPIUnknown = 0x00
	NPIISDN    = 0x01
)

// Registered Delivery
const (
	RegisteredDeliveryNone           = 0x00
	RegisteredDeliverySuccessFailure = 0x01
	RegisteredDeliveryFailure        = 0x02
	registeredDeliveryReceiptMask    = 0x03
)

// Message State (for delivery receipts)
const (
	MessageStateEnroute       = 0x01
	MessageStateDelivered     = 0x02
	MessageStateExpired       = 0x03
	MessageStateDeleted       = 0x04
	MessageStateUndeliverable = 0x05
	MessageStateAccepted      = 0x06
	MessageStateUnknown       = 0x07
	MessageStateRejected      = 0x08
)

// Optional Parameter Tags
const (
	TagReceiptedMessageID = 0x001E
	TagSCInterfaceVersion = 0x0210
	TagNetworkErrorCode   = 0x0423
	TagMessagePayload     = 0x0424
	TagMessageState       = 0x0427
)

// Maximum field lengths, NUL terminator included
const (
	MaxSystemIDLength     = 16
	MaxPasswordLength     = 9
	MaxSystemTypeLength   = 13
	MaxAddressRangeLength = 41
	MaxServiceTypeLength  = 6
	MaxAddressLength      = 21
	MaxTimeLength         = 17
	MaxMessageIDLength    = 65
	MaxShortMessageLength = 254
)

// CommandName returns the protocol name of a command ID for log lines.
func CommandName(id uint32) string {
	switch id {
	case CommandGenericNack:
		return "generic_nack"
	case CommandBindReceiver:
		return "bind_receiver"
	case CommandBindReceiverResp:
		return "bind_receiver_resp"
	case CommandBindTransmitter:
		return "bind_transmitter"
	case CommandBindTransmitterResp:
		return "bind_transmitter_resp"
	case CommandBindTransceiver:
		return "bind_transceiver"
	case CommandBindTransceiverResp:
		return "bind_transceiver_resp"
	case CommandSubmitSM:
		return "submit_sm"
	case CommandSubmitSMResp:
		return "submit_sm_resp"
	case CommandDeliverSM:
		return "deliver_sm"
	case CommandDeliverSMResp:
		return "deliver_sm_resp"
	case CommandUnbind:
		return "unbind"
	case CommandUnbindResp:
		return "unbind_resp"
	case CommandEnquireLink:
		return "enquire_link"
	case CommandEnquireLinkResp:
		return "enquire_link_resp"
	case CommandQuerySM:
		return "query_sm"
	case CommandReplaceSM:
		return "replace_sm"
	case CommandCancelSM:
		return "cancel_sm"
	case CommandOutbind:
		return "outbind"
	case CommandSubmitMulti:
		return "submit_multi"
	case CommandDataSM:
		return "data_sm"
	default:
		return "unknown"
	}
}

// IsResponse reports whether the command ID carries the response bit.
func IsResponse(id uint32) bool {
	return id&responseMask != 0
}

// ResponseID returns the response command ID matching a request command ID.
func ResponseID(id uint32) uint32 {
	return id | responseMask
}
