package smpp

import (
	"strings"
	"time"
)

// Message is an accepted submit waiting in the store for delivery.
type Message struct {
	ID                 string
	SourceAddr         Address
	DestAddr           Address
	ShortMessage       []byte
	Payload            []byte // message_payload TLV value, set when ShortMessage is empty
	DataCoding         uint8
	RegisteredDelivery uint8
	SubmitTime         time.Time
	SessionID          uint64
}

// WantsReceipt reports whether the submitter asked for a delivery receipt.
func (m *Message) WantsReceipt() bool {
	return m.RegisteredDelivery&registeredDeliveryReceiptMask == RegisteredDeliverySuccessFailure
}

// Text returns the user data, from short_message or message_payload.
func (m *Message) Text() []byte {
	if len(m.ShortMessage) > 0 {
		return m.ShortMessage
	}
	return m.Payload
}

// LoopsBackTo reports whether the destination address contains identity.
// Such messages are echoed back to the ESME as mobile-originated traffic.
func (m *Message) LoopsBackTo(identity string) bool {
	return identity != "" && strings.Contains(m.DestAddr.Addr, identity)
}
