package smpp

import (
	"fmt"
	"time"

	"github.com/oarkflow/smsc-simulator/pkg/encoding"
)

const (
	receiptDateLayout = "0601021504"
	receiptTextLength = 20
	receiptStatus     = "DELIVRD"
)

var textEncoder = encoding.NewTextEncoder()

// ReceiptText renders the delivery receipt body for msg delivered at doneAt.
func ReceiptText(msg *Message, doneAt time.Time) string {
	return fmt.Sprintf("id:%s sub:001 dlvrd:001 submit date:%s done date:%s stat:%s err:000 text:%s",
		msg.ID,
		msg.SubmitTime.Format(receiptDateLayout),
		doneAt.Format(receiptDateLayout),
		receiptStatus,
		textEncoder.Prefix(msg.Text(), msg.DataCoding, receiptTextLength))
}

// newReceipt builds the deliver_sm carrying a receipt for msg. The body is
// GSM default alphabet, matching data_coding 0. Transceiver sessions also get
// the message_state and network_error_code parameters along with
// receipted_message_id.
func newReceipt(msg *Message, doneAt time.Time, withTLVs bool) *DeliverSM {
	d := &DeliverSM{
		SourceAddr:   msg.DestAddr,
		DestAddr:     msg.SourceAddr,
		EsmClass:     EsmClassDeliveryReceipt,
		DataCoding:   encoding.CodingDefault,
		ShortMessage: textEncoder.EncodeGSM7Bit(ReceiptText(msg, doneAt)),
	}
	if withTLVs {
		d.TLVs = []TLV{
			{Tag: TagMessageState, Value: []byte{MessageStateDelivered}},
			{Tag: TagNetworkErrorCode, Value: []byte{0, 0, 0}},
			{Tag: TagReceiptedMessageID, Value: append([]byte(msg.ID), 0)},
		}
	}
	return d
}

// newMobileOriginated builds the deliver_sm echoing msg back to the ESME.
// Text that arrived in message_payload goes back in message_payload.
func newMobileOriginated(msg *Message) *DeliverSM {
	d := &DeliverSM{
		SourceAddr:   msg.DestAddr,
		DestAddr:     msg.SourceAddr,
		EsmClass:     EsmClassDefault,
		DataCoding:   msg.DataCoding,
		ShortMessage: msg.ShortMessage,
	}
	if len(msg.ShortMessage) == 0 && msg.Payload != nil {
		d.TLVs = []TLV{{Tag: TagMessagePayload, Value: msg.Payload}}
	}
	return d
}
