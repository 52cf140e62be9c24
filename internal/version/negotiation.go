package version

import (
	"fmt"
)

// SMPPVersion is the interface_version byte sent in a bind.
type SMPPVersion uint8

const (
	// SMPPVersion33 represents SMPP v3.3
	SMPPVersion33 SMPPVersion = 0x33
	// SMPPVersion34 represents SMPP v3.4
	SMPPVersion34 SMPPVersion = 0x34
)

const (
	// messageIDLength is the message_id length handed to 3.4 binds.
	messageIDLength = 16
	// legacyMessageIDLength fits the 9-octet message_id of SMPP 3.3.
	legacyMessageIDLength = 8
)

// String returns the string representation of the version
func (v SMPPVersion) String() string {
	switch {
	case v == SMPPVersion33:
		return "3.3"
	case v == SMPPVersion34:
		return "3.4"
	case v > SMPPVersion34:
		return fmt.Sprintf("3.4+ (%02x)", uint8(v))
	default:
		return fmt.Sprintf("legacy (%02x)", uint8(v))
	}
}

// SupportsFeature checks if the version supports a specific feature
func (v SMPPVersion) SupportsFeature(feature string) bool {
	switch feature {
	case "bind_transceiver", "tlv", "long_message_id":
		return v >= SMPPVersion34
	case "enquire_link", "unbind", "submit_sm", "deliver_sm":
		return true
	default:
		return false
	}
}

// SupportsTransceiver reports whether a bind_transceiver is legal at v.
func (v SMPPVersion) SupportsTransceiver() bool {
	return v.SupportsFeature("bind_transceiver")
}

// MessageIDLength returns the number of hex characters in message ids
// generated for sessions bound at v.
func (v SMPPVersion) MessageIDLength() int {
	if v.SupportsFeature("long_message_id") {
		return messageIDLength
	}
	return legacyMessageIDLength
}
