package smpp

import (
	"encoding/binary"
	"fmt"
)

// BodyReader walks a PDU body field by field. Every read checks the
// remaining length before consuming anything.
type BodyReader struct {
	data   []byte
	offset int
}

// NewBodyReader creates a reader positioned at the start of data.
func NewBodyReader(data []byte) *BodyReader {
	return &BodyReader{data: data}
}

// COctetString reads a NUL-terminated string of at most maxLen bytes,
// terminator included.
func (r *BodyReader) COctetString(maxLen int) (string, error) {
	s, next, err := DecodeCOctetString(r.data, r.offset, maxLen)
	if err != nil {
		return "", err
	}
	r.offset = next
	return s, nil
}

// Byte reads a single octet.
func (r *BodyReader) Byte() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrFieldOverrun
	}
	b := r.data[r.offset]
	r.offset++
	return b, nil
}

// Uint16 reads a big-endian 2-octet integer.
func (r *BodyReader) Uint16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrFieldOverrun
	}
	v := binary.BigEndian.Uint16(r.data[r.offset:])
	r.offset += 2
	return v, nil
}

// Bytes reads exactly n octets.
func (r *BodyReader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrFieldOverrun
	}
	out := make([]byte, n)
	copy(out, r.data[r.offset:r.offset+n])
	r.offset += n
	return out, nil
}

// Skip advances past n octets.
func (r *BodyReader) Skip(n int) error {
	if n < 0 || r.Remaining() < n {
		return ErrFieldOverrun
	}
	r.offset += n
	return nil
}

// Remaining returns the number of unread octets.
func (r *BodyReader) Remaining() int {
	return len(r.data) - r.offset
}

// BodyWriter builds a PDU body.
type BodyWriter struct {
	buf []byte
}

// COctetString appends s followed by a NUL terminator.
func (w *BodyWriter) COctetString(s string) *BodyWriter {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return w
}

// Byte appends a single octet.
func (w *BodyWriter) Byte(b uint8) *BodyWriter {
	w.buf = append(w.buf, b)
	return w
}

// Bytes appends raw octets.
func (w *BodyWriter) Bytes(p []byte) *BodyWriter {
	w.buf = append(w.buf, p...)
	return w
}

// TLV appends a tag/length/value optional parameter.
func (w *BodyWriter) TLV(tag uint16, value []byte) *BodyWriter {
	w.buf = binary.BigEndian.AppendUint16(w.buf, tag)
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(value)))
	w.buf = append(w.buf, value...)
	return w
}

// Body returns the accumulated bytes.
func (w *BodyWriter) Body() []byte {
	return w.buf
}

// TLV is an optional parameter.
type TLV struct {
	Tag   uint16
	Value []byte
}

// readTLVs parses optional parameters until the body ends. A truncated
// trailing parameter ends parsing without error.
func readTLVs(r *BodyReader) []TLV {
	var tlvs []TLV
	for r.Remaining() >= 4 {
		tag, _ := r.Uint16()
		length, _ := r.Uint16()
		value, err := r.Bytes(int(length))
		if err != nil {
			break
		}
		tlvs = append(tlvs, TLV{Tag: tag, Value: value})
	}
	return tlvs
}

// FindTLV returns the value of the first parameter with the given tag.
func FindTLV(tlvs []TLV, tag uint16) ([]byte, bool) {
	for _, t := range tlvs {
		if t.Tag == tag {
			return t.Value, true
		}
	}
	return nil, false
}

// Address represents an SMPP address with TON and NPI
type Address struct {
	TON  uint8
	NPI  uint8
	Addr string
}

func (a *Address) read(r *BodyReader, field string) error {
	var err error
	if a.TON, err = r.Byte(); err != nil {
		return fmt.Errorf("%s_ton: %w", field, err)
	}
	if a.NPI, err = r.Byte(); err != nil {
		return fmt.Errorf("%s_npi: %w", field, err)
	}
	if a.Addr, err = r.COctetString(MaxAddressLength); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func (a *Address) write(w *BodyWriter) {
	w.Byte(a.TON).Byte(a.NPI).COctetString(a.Addr)
}

// BindRequest is the body shared by the three bind commands.
type BindRequest struct {
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion uint8
	AddrTON          uint8
	AddrNPI          uint8
	AddressRange     string
}

// Marshal serializes BindRequest to bytes
func (b *BindRequest) Marshal() []byte {
	w := &BodyWriter{}
	w.COctetString(b.SystemID).
		COctetString(b.Password).
		COctetString(b.SystemType).
		Byte(b.InterfaceVersion).
		Byte(b.AddrTON).
		Byte(b.AddrNPI).
		COctetString(b.AddressRange)
	return w.Body()
}

// Unmarshal parses system_id, password, system_type and interface_version.
// The address range fields that follow are optional here.
func (b *BindRequest) Unmarshal(data []byte) error {
	r := NewBodyReader(data)

	var err error
	if b.SystemID, err = r.COctetString(MaxSystemIDLength); err != nil {
		return fmt.Errorf("system_id: %w", err)
	}
	if b.Password, err = r.COctetString(MaxPasswordLength); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	if b.SystemType, err = r.COctetString(MaxSystemTypeLength); err != nil {
		return fmt.Errorf("system_type: %w", err)
	}
	if b.InterfaceVersion, err = r.Byte(); err != nil {
		return fmt.Errorf("interface_version: %w", err)
	}

	if r.Remaining() >= 2 {
		b.AddrTON, _ = r.Byte()
		b.AddrNPI, _ = r.Byte()
		b.AddressRange, _ = r.COctetString(MaxAddressRangeLength)
	}

	return nil
}

// BindResponse is the body of the three bind responses.
type BindResponse struct {
	SystemID string
	TLVs     []TLV
}

// Marshal serializes BindResponse to bytes
func (b *BindResponse) Marshal() []byte {
	w := &BodyWriter{}
	w.COctetString(b.SystemID)
	for _, t := range b.TLVs {
		w.TLV(t.Tag, t.Value)
	}
	return w.Body()
}

// Unmarshal deserializes bytes to BindResponse
func (b *BindResponse) Unmarshal(data []byte) error {
	r := NewBodyReader(data)

	var err error
	if b.SystemID, err = r.COctetString(MaxSystemIDLength); err != nil {
		return fmt.Errorf("system_id: %w", err)
	}
	b.TLVs = readTLVs(r)
	return nil
}

// SubmitSM represents a submit_sm PDU
type SubmitSM struct {
	ServiceType          string
	SourceAddr           Address
	DestAddr             Address
	EsmClass             uint8
	ProtocolID           uint8
	PriorityFlag         uint8
	ScheduleDeliveryTime string
	ValidityPeriod       string
	RegisteredDelivery   uint8
	ReplaceIfPresentFlag uint8
	DataCoding           uint8
	SMDefaultMsgID       uint8
	ShortMessage         []byte
	TLVs                 []TLV
}

// Marshal serializes SubmitSM to bytes
func (s *SubmitSM) Marshal() []byte {
	w := &BodyWriter{}
	w.COctetString(s.ServiceType)
	s.SourceAddr.write(w)
	s.DestAddr.write(w)
	w.Byte(s.EsmClass).
		Byte(s.ProtocolID).
		Byte(s.PriorityFlag).
		COctetString(s.ScheduleDeliveryTime).
		COctetString(s.ValidityPeriod).
		Byte(s.RegisteredDelivery).
		Byte(s.ReplaceIfPresentFlag).
		Byte(s.DataCoding).
		Byte(s.SMDefaultMsgID).
		Byte(uint8(len(s.ShortMessage))).
		Bytes(s.ShortMessage)
	for _, t := range s.TLVs {
		w.TLV(t.Tag, t.Value)
	}
	return w.Body()
}

// Unmarshal parses the mandatory fields in wire order and stops at the first
// field that exceeds its bound or runs past the body.
func (s *SubmitSM) Unmarshal(data []byte) error {
	r := NewBodyReader(data)

	var err error
	if s.ServiceType, err = r.COctetString(MaxServiceTypeLength); err != nil {
		return fmt.Errorf("service_type: %w", err)
	}
	if err = s.SourceAddr.read(r, "source_addr"); err != nil {
		return err
	}
	if err = s.DestAddr.read(r, "destination_addr"); err != nil {
		return err
	}
	if s.EsmClass, err = r.Byte(); err != nil {
		return fmt.Errorf("esm_class: %w", err)
	}
	if s.ProtocolID, err = r.Byte(); err != nil {
		return fmt.Errorf("protocol_id: %w", err)
	}
	if s.PriorityFlag, err = r.Byte(); err != nil {
		return fmt.Errorf("priority_flag: %w", err)
	}
	if s.ScheduleDeliveryTime, err = r.COctetString(MaxTimeLength); err != nil {
		return fmt.Errorf("schedule_delivery_time: %w", err)
	}
	if s.ValidityPeriod, err = r.COctetString(MaxTimeLength); err != nil {
		return fmt.Errorf("validity_period: %w", err)
	}
	if s.RegisteredDelivery, err = r.Byte(); err != nil {
		return fmt.Errorf("registered_delivery: %w", err)
	}
	if s.ReplaceIfPresentFlag, err = r.Byte(); err != nil {
		return fmt.Errorf("replace_if_present_flag: %w", err)
	}
	if s.DataCoding, err = r.Byte(); err != nil {
		return fmt.Errorf("data_coding: %w", err)
	}
	if s.SMDefaultMsgID, err = r.Byte(); err != nil {
		return fmt.Errorf("sm_default_msg_id: %w", err)
	}

	smLength, err := r.Byte()
	if err != nil {
		return fmt.Errorf("sm_length: %w", err)
	}
	if s.ShortMessage, err = r.Bytes(int(smLength)); err != nil {
		return fmt.Errorf("short_message: %w", err)
	}

	s.TLVs = readTLVs(r)
	return nil
}

// DeliverSM shares the submit_sm body layout.
type DeliverSM SubmitSM

// Marshal serializes DeliverSM to bytes
func (d *DeliverSM) Marshal() []byte {
	return (*SubmitSM)(d).Marshal()
}

// Unmarshal deserializes bytes to DeliverSM
func (d *DeliverSM) Unmarshal(data []byte) error {
	return (*SubmitSM)(d).Unmarshal(data)
}

// IsReceipt reports whether the esm_class marks a delivery receipt.
func (d *DeliverSM) IsReceipt() bool {
	return d.EsmClass&0x3C == EsmClassDeliveryReceipt
}

// SubmitSMResp represents a submit_sm_resp PDU
type SubmitSMResp struct {
	MessageID string
}

// Marshal serializes SubmitSMResp to bytes
func (s *SubmitSMResp) Marshal() []byte {
	w := &BodyWriter{}
	return w.COctetString(s.MessageID).Body()
}

// Unmarshal deserializes bytes to SubmitSMResp
func (s *SubmitSMResp) Unmarshal(data []byte) error {
	r := NewBodyReader(data)

	var err error
	if s.MessageID, err = r.COctetString(MaxMessageIDLength); err != nil {
		return fmt.Errorf("message_id: %w", err)
	}
	return nil
}
