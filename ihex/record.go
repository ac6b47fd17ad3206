package ihex

import "fmt"

// RecordType identifies the kind of an Intel HEX record.
type RecordType byte

// Record types understood by the decoder.
const (
	RecordData                   RecordType = 0x00
	RecordEOF                    RecordType = 0x01
	RecordExtendedSegmentAddress RecordType = 0x02
	RecordStartSegmentAddress    RecordType = 0x03
	RecordExtendedLinearAddress  RecordType = 0x04
	RecordStartLinearAddress     RecordType = 0x05
)

func (t RecordType) String() string {
	switch t {
	case RecordData:
		return "data"
	case RecordEOF:
		return "end of file"
	case RecordExtendedSegmentAddress:
		return "extended segment address"
	case RecordStartSegmentAddress:
		return "start segment address"
	case RecordExtendedLinearAddress:
		return "extended linear address"
	case RecordStartLinearAddress:
		return "start linear address"
	default:
		return fmt.Sprintf("type 0x%02X", byte(t))
	}
}

// IsExtendedAddress reports whether records of this type change the
// extended address base.
func (t RecordType) IsExtendedAddress() bool {
	return t == RecordExtendedSegmentAddress || t == RecordExtendedLinearAddress
}

// Record is a single decoded Intel HEX line.
type Record struct {
	// Type is the record type field
	Type RecordType

	// Length is the declared data byte count
	Length byte

	// Address is the 16-bit load offset
	Address uint16

	// Data holds the Length data bytes
	Data []byte

	// Checksum is the record checksum as it appeared in the line
	Checksum byte
}

// Value returns the 16-bit big-endian payload of an extended address record.
// It returns false when the record does not carry exactly two data bytes.
func (r *Record) Value() (uint16, bool) {
	if len(r.Data) != 2 {
		return 0, false
	}
	return uint16(r.Data[0])<<8 | uint16(r.Data[1]), true
}

// header is the fixed part of a record: everything up to the data field.
type header struct {
	length  byte
	address uint16
	typ     RecordType
}

// sum returns the 8-bit sum of the header bytes.
func (h header) sum() byte {
	return h.length + byte(h.address>>8) + byte(h.address) + byte(h.typ)
}
