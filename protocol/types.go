package protocol

import "fmt"

// DeviceID is a USB vendor/product pair.
type DeviceID struct {
	Vendor  uint16
	Product uint16
}

func (d DeviceID) String() string {
	return fmt.Sprintf("%04x:%04x", d.Vendor, d.Product)
}

// Profile describes a supported microcontroller.
type Profile struct {
	// Name is the MCU or board name, matched case-insensitively
	Name string

	// CodeSize is the programmable flash size in bytes
	CodeSize int

	// BlockSize is the number of flash bytes carried by each write
	BlockSize int
}

// HeaderFormat selects how a block address is encoded.
type HeaderFormat int

const (
	// FormatSmall uses a 2-byte little-endian absolute address
	FormatSmall HeaderFormat = iota + 1

	// FormatMedium uses bits 8-23 of the address in 2 bytes
	FormatMedium

	// FormatLarge uses a 3-byte little-endian address padded to 64 bytes
	FormatLarge
)

func (f HeaderFormat) String() string {
	switch f {
	case FormatSmall:
		return "small"
	case FormatMedium:
		return "medium"
	case FormatLarge:
		return "large"
	default:
		return fmt.Sprintf("HeaderFormat(%d)", int(f))
	}
}

// HeaderSize returns the header length of the format.
func (f HeaderFormat) HeaderSize() int {
	if f == FormatLarge {
		return LongHeaderSize
	}
	return ShortHeaderSize
}

// Block is one encoded bootloader write.
type Block struct {
	// Addr is the flash address of the first payload byte
	Addr int

	// Header is the format-specific address header
	Header []byte

	// Payload holds exactly BlockSize flash bytes
	Payload []byte
}

// Len returns the write size: header plus payload.
func (b *Block) Len() int {
	return len(b.Header) + len(b.Payload)
}

// Bytes returns the block as sent on the wire.
func (b *Block) Bytes() []byte {
	buf := make([]byte, 0, b.Len())
	buf = append(buf, b.Header...)
	return append(buf, b.Payload...)
}
