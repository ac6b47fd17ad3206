package protocol

import "time"

// USB identities. All HalfKay-related devices use the PJRC vendor ID.
const (
	// VendorID is the PJRC USB vendor ID (0x16C0)
	VendorID = 0x16C0

	// BootloaderProductID identifies a board running HalfKay (0x0478)
	BootloaderProductID = 0x0478

	// RebootorProductID identifies the external rebootor used for hard reboots (0x0477)
	RebootorProductID = 0x0477

	// SerialProductID identifies a board running a USB serial sketch (0x0483)
	SerialProductID = 0x0483
)

// Device identities as DeviceID values.
var (
	Bootloader = DeviceID{Vendor: VendorID, Product: BootloaderProductID}
	Rebootor   = DeviceID{Vendor: VendorID, Product: RebootorProductID}
	Serial     = DeviceID{Vendor: VendorID, Product: SerialProductID}
)

// Control transfer parameters.
const (
	// RequestTypeClassInterfaceOut is bmRequestType for class requests to an interface
	RequestTypeClassInterfaceOut = 0x21

	// RequestSetReport is the HID SET_REPORT request used for block writes,
	// boot and hard reboot
	RequestSetReport = 0x09

	// RequestSetLineCoding is the CDC SET_LINE_CODING request used for soft reboot
	RequestSetLineCoding = 0x20

	// ReportValue is wValue for SET_REPORT (output report, ID 0)
	ReportValue = 0x0200

	// InterfaceIndex is wIndex for every transfer
	InterfaceIndex = 0
)

// Header sizes per block format.
const (
	// ShortHeaderSize is the header length of the small and medium formats
	ShortHeaderSize = 2

	// LongHeaderSize is the header length of the large format:
	// 3 address bytes followed by 61 zero bytes
	LongHeaderSize = 64

	// longHeaderAddressBytes is the number of address bytes in a long header
	longHeaderAddressBytes = 3
)

// Profile classification limits.
const (
	// SmallCodeSizeLimit is the flash size below which 16-bit absolute addresses fit
	SmallCodeSizeLimit = 0x10000

	// MaxBlockSize is the largest block size any profile uses
	MaxBlockSize = 1024
)

// BootMarkerSize is the number of 0xFF bytes that start a boot block.
const BootMarkerSize = 3

// RebootCommand is sent to the rebootor to reset the attached board into HalfKay.
var RebootCommand = []byte("reboot")

// SoftRebootLineCoding is a CDC line coding of 134 baud, 1 stop bit, no parity,
// 8 data bits. Teensy USB serial firmware reboots into HalfKay when it sees it.
var SoftRebootLineCoding = []byte{0x86, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08}

// SoftRebootBaudRate is the baud rate encoded in SoftRebootLineCoding.
const SoftRebootBaudRate = 134

// Timeouts and intervals.
const (
	// FirstBlockTimeout bounds the first block write, which also erases the chip
	FirstBlockTimeout = 5 * time.Second

	// BlockTimeout bounds every later block write
	BlockTimeout = 500 * time.Millisecond

	// BootTimeout bounds the boot block write
	BootTimeout = 500 * time.Millisecond

	// HardRebootTimeout bounds the rebootor command
	HardRebootTimeout = 100 * time.Millisecond

	// SoftRebootTimeout bounds the line coding request
	SoftRebootTimeout = 10 * time.Second

	// RetryTick is the delay between failed write attempts; it is also the
	// amount each failure consumes from the write timeout
	RetryTick = 10 * time.Millisecond

	// DevicePollInterval is the delay between attempts to find the bootloader
	DevicePollInterval = 250 * time.Millisecond
)
