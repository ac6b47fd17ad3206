package bootloader

import (
	"time"

	"github.com/moffa90/go-halfkay/protocol"
)

// Transport finds and opens USB devices.
//
// Open returns nil, nil when no device with the given identity is attached.
// A non-nil error means a matching device was seen but could not be used.
type Transport interface {
	Open(id protocol.DeviceID) (Handle, error)
}

// Handle is an open USB device.
type Handle interface {
	// Control sends a control transfer with the given data stage and
	// returns the number of bytes transferred.
	Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)

	// Close releases the claimed interface and the device.
	Close() error
}

// SerialRebooter reboots a board running USB serial firmware through the
// operating system's serial port driver instead of raw USB. It is used when
// the kernel driver prevents opening the device directly.
type SerialRebooter interface {
	RebootSerial(id protocol.DeviceID) error
}
