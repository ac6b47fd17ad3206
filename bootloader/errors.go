package bootloader

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-halfkay/protocol"
)

var (
	// ErrDeviceNotFound is matched by *DeviceNotFoundError.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrWriteFailed is matched by *WriteError.
	ErrWriteFailed = errors.New("write failed")

	// ErrNotOpen is returned when writing without an open bootloader.
	ErrNotOpen = errors.New("bootloader device is not open")
)

// DeviceNotFoundError indicates that no usable device with the identity is attached.
type DeviceNotFoundError struct {
	ID protocol.DeviceID

	// Err is the open error when a device was seen but could not be opened
	Err error
}

func (e *DeviceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to open device %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("no device %s found", e.ID)
}

func (e *DeviceNotFoundError) Is(target error) bool {
	return target == ErrDeviceNotFound
}

func (e *DeviceNotFoundError) Unwrap() error {
	return e.Err
}

// WriteError indicates that a block could not be sent before its timeout ran out.
type WriteError struct {
	Size     int
	Timeout  time.Duration
	Attempts int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write of %d bytes failed after %d attempts in %s: %v",
		e.Size, e.Attempts, e.Timeout, e.Err)
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// RebootError indicates that a reboot request was not delivered.
type RebootError struct {
	// Method is "hard" or "soft"
	Method string
	Err    error
}

func (e *RebootError) Error() string {
	return fmt.Sprintf("%s reboot failed: %v", e.Method, e.Err)
}

func (e *RebootError) Unwrap() error {
	return e.Err
}
