package usbdev

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/moffa90/go-halfkay/bootloader"
	"github.com/moffa90/go-halfkay/protocol"
)

var _ bootloader.SerialRebooter = (*SerialRebooter)(nil)

// ErrNoSerialPort is returned when no serial port belongs to the device.
var ErrNoSerialPort = errors.New("no serial port for device")

// SerialRebooter implements bootloader.SerialRebooter with the operating
// system's serial port driver.
type SerialRebooter struct {
	listPorts func() ([]*enumerator.PortDetails, error)
	openPort  func(name string, mode *serial.Mode) (serial.Port, error)
}

// NewSerialRebooter returns a SerialRebooter using the system's serial ports.
func NewSerialRebooter() *SerialRebooter {
	return &SerialRebooter{
		listPorts: enumerator.GetDetailedPortsList,
		openPort:  serial.Open,
	}
}

// RebootSerial opens the serial port of the device at 134 baud and closes
// it again. Setting that line coding is the reboot request.
func (r *SerialRebooter) RebootSerial(id protocol.DeviceID) error {
	ports, err := r.listPorts()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}

	name, err := FindPort(ports, id)
	if err != nil {
		return err
	}

	mode := &serial.Mode{
		BaudRate: protocol.SoftRebootBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := r.openPort(name, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	return port.Close()
}

// FindPort returns the name of the first USB serial port whose vendor and
// product IDs match id.
func FindPort(ports []*enumerator.PortDetails, id protocol.DeviceID) (string, error) {
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		if matchID(p.VID, id.Vendor) && matchID(p.PID, id.Product) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w %s", ErrNoSerialPort, id)
}

// matchID compares an enumerator hex ID string such as "16C0" or "0x16c0".
func matchID(s string, want uint16) bool {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	return err == nil && uint16(v) == want
}
