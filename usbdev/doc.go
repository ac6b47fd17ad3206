// Package usbdev connects the bootloader package to real hardware.
//
// Transport opens devices by vendor and product ID through libusb (via
// github.com/google/gousb), claims interface 0 of configuration 1 and sends
// control transfers with a per-call timeout.
//
// SerialRebooter is the soft reboot path for boards whose USB serial
// interface is held by the operating system's CDC driver: it finds the
// board's serial port and opens it at 134 baud, which makes Teensy serial
// firmware jump into the bootloader.
//
// Example:
//
//	transport := usbdev.NewTransport()
//	defer transport.Close()
//
//	prog := bootloader.New(transport, profile,
//	    bootloader.WithSerialRebooter(usbdev.NewSerialRebooter()),
//	)
package usbdev
