// Package bootloader provides a high-level API for programming boards that
// run the PJRC HalfKay USB HID bootloader (Teensy and compatibles).
//
// # Overview
//
// This package orchestrates the complete firmware programming sequence:
//   - Reading an Intel HEX file into a sparse image before touching USB
//   - Finding the bootloader, optionally rebooting the board into it
//   - Writing the first block (which erases the chip) and every non-empty block
//   - Starting the new application
//
// # Basic Usage
//
//	profile, err := protocol.LookupProfile("TEENSY40")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := bootloader.New(usbdev.NewTransport(), profile,
//	    bootloader.WithWaitForDevice(true),
//	)
//	if err := prog.Program(context.Background(), "blink.hex"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Entering the Bootloader
//
// WithHardReboot sends "reboot" to a rebootor device (16c0:0477), and
// WithSoftReboot sets a 134 baud line coding on a board running USB serial
// firmware (16c0:0483). Both are attempted once and then the programmer
// polls every 250 ms for the bootloader. When the device had to be waited
// for, the hex file is read again before writing.
//
// # Progress Tracking
//
//	prog := bootloader.New(transport, profile,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% at 0x%X\n", p.Phase, p.Percentage, p.Address)
//	    }),
//	)
//
// # Error Handling
//
//   - *ihex.ParseError: the hex file is invalid; nothing was sent
//   - *DeviceNotFoundError: no bootloader and no wait mode (matches ErrDeviceNotFound)
//   - *WriteError: a block was not accepted in time (matches ErrWriteFailed)
//   - *protocol.UnsupportedBlockConfigurationError: the profile has no block format
//
// A failed write is not retried as a whole; the run stops.
//
// # Hardware Independence
//
// The package talks to USB through the Transport and Handle interfaces.
// Package usbdev implements them with libusb; tests and simulators provide
// their own.
package bootloader
