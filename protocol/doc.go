// Package protocol implements the wire format of the HalfKay USB bootloader
// used by Teensy boards.
//
// # Overview
//
// HalfKay is a HID-class bootloader. The host programs flash by sending
// fixed-size blocks as HID SET_REPORT control transfers; there are no
// responses beyond the transfer status. This package provides:
//   - Device identities (bootloader, rebootor, USB serial)
//   - The built-in table of supported MCU profiles
//   - Block encoding for the three header formats
//   - The boot block that makes the bootloader jump to the application
//
// # Block Formats
//
// The header format depends on the profile's block and flash size:
//
//	Small  (block <= 256, flash < 64 KiB):   [ADDR_L][ADDR_H][DATA(block)]
//	Medium (block == 256, flash >= 64 KiB):  [ADDR>>8 & 0xFF][ADDR>>16 & 0xFF][DATA(block)]
//	Large  (block == 512 or 1024):           [ADDR_L][ADDR_M][ADDR_H][0 x 61][DATA(block)]
//
// Any other combination is rejected with ErrUnsupportedBlockConfiguration.
//
// # Control Transfer
//
// Every bootloader write is:
//
//	bmRequestType = 0x21 (class, interface, host-to-device)
//	bRequest      = 0x09 (HID SET_REPORT)
//	wValue        = 0x0200
//	wIndex        = 0
//
// # Usage
//
//	profile, err := protocol.LookupProfile("teensy40")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	block, err := protocol.EncodeBlock(img, 0, profile)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// send block.Bytes() with protocol.RequestSetReport
package protocol
