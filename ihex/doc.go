// Package ihex parses Intel HEX firmware files into a sparse in-memory image.
//
// # Intel HEX Record Format
//
// Every line of an Intel HEX file is one record, hex-encoded after a ':' prefix:
//
//	:[Length(2)][Address(4)][Type(2)][Data(2*Length)][Checksum(2)]
//
// Example data record:
//
//	:0300300002337A1E
//	  03 = Length (3 data bytes)
//	  0030 = Address (16-bit, big-endian)
//	  00 = Record Type (data)
//	  02337A = Data
//	  1E = Checksum
//
// The checksum is the two's complement of the sum of all preceding bytes, so
// the 8-bit sum of every byte in a valid record, checksum included, is zero.
//
// # Supported Record Types
//
//   - 00 Data: bytes stored at address + extended base
//   - 01 End Of File: reading stops
//   - 02 Extended Segment Address: base = value << 4
//   - 04 Extended Linear Address: base = value << 16
//
// Start address records (03, 05) are validated and ignored.
//
// Extended address records with a bad length or checksum are accepted as
// no-ops instead of failing the whole file. Some toolchains emit such
// records and the bootloader host tools have always tolerated them.
//
// # Usage
//
// Load a file into an image sized for the whole flash address space:
//
//	img := ihex.NewImage()
//	n, err := ihex.Load("blink.hex", img, ihex.Target{CodeSize: 2031616, BlockSize: 1024})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("read %d bytes\n", n)
//
//	block := img.Data(0, 1024) // unwritten bytes read as 0xFF
//
// # Error Handling
//
// Load and LoadReader return a *ParseError carrying the line number. Match
// the cause with errors.Is:
//   - ErrMalformedRecord: bad prefix, non-hex digit, line too short
//   - ErrChecksumMismatch: record checksum does not validate
//   - ErrAddressOverflow: record extends past MaxMemorySize
package ihex
