package protocol

// DataSource supplies flash contents for a block. Unwritten bytes must be 0xFF.
type DataSource interface {
	Data(addr, length int) []byte
}

// Classify returns the header format used for the profile.
//
// Example:
//
//	format, err := protocol.Classify(profile)
//	if err != nil {
//	    return err // profile table and bootloader disagree
//	}
func Classify(p Profile) (HeaderFormat, error) {
	switch {
	case p.BlockSize > 0 && p.BlockSize <= 256 && p.CodeSize < SmallCodeSizeLimit:
		return FormatSmall, nil
	case p.BlockSize == 256:
		return FormatMedium, nil
	case p.BlockSize == 512 || p.BlockSize == 1024:
		return FormatLarge, nil
	default:
		return 0, &UnsupportedBlockConfigurationError{
			CodeSize:  p.CodeSize,
			BlockSize: p.BlockSize,
		}
	}
}

// WriteSize returns the transfer length for the profile's blocks.
// It does not validate the profile; boot blocks use it before any block is encoded.
func WriteSize(p Profile) int {
	if p.BlockSize == 512 || p.BlockSize == 1024 {
		return p.BlockSize + LongHeaderSize
	}
	return p.BlockSize + ShortHeaderSize
}

// EncodeBlock builds the block that programs BlockSize bytes at addr.
//
// Block structure (large format):
//
//	[ADDR_L][ADDR_M][ADDR_H][0x00 x 61][DATA(BlockSize)]
func EncodeBlock(src DataSource, addr int, p Profile) (*Block, error) {
	format, err := Classify(p)
	if err != nil {
		return nil, err
	}

	header := make([]byte, format.HeaderSize())
	switch format {
	case FormatSmall:
		header[0] = byte(addr)
		header[1] = byte(addr >> 8)
	case FormatMedium:
		header[0] = byte(addr >> 8)
		header[1] = byte(addr >> 16)
	case FormatLarge:
		for i := 0; i < longHeaderAddressBytes; i++ {
			header[i] = byte(addr >> (8 * i))
		}
	}

	return &Block{
		Addr:    addr,
		Header:  header,
		Payload: src.Data(addr, p.BlockSize),
	}, nil
}

// BootBlock returns the write that makes HalfKay start the application:
// writeSize zero bytes with the first three set to 0xFF.
func BootBlock(writeSize int) []byte {
	buf := make([]byte, writeSize)
	for i := 0; i < BootMarkerSize && i < writeSize; i++ {
		buf[i] = 0xFF
	}
	return buf
}
