package protocol

import (
	"errors"
	"fmt"
)

// ErrUnsupportedBlockConfiguration is matched by *UnsupportedBlockConfigurationError.
var ErrUnsupportedBlockConfiguration = errors.New("unsupported block configuration")

// UnsupportedBlockConfigurationError indicates a profile whose code and block
// sizes match none of the bootloader header formats.
type UnsupportedBlockConfigurationError struct {
	CodeSize  int
	BlockSize int
}

func (e *UnsupportedBlockConfigurationError) Error() string {
	return fmt.Sprintf("unsupported block configuration: code size %d, block size %d",
		e.CodeSize, e.BlockSize)
}

func (e *UnsupportedBlockConfigurationError) Is(target error) bool {
	return target == ErrUnsupportedBlockConfiguration
}

// UnknownMCUError indicates a profile name missing from the table.
type UnknownMCUError struct {
	Name string
}

func (e *UnknownMCUError) Error() string {
	return fmt.Sprintf("unknown mcu type %q", e.Name)
}
