package ihex

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Constants for Intel HEX parsing.
const (
	// MinRecordLength is the length of a record with no data bytes:
	// ':' + length(2) + address(4) + type(2) + checksum(2)
	MinRecordLength = 11

	// dataOffset is the index of the first data digit in a record line
	dataOffset = 9

	// flexSPIBase is where i.MX RT parts map external flash. Their hex
	// files are linked at this address while the bootloader expects offsets.
	flexSPIBase = 0x60000000

	flexSPIMinCodeSize  = 1048576
	flexSPIMinBlockSize = 1024
)

// Target describes the device a file is being loaded for. It only affects
// how extended linear addresses inside the FlexSPI window are interpreted;
// the zero Target disables that correction.
type Target struct {
	// CodeSize is the device flash size in bytes
	CodeSize int

	// BlockSize is the bootloader write block size in bytes
	BlockSize int
}

// remap subtracts the FlexSPI offset from base when the target maps its
// flash there and base falls inside the mapped window.
func (t Target) remap(base uint32) uint32 {
	if t.CodeSize > flexSPIMinCodeSize && t.BlockSize >= flexSPIMinBlockSize &&
		base >= flexSPIBase && uint64(base) < flexSPIBase+uint64(t.CodeSize) {
		return base - flexSPIBase
	}
	return base
}

// Load reads an Intel HEX file from path into img. img is reset first.
// Returns the number of data bytes read.
//
// Example:
//
//	img := ihex.NewImage()
//	n, err := ihex.Load("firmware.hex", img, ihex.Target{})
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string, img *Image, target Target) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f, img, target)
}

// LoadReader reads Intel HEX records from r into img until an End Of File
// record or the end of the stream. img is reset first.
// Blank lines are skipped. Returns the number of data bytes read.
func LoadReader(r io.Reader, img *Image, target Target) (int, error) {
	img.Reset()
	dec := NewDecoder(img, target)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if err := dec.ParseLine(line); err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = lineNum
			}
			return 0, err
		}

		if dec.Done() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	return dec.ByteCount(), nil
}

// Decoder applies hex records to an Image, tracking the extended address
// base and the number of data bytes seen.
type Decoder struct {
	image     *Image
	target    Target
	base      uint32
	byteCount int
	done      bool
}

// NewDecoder returns a Decoder writing into img.
// The image is not reset; use LoadReader for whole files.
func NewDecoder(img *Image, target Target) *Decoder {
	return &Decoder{
		image:  img,
		target: target,
	}
}

// ParseLine decodes one record line and applies it.
//
// Data records are stored at address + extended base. End Of File marks the
// decoder done. Extended address records update the base only when they
// carry two bytes and a valid checksum; otherwise they are ignored.
func (d *Decoder) ParseLine(line string) error {
	h, err := parseHeader(line)
	if err != nil {
		return err
	}

	end := uint64(h.address) + uint64(d.base) + uint64(h.length)
	if end >= uint64(d.image.Capacity()) {
		return &ParseError{
			Err: ErrAddressOverflow,
			Detail: fmt.Sprintf("record at 0x%X with %d bytes exceeds 0x%X",
				uint64(h.address)+uint64(d.base), h.length, d.image.Capacity()),
		}
	}

	rec, err := parseBody(h, line)

	switch h.typ {
	case RecordData:
		if err != nil {
			return err
		}
		if err := d.image.Set(int(d.base)+int(rec.Address), rec.Data); err != nil {
			return err
		}
		d.byteCount += len(rec.Data)

	case RecordEOF:
		if err != nil {
			return err
		}
		d.done = true

	case RecordExtendedSegmentAddress, RecordExtendedLinearAddress:
		if err != nil {
			return nil
		}
		value, ok := rec.Value()
		if !ok {
			return nil
		}
		if h.typ == RecordExtendedSegmentAddress {
			d.base = uint32(value) << 4
		} else {
			d.base = d.target.remap(uint32(value) << 16)
		}

	default:
		if err != nil {
			return err
		}
	}

	return nil
}

// Done reports whether an End Of File record has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

// ByteCount returns the total number of data bytes decoded so far.
// Bytes written twice are counted twice.
func (d *Decoder) ByteCount() int {
	return d.byteCount
}

// Base returns the current extended address base.
func (d *Decoder) Base() uint32 {
	return d.base
}

// ParseRecord strictly decodes a single record line without applying it.
// Unlike Decoder.ParseLine, malformed extended address records are errors.
func ParseRecord(line string) (*Record, error) {
	h, err := parseHeader(line)
	if err != nil {
		return nil, err
	}
	return parseBody(h, line)
}

// parseHeader decodes the length, address and type fields and checks that
// the line is long enough to hold the declared data and checksum.
func parseHeader(line string) (header, error) {
	if line == "" || line[0] != ':' {
		return header{}, malformed("record must start with ':'")
	}

	if len(line) < MinRecordLength {
		return header{}, malformed("record too short: got %d characters, minimum is %d",
			len(line), MinRecordLength)
	}

	raw, err := hex.DecodeString(line[1:dataOffset])
	if err != nil {
		return header{}, malformed("invalid hex data: %v", err)
	}

	h := header{
		length:  raw[0],
		address: uint16(raw[1])<<8 | uint16(raw[2]),
		typ:     RecordType(raw[3]),
	}

	if need := MinRecordLength + 2*int(h.length); len(line) < need {
		return header{}, malformed("record too short for %d data bytes: got %d characters, need %d",
			h.length, len(line), need)
	}

	return h, nil
}

// parseBody decodes the data bytes and checksum that follow h.
// Characters after the checksum are ignored.
func parseBody(h header, line string) (*Record, error) {
	end := dataOffset + 2*int(h.length)

	data, err := hex.DecodeString(line[dataOffset:end])
	if err != nil {
		return nil, malformed("invalid hex data: %v", err)
	}

	raw, err := hex.DecodeString(line[end : end+2])
	if err != nil {
		return nil, malformed("invalid checksum field: %v", err)
	}
	checksum := raw[0]

	sum := h.sum()
	for _, b := range data {
		sum += b
	}
	if sum+checksum != 0 {
		return nil, &ParseError{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("got 0x%02X, expected 0x%02X", checksum, ^sum+1),
		}
	}

	return &Record{
		Type:     h.typ,
		Length:   h.length,
		Address:  h.address,
		Data:     data,
		Checksum: checksum,
	}, nil
}

// Checksum computes the Intel HEX checksum of the given record bytes
// (length, address, type and data): the two's complement of their sum.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1 // 2's complement
}
