package ihex

import "fmt"

const (
	// MaxMemorySize is the size of the address space an Image can hold.
	MaxMemorySize = 0x1000000

	// ErasedByte is the value of flash that has not been programmed.
	ErasedByte = 0xFF

	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

type page struct {
	data [pageSize]byte
	mask [pageSize]bool
}

// Image is a sparse firmware image covering MaxMemorySize bytes.
// Every address holds a byte and a flag recording whether the byte was
// explicitly written. Unwritten bytes read as ErasedByte.
//
// Storage is allocated in 4 KiB pages on first write.
type Image struct {
	pages   map[int]*page
	written int
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{pages: make(map[int]*page)}
}

// Capacity returns the size of the address space.
func (m *Image) Capacity() int {
	return MaxMemorySize
}

// Reset marks every byte unwritten.
func (m *Image) Reset() {
	clear(m.pages)
	m.written = 0
}

// Written returns the number of distinct addresses that hold data.
func (m *Image) Written() int {
	return m.written
}

// Set stores data at addr and marks those bytes written.
func (m *Image) Set(addr int, data []byte) error {
	if addr < 0 || addr+len(data) > m.Capacity() {
		return &ParseError{
			Err:    ErrAddressOverflow,
			Detail: fmt.Sprintf("0x%X+%d outside image", addr, len(data)),
		}
	}

	for i, b := range data {
		a := addr + i
		p := m.pages[a>>pageShift]
		if p == nil {
			p = new(page)
			m.pages[a>>pageShift] = p
		}
		off := a & pageMask
		if !p.mask[off] {
			p.mask[off] = true
			m.written++
		}
		p.data[off] = b
	}

	return nil
}

// at returns the byte at addr and whether it was written.
func (m *Image) at(addr int) (byte, bool) {
	p := m.pages[addr>>pageShift]
	if p == nil || !p.mask[addr&pageMask] {
		return ErasedByte, false
	}
	return p.data[addr&pageMask], true
}

// BytesInRange reports whether any address in [begin, end] was written.
// Bounds outside the image yield false.
func (m *Image) BytesInRange(begin, end int) bool {
	if begin < 0 || begin >= m.Capacity() || end < 0 || end >= m.Capacity() {
		return false
	}

	for addr := begin; addr <= end; {
		next := (addr | pageMask) + 1
		if p := m.pages[addr>>pageShift]; p != nil {
			stop := min(end, next-1)
			for a := addr; a <= stop; a++ {
				if p.mask[a&pageMask] {
					return true
				}
			}
		}
		addr = next
	}

	return false
}

// IsBlank reports whether every written byte among the length bytes from
// addr equals ErasedByte. Unwritten bytes never make a range non-blank, and
// an addr outside the image is blank.
func (m *Image) IsBlank(addr, length int) bool {
	if addr < 0 || addr > m.Capacity() {
		return true
	}

	for ; length > 0 && addr < m.Capacity(); addr, length = addr+1, length-1 {
		if b, ok := m.at(addr); ok && b != ErasedByte {
			return false
		}
	}

	return true
}

// Data returns length bytes starting at addr, with ErasedByte in place of
// unwritten bytes. A range reaching past the image returns only ErasedByte.
func (m *Image) Data(addr, length int) []byte {
	if length < 0 {
		return nil
	}

	buf := make([]byte, length)
	if addr < 0 || addr+length > m.Capacity() {
		for i := range buf {
			buf[i] = ErasedByte
		}
		return buf
	}

	for i := range buf {
		buf[i], _ = m.at(addr + i)
	}

	return buf
}
