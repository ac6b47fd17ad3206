package usbdev

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/moffa90/go-halfkay/bootloader"
	"github.com/moffa90/go-halfkay/protocol"
)

const (
	configNumber    = 1
	interfaceNumber = 0
	altSetting      = 0
)

var _ bootloader.Transport = (*Transport)(nil)

// Transport implements bootloader.Transport on top of libusb.
type Transport struct {
	ctx *gousb.Context
}

// Option configures a Transport.
type Option func(*gousb.Context)

// WithDebugLevel sets the libusb debug level (0 to 4).
func WithDebugLevel(level int) Option {
	return func(ctx *gousb.Context) {
		ctx.Debug(level)
	}
}

// NewTransport initializes libusb. Close must be called when done.
func NewTransport(opts ...Option) *Transport {
	ctx := gousb.NewContext()
	for _, opt := range opts {
		opt(ctx)
	}
	return &Transport{ctx: ctx}
}

// Open opens the first attached device with the given identity and claims
// its interface. It returns nil, nil when no such device is attached.
func (t *Transport) Open(id protocol.DeviceID) (bootloader.Handle, error) {
	dev, err := t.ctx.OpenDeviceWithVIDPID(gousb.ID(id.Vendor), gousb.ID(id.Product))
	if err != nil {
		if dev != nil {
			_ = dev.Close()
		}
		return nil, fmt.Errorf("open %s: %w", id, err)
	}
	if dev == nil {
		return nil, nil
	}

	if err := dev.SetAutoDetach(true); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("detach kernel driver from %s: %w", id, err)
	}

	cfg, err := dev.Config(configNumber)
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("select configuration of %s: %w", id, err)
	}

	intf, err := cfg.Interface(interfaceNumber, altSetting)
	if err != nil {
		_ = cfg.Close()
		_ = dev.Close()
		return nil, fmt.Errorf("claim interface of %s: %w", id, err)
	}

	return &handle{dev: dev, cfg: cfg, intf: intf}, nil
}

// Close releases libusb.
func (t *Transport) Close() error {
	return t.ctx.Close()
}

// handle is an open device with its interface claimed.
type handle struct {
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
}

func (h *handle) Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.dev.ControlTimeout = timeout
	return h.dev.Control(requestType, request, value, index, data)
}

func (h *handle) Close() error {
	h.intf.Close()
	return errors.Join(h.cfg.Close(), h.dev.Close())
}
