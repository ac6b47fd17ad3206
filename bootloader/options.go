package bootloader

import (
	"time"

	"github.com/moffa90/go-halfkay/protocol"
)

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// SerialRebooter is tried when a USB soft reboot fails (optional)
	SerialRebooter SerialRebooter

	// WaitForDevice keeps polling for the bootloader instead of failing
	WaitForDevice bool

	// HardReboot asks the rebootor to reset the board if the bootloader is not found
	HardReboot bool

	// SoftReboot asks USB serial firmware to reboot if the bootloader is not found
	SoftReboot bool

	// RebootAfterProgramming starts the new application once all blocks are written
	RebootAfterProgramming bool

	// PollInterval is the delay between attempts to find the bootloader
	PollInterval time.Duration

	// FirstBlockTimeout bounds the first block write, which erases the chip
	FirstBlockTimeout time.Duration

	// BlockTimeout bounds every later block write
	BlockTimeout time.Duration

	// RetryTick is the delay between failed write attempts
	RetryTick time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		RebootAfterProgramming: true,
		PollInterval:           protocol.DevicePollInterval,
		FirstBlockTimeout:      protocol.FirstBlockTimeout,
		BlockTimeout:           protocol.BlockTimeout,
		RetryTick:              protocol.RetryTick,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track programming progress.
//
// Example:
//
//	prog := bootloader.New(transport, profile,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSerialRebooter sets the fallback used when a USB soft reboot fails.
func WithSerialRebooter(r SerialRebooter) Option {
	return func(c *Config) {
		c.SerialRebooter = r
	}
}

// WithWaitForDevice makes the programmer wait for the bootloader to appear.
//
// Example:
//
//	prog := bootloader.New(transport, profile, bootloader.WithWaitForDevice(true))
func WithWaitForDevice(wait bool) Option {
	return func(c *Config) {
		c.WaitForDevice = wait
	}
}

// WithHardReboot enables resetting the board through the rebootor when the
// bootloader is not found. Implies waiting for the device.
func WithHardReboot(enable bool) Option {
	return func(c *Config) {
		c.HardReboot = enable
	}
}

// WithSoftReboot enables asking USB serial firmware to reboot into the
// bootloader when it is not found. Implies waiting for the device.
func WithSoftReboot(enable bool) Option {
	return func(c *Config) {
		c.SoftReboot = enable
	}
}

// WithRebootAfterProgramming enables or disables booting the new application.
// Default is true.
func WithRebootAfterProgramming(reboot bool) Option {
	return func(c *Config) {
		c.RebootAfterProgramming = reboot
	}
}

// WithPollInterval sets the delay between attempts to find the bootloader.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}

// WithBlockTimeouts sets the write timeouts for the first block and for all
// later blocks.
//
// Example:
//
//	prog := bootloader.New(transport, profile,
//	    bootloader.WithBlockTimeouts(10*time.Second, time.Second),
//	)
func WithBlockTimeouts(first, rest time.Duration) Option {
	return func(c *Config) {
		if first > 0 {
			c.FirstBlockTimeout = first
		}
		if rest > 0 {
			c.BlockTimeout = rest
		}
	}
}

// WithRetryTick sets the delay between failed write attempts.
func WithRetryTick(tick time.Duration) Option {
	return func(c *Config) {
		if tick > 0 {
			c.RetryTick = tick
		}
	}
}
