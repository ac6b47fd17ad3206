package bootloader

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-halfkay/protocol"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateClosed means no bootloader handle is held
	StateClosed State = iota

	// StateSearching means discovery is in progress
	StateSearching

	// StateFound means the bootloader is open and idle
	StateFound

	// StateProgramming means blocks are being written
	StateProgramming

	// StateBooting means the boot block has been sent
	StateBooting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StateProgramming:
		return "programming"
	case StateBooting:
		return "booting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session owns the bootloader handle of one programming run.
//
// A Session is not safe for concurrent use.
type Session struct {
	transport Transport
	handle    Handle
	state     State
	config    Config

	// sleep is replaced in tests
	sleep func(time.Duration)
}

// NewSession returns a closed Session using transport.
// Only the logger, serial rebooter and retry tick of the options apply.
func NewSession(transport Transport, opts ...Option) *Session {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newSession(transport, cfg)
}

func newSession(transport Transport, cfg Config) *Session {
	return &Session{
		transport: transport,
		config:    cfg,
		sleep:     time.Sleep,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Open looks for the bootloader and opens it, closing any previous handle.
// It returns false with a nil error when no bootloader is attached.
func (s *Session) Open() (bool, error) {
	s.Close()
	s.state = StateSearching

	h, err := s.transport.Open(protocol.Bootloader)
	if err != nil {
		s.state = StateClosed
		return false, &DeviceNotFoundError{ID: protocol.Bootloader, Err: err}
	}
	if h == nil {
		s.state = StateClosed
		return false, nil
	}

	s.handle = h
	s.state = StateFound
	s.logDebug("Opened bootloader", "device", protocol.Bootloader.String())
	return true, nil
}

// Write sends payload to the bootloader. Failed attempts are retried every
// retry tick; each failure consumes one tick of the timeout. The transfer
// timeout of an attempt is the time still remaining.
func (s *Session) Write(payload []byte, timeout time.Duration) error {
	if s.handle == nil {
		return ErrNotOpen
	}
	if s.state == StateFound {
		s.state = StateProgramming
	}

	tick := s.config.RetryTick
	remaining := timeout
	attempts := 0
	var lastErr error
	for remaining > 0 {
		attempts++
		_, err := s.handle.Control(
			protocol.RequestTypeClassInterfaceOut,
			protocol.RequestSetReport,
			protocol.ReportValue,
			protocol.InterfaceIndex,
			payload,
			remaining,
		)
		if err == nil {
			return nil
		}
		lastErr = err
		s.sleep(tick)
		remaining -= tick
	}

	if lastErr == nil {
		lastErr = errors.New("timeout exhausted before first attempt")
	}
	s.logError("Block write failed", "size", len(payload), "attempts", attempts, "error", lastErr)
	return &WriteError{
		Size:     len(payload),
		Timeout:  timeout,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// Boot sends the boot block, making the bootloader start the application.
func (s *Session) Boot(writeSize int) error {
	if s.handle == nil {
		return ErrNotOpen
	}
	s.logInfo("Booting")

	err := s.Write(protocol.BootBlock(writeSize), protocol.BootTimeout)
	s.state = StateBooting
	if err != nil {
		return fmt.Errorf("failed to boot: %w", err)
	}
	return nil
}

// Close releases the bootloader handle. Closing a closed session is a no-op.
func (s *Session) Close() {
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			s.logDebug("Close failed", "error", err)
		}
		s.handle = nil
	}
	s.state = StateClosed
}

// HardReboot asks the rebootor to reset the board into the bootloader.
func (s *Session) HardReboot() error {
	h, err := s.transport.Open(protocol.Rebootor)
	if err == nil && h == nil {
		err = &DeviceNotFoundError{ID: protocol.Rebootor}
	}
	if err != nil {
		return &RebootError{Method: "hard", Err: err}
	}
	defer s.closeHandle(h)

	_, err = h.Control(
		protocol.RequestTypeClassInterfaceOut,
		protocol.RequestSetReport,
		protocol.ReportValue,
		protocol.InterfaceIndex,
		protocol.RebootCommand,
		protocol.HardRebootTimeout,
	)
	if err != nil {
		return &RebootError{Method: "hard", Err: err}
	}

	s.logInfo("Hard reboot performed")
	return nil
}

// SoftReboot asks USB serial firmware to reboot into the bootloader by
// setting its line coding to 134 baud. When the device cannot be driven
// directly and a SerialRebooter is configured, the serial port path is tried.
func (s *Session) SoftReboot() error {
	err := s.softRebootUSB()
	if err == nil {
		s.logInfo("Soft reboot performed")
		return nil
	}

	if s.config.SerialRebooter == nil {
		return &RebootError{Method: "soft", Err: err}
	}

	s.logDebug("USB soft reboot failed, trying serial port", "error", err)
	if serr := s.config.SerialRebooter.RebootSerial(protocol.Serial); serr != nil {
		return &RebootError{Method: "soft", Err: errors.Join(err, serr)}
	}

	s.logInfo("Soft reboot performed", "via", "serial port")
	return nil
}

func (s *Session) softRebootUSB() error {
	h, err := s.transport.Open(protocol.Serial)
	if err == nil && h == nil {
		err = &DeviceNotFoundError{ID: protocol.Serial}
	}
	if err != nil {
		return err
	}
	defer s.closeHandle(h)

	_, err = h.Control(
		protocol.RequestTypeClassInterfaceOut,
		protocol.RequestSetLineCoding,
		0,
		protocol.InterfaceIndex,
		protocol.SoftRebootLineCoding,
		protocol.SoftRebootTimeout,
	)
	return err
}

func (s *Session) closeHandle(h Handle) {
	if err := h.Close(); err != nil {
		s.logDebug("Close failed", "error", err)
	}
}

func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
