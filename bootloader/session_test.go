package bootloader

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/moffa90/go-halfkay/protocol"
)

// Transfer records one control transfer seen by MockTransport
type Transfer struct {
	ID          protocol.DeviceID
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Data        []byte
	Timeout     time.Duration
}

// MockTransport simulates attached USB devices for testing
type MockTransport struct {
	present   map[protocol.DeviceID]bool
	openErrs  map[protocol.DeviceID]error
	opens     []protocol.DeviceID
	transfers []Transfer
	closes    int

	// controlErrs are returned by successive Control calls; nil means success
	controlErrs []error
	// controlErr is returned once controlErrs is drained
	controlErr error
	// onControl runs after a successful transfer is recorded
	onControl func(Transfer)
	// onOpen runs before each open is resolved
	onOpen func(protocol.DeviceID)
}

func NewMockTransport(present ...protocol.DeviceID) *MockTransport {
	m := &MockTransport{
		present:  make(map[protocol.DeviceID]bool),
		openErrs: make(map[protocol.DeviceID]error),
	}
	for _, id := range present {
		m.present[id] = true
	}
	return m
}

func (m *MockTransport) Open(id protocol.DeviceID) (Handle, error) {
	m.opens = append(m.opens, id)
	if m.onOpen != nil {
		m.onOpen(id)
	}
	if err := m.openErrs[id]; err != nil {
		return nil, err
	}
	if !m.present[id] {
		return nil, nil
	}
	return &mockHandle{transport: m, id: id}, nil
}

// writes returns the transfers sent to the bootloader
func (m *MockTransport) writes() []Transfer {
	var out []Transfer
	for _, tr := range m.transfers {
		if tr.ID == protocol.Bootloader {
			out = append(out, tr)
		}
	}
	return out
}

type mockHandle struct {
	transport *MockTransport
	id        protocol.DeviceID
}

func (h *mockHandle) Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	m := h.transport
	tr := Transfer{
		ID:          h.id,
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
		Data:        append([]byte(nil), data...),
		Timeout:     timeout,
	}
	m.transfers = append(m.transfers, tr)

	err := m.controlErr
	if len(m.controlErrs) > 0 {
		err = m.controlErrs[0]
		m.controlErrs = m.controlErrs[1:]
	}
	if err == nil && m.onControl != nil {
		m.onControl(tr)
	}
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (h *mockHandle) Close() error {
	h.transport.closes++
	return nil
}

// MockSerialRebooter records serial reboot requests
type MockSerialRebooter struct {
	calls []protocol.DeviceID
	err   error
}

func (r *MockSerialRebooter) RebootSerial(id protocol.DeviceID) error {
	r.calls = append(r.calls, id)
	return r.err
}

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// newTestSession returns a session that records sleeps instead of sleeping
func newTestSession(transport Transport, opts ...Option) (*Session, *[]time.Duration) {
	s := NewSession(transport, opts...)
	var sleeps []time.Duration
	s.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return s, &sleeps
}

func TestSessionOpen(t *testing.T) {
	tests := []struct {
		name      string
		transport *MockTransport
		wantOK    bool
		wantErr   bool
		wantState State
	}{
		{
			name:      "bootloader present",
			transport: NewMockTransport(protocol.Bootloader),
			wantOK:    true,
			wantState: StateFound,
		},
		{
			name:      "nothing attached",
			transport: NewMockTransport(),
			wantState: StateClosed,
		},
		{
			name:      "only serial firmware attached",
			transport: NewMockTransport(protocol.Serial),
			wantState: StateClosed,
		},
		{
			name: "open error",
			transport: func() *MockTransport {
				m := NewMockTransport(protocol.Bootloader)
				m.openErrs[protocol.Bootloader] = errors.New("access denied")
				return m
			}(),
			wantErr:   true,
			wantState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(tt.transport)

			ok, err := s.Open()
			if tt.wantErr {
				if !errors.Is(err, ErrDeviceNotFound) {
					t.Errorf("expected ErrDeviceNotFound, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("Open() = %v, want %v", ok, tt.wantOK)
			}
			if s.State() != tt.wantState {
				t.Errorf("state = %s, want %s", s.State(), tt.wantState)
			}
			if len(tt.transport.opens) != 1 || tt.transport.opens[0] != protocol.Bootloader {
				t.Errorf("expected one open of %s, got %v", protocol.Bootloader, tt.transport.opens)
			}
		})
	}
}

func TestSessionOpenClosesPrevious(t *testing.T) {
	transport := NewMockTransport(protocol.Bootloader)
	s, _ := newTestSession(transport)

	for i := 0; i < 2; i++ {
		if ok, err := s.Open(); !ok || err != nil {
			t.Fatalf("Open() = %v, %v", ok, err)
		}
	}

	if transport.closes != 1 {
		t.Errorf("expected previous handle closed once, got %d", transport.closes)
	}
}

func TestSessionClose(t *testing.T) {
	transport := NewMockTransport(protocol.Bootloader)
	s, _ := newTestSession(transport)

	s.Close()
	if transport.closes != 0 {
		t.Error("closing a closed session should not touch the transport")
	}

	if _, err := s.Open(); err != nil {
		t.Fatal(err)
	}
	s.Close()
	s.Close()

	if transport.closes != 1 {
		t.Errorf("expected 1 close, got %d", transport.closes)
	}
	if s.State() != StateClosed {
		t.Errorf("state = %s, want closed", s.State())
	}
}

func TestSessionWrite(t *testing.T) {
	transport := NewMockTransport(protocol.Bootloader)
	s, sleeps := newTestSession(transport)
	if _, err := s.Open(); err != nil {
		t.Fatal(err)
	}

	payload := []byte{0x00, 0x04, 0x00, 0xAA}
	if err := s.Write(payload, 500*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transport.transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(transport.transfers))
	}
	tr := transport.transfers[0]
	if tr.RequestType != 0x21 || tr.Request != 9 || tr.Value != 0x0200 || tr.Index != 0 {
		t.Errorf("unexpected setup: type=0x%02X req=%d value=0x%04X index=%d",
			tr.RequestType, tr.Request, tr.Value, tr.Index)
	}
	if !bytes.Equal(tr.Data, payload) {
		t.Errorf("data = % X, want % X", tr.Data, payload)
	}
	if tr.Timeout != 500*time.Millisecond {
		t.Errorf("timeout = %s, want 500ms", tr.Timeout)
	}
	if len(*sleeps) != 0 {
		t.Errorf("successful write should not sleep, slept %v", *sleeps)
	}
	if s.State() != StateProgramming {
		t.Errorf("state = %s, want programming", s.State())
	}
}

func TestSessionWriteRetries(t *testing.T) {
	transport := NewMockTransport(protocol.Bootloader)
	busy := errors.New("busy")
	transport.controlErrs = []error{busy, busy, busy, nil}

	s, sleeps := newTestSession(transport)
	if _, err := s.Open(); err != nil {
		t.Fatal(err)
	}

	if err := s.Write([]byte{1, 2}, 500*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTimeouts := []time.Duration{500, 490, 480, 470}
	if len(transport.transfers) != len(wantTimeouts) {
		t.Fatalf("expected %d attempts, got %d", len(wantTimeouts), len(transport.transfers))
	}
	for i, want := range wantTimeouts {
		if got := transport.transfers[i].Timeout; got != want*time.Millisecond {
			t.Errorf("attempt %d timeout = %s, want %s", i, got, want*time.Millisecond)
		}
	}
	if len(*sleeps) != 3 {
		t.Errorf("expected 3 sleeps, got %d", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != 10*time.Millisecond {
			t.Errorf("sleep = %s, want 10ms", d)
		}
	}
}

func TestSessionWriteExhausted(t *testing.T) {
	transport := NewMockTransport(protocol.Bootloader)
	transport.controlErr = errors.New("pipe error")

	logger := &MockLogger{}
	s, sleeps := newTestSession(transport, WithLogger(logger))
	if _, err := s.Open(); err != nil {
		t.Fatal(err)
	}

	err := s.Write([]byte{1, 2}, 50*time.Millisecond)
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}

	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WriteError, got %T", err)
	}
	if werr.Attempts != 5 {
		t.Errorf("attempts = %d, want 5", werr.Attempts)
	}
	if len(*sleeps) != 5 {
		t.Errorf("expected 5 sleeps, got %d", len(*sleeps))
	}
	if len(logger.errorMsgs) == 0 {
		t.Error("expected an error log")
	}
}

func TestSessionWriteNotOpen(t *testing.T) {
	s, _ := newTestSession(NewMockTransport(protocol.Bootloader))

	if err := s.Write([]byte{1}, time.Second); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if err := s.Boot(130); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestSessionBoot(t *testing.T) {
	transport := NewMockTransport(protocol.Bootloader)
	s, _ := newTestSession(transport)
	if _, err := s.Open(); err != nil {
		t.Fatal(err)
	}

	if err := s.Boot(1088); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transport.transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(transport.transfers))
	}
	tr := transport.transfers[0]
	if len(tr.Data) != 1088 {
		t.Fatalf("boot block length = %d, want 1088", len(tr.Data))
	}
	if !bytes.Equal(tr.Data[:3], []byte{0xFF, 0xFF, 0xFF}) {
		t.Errorf("boot marker = % X", tr.Data[:3])
	}
	for i, b := range tr.Data[3:] {
		if b != 0 {
			t.Fatalf("byte %d = 0x%02X, want 0", i+3, b)
		}
	}
	if tr.Timeout != 500*time.Millisecond {
		t.Errorf("timeout = %s, want 500ms", tr.Timeout)
	}
	if s.State() != StateBooting {
		t.Errorf("state = %s, want booting", s.State())
	}
}

func TestSessionHardReboot(t *testing.T) {
	t.Run("rebootor present", func(t *testing.T) {
		transport := NewMockTransport(protocol.Rebootor)
		s, _ := newTestSession(transport)

		if err := s.HardReboot(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(transport.transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(transport.transfers))
		}
		tr := transport.transfers[0]
		if tr.ID != protocol.Rebootor {
			t.Errorf("sent to %s, want rebootor", tr.ID)
		}
		if tr.Request != 9 || tr.Value != 0x0200 || string(tr.Data) != "reboot" {
			t.Errorf("unexpected transfer: req=%d value=0x%04X data=%q", tr.Request, tr.Value, tr.Data)
		}
		if tr.Timeout != 100*time.Millisecond {
			t.Errorf("timeout = %s, want 100ms", tr.Timeout)
		}
		if transport.closes != 1 {
			t.Errorf("rebootor should be closed, closes = %d", transport.closes)
		}
	})

	t.Run("rebootor absent", func(t *testing.T) {
		s, _ := newTestSession(NewMockTransport())

		err := s.HardReboot()
		var rerr *RebootError
		if !errors.As(err, &rerr) || rerr.Method != "hard" {
			t.Fatalf("expected hard *RebootError, got %v", err)
		}
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Error("should wrap ErrDeviceNotFound")
		}
	})

	t.Run("transfer fails", func(t *testing.T) {
		transport := NewMockTransport(protocol.Rebootor)
		transport.controlErr = errors.New("stall")
		s, _ := newTestSession(transport)

		if err := s.HardReboot(); err == nil {
			t.Fatal("expected error")
		}
		if transport.closes != 1 {
			t.Errorf("rebootor should be closed after failure, closes = %d", transport.closes)
		}
	})
}

func TestSessionSoftReboot(t *testing.T) {
	t.Run("usb path", func(t *testing.T) {
		transport := NewMockTransport(protocol.Serial)
		serial := &MockSerialRebooter{}
		s, _ := newTestSession(transport, WithSerialRebooter(serial))

		if err := s.SoftReboot(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(transport.transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(transport.transfers))
		}
		tr := transport.transfers[0]
		if tr.ID != protocol.Serial || tr.RequestType != 0x21 || tr.Request != 0x20 || tr.Value != 0 {
			t.Errorf("unexpected transfer: %+v", tr)
		}
		want := []byte{0x86, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08}
		if !bytes.Equal(tr.Data, want) {
			t.Errorf("data = % X, want % X", tr.Data, want)
		}
		if tr.Timeout != 10*time.Second {
			t.Errorf("timeout = %s, want 10s", tr.Timeout)
		}
		if len(serial.calls) != 0 {
			t.Error("serial fallback should not run when USB path works")
		}
	})

	t.Run("serial fallback", func(t *testing.T) {
		serial := &MockSerialRebooter{}
		s, _ := newTestSession(NewMockTransport(), WithSerialRebooter(serial))

		if err := s.SoftReboot(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(serial.calls) != 1 || serial.calls[0] != protocol.Serial {
			t.Errorf("expected one serial reboot of %s, got %v", protocol.Serial, serial.calls)
		}
	})

	t.Run("no fallback", func(t *testing.T) {
		s, _ := newTestSession(NewMockTransport())

		err := s.SoftReboot()
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("expected ErrDeviceNotFound, got %v", err)
		}
	})

	t.Run("both paths fail", func(t *testing.T) {
		portErr := errors.New("no such port")
		serial := &MockSerialRebooter{err: portErr}
		s, _ := newTestSession(NewMockTransport(), WithSerialRebooter(serial))

		err := s.SoftReboot()
		if !errors.Is(err, portErr) {
			t.Errorf("expected serial error in chain, got %v", err)
		}
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("expected USB error in chain, got %v", err)
		}
	})
}
