// Package gamepad drives one controller: it owns the USB device handle,
// selects a report layout, polls for input reports and exposes the decoded
// state plus per-poll button edge events.
//
// A Session follows Disconnected -> Connected -> Polling -> Disconnected.
// It is single-owner: one goroutine calls Poll from its own loop; there are
// no internal goroutines and no cancellation beyond not calling Poll again.
package gamepad

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relic-se/usbgamepad/input"
	"github.com/relic-se/usbgamepad/internal/log"
	"github.com/relic-se/usbgamepad/layout"
	"github.com/relic-se/usbgamepad/usbhost"
)

// Status is the session lifecycle state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected           // device claimed, no report decoded yet
	StatusPolling             // at least one report read
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusPolling:
		return "polling"
	default:
		return "disconnected"
	}
}

// DefaultMaxTimeouts is how many consecutive read timeouts a session
// tolerates before treating the device as gone.
const DefaultMaxTimeouts = 99

// Options configure a session.
type Options struct {
	// Device filters, passed through to usbhost.Open by Connect.
	VendorID  uint16
	ProductID uint16
	Port      int

	// ReadTimeout bounds each poll's read. Defaults to usbhost's default.
	ReadTimeout time.Duration

	// MaxTimeouts overrides DefaultMaxTimeouts when positive.
	MaxTimeouts int

	// Profiles are additional device profiles (e.g. loaded from a YAML
	// table) checked before the built-in ones.
	Profiles []layout.Profile

	// Logger for session lifecycle events. Defaults to slog.Default.
	Logger *slog.Logger

	// Reports receives a hex dump of every raw input report. Nil disables.
	Reports log.ReportLogger
}

func (o Options) maxTimeouts() int {
	if o.MaxTimeouts > 0 {
		return o.MaxTimeouts
	}
	return DefaultMaxTimeouts
}

// Session owns one controller for its Connected/Polling lifetime.
type Session struct {
	opts    Options
	logger  *slog.Logger
	reports log.ReportLogger

	dev     usbhost.Device
	profile layout.Profile
	status  Status

	tracker  input.Tracker
	state    input.State
	pressed  input.ButtonSet
	released input.ButtonSet

	buf      []byte
	last     []byte
	lastLen  int
	haveLast bool

	timeouts int
	lastRead time.Time
}

// Connect opens a matching USB device and prepares a session for it.
func Connect(opts Options) (*Session, error) {
	dev, err := usbhost.Open(usbhost.Options{
		VendorID:    opts.VendorID,
		ProductID:   opts.ProductID,
		Port:        opts.Port,
		ReadTimeout: opts.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	s, err := New(dev, opts)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return s, nil
}

// New builds a session around an already-open device: selects its report
// layout, runs the profile's init sequence and claims ownership of dev.
// On error the caller keeps ownership of dev.
func New(dev usbhost.Device, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reports := opts.Reports
	if reports == nil {
		reports = log.NewReport(nil)
	}

	profile, err := SelectProfile(dev, opts.Profiles)
	if err != nil {
		return nil, err
	}

	bufSize := profile.Layout.ReportSize
	if mps := dev.Info().MaxPacketSize; mps > bufSize {
		bufSize = mps
	}
	s := &Session{
		opts:    opts,
		logger:  logger,
		reports: reports,
		dev:     dev,
		profile: profile,
		status:  StatusConnected,
		buf:     make([]byte, bufSize),
		last:    make([]byte, bufSize),
	}
	if err := s.initDevice(); err != nil {
		s.dev = nil
		return nil, err
	}
	logger.Info("gamepad connected",
		"profile", profile.Name,
		"vid", fmt.Sprintf("%04x", dev.Info().VendorID),
		"pid", fmt.Sprintf("%04x", dev.Info().ProductID),
	)
	return s, nil
}

// SelectProfile picks the report profile for a device: extra user profiles
// first, then the built-in vendor/product table, then the class-identifier
// table, finally a generic layout derived from the HID report descriptor.
func SelectProfile(dev usbhost.Device, extra []layout.Profile) (layout.Profile, error) {
	info := dev.Info()
	for _, p := range extra {
		if p.VendorID == info.VendorID && p.ProductID == info.ProductID {
			return p, nil
		}
	}
	if p, ok := layout.Lookup(info.VendorID, info.ProductID); ok {
		return p, nil
	}
	if p, ok := layout.LookupClass(layout.ClassID{
		Class:         info.Class,
		SubClass:      info.SubClass,
		IfaceClass:    info.IfaceClass,
		IfaceSubClass: info.IfaceSubClass,
	}); ok {
		return p, nil
	}
	desc, err := dev.ReportDescriptor()
	if err != nil {
		return layout.Profile{}, fmt.Errorf("no profile for %04x:%04x and report descriptor unavailable: %w",
			info.VendorID, info.ProductID, err)
	}
	l, err := layout.FromDescriptor(desc)
	if err != nil {
		return layout.Profile{}, fmt.Errorf("no profile for %04x:%04x: %w",
			info.VendorID, info.ProductID, err)
	}
	return layout.Profile{Name: "Generic HID", Layout: l}, nil
}

// initDevice runs the profile's init writes. Devices that acknowledge each
// message get a best-effort read between writes; timeouts there are not
// errors.
func (s *Session) initDevice() error {
	for _, msg := range s.profile.Init {
		s.reports.Log(log.DirOut, msg)
		if err := s.dev.WriteReport(msg); err != nil {
			return fmt.Errorf("init sequence: %w", err)
		}
		if _, err := s.dev.ReadReport(s.buf); err != nil && !isTimeout(err) {
			return fmt.Errorf("init sequence ack: %w", err)
		}
	}
	if s.profile.FlushInput {
		s.flush()
	}
	return nil
}

// flush drains a handful of pending input reports, discarding them.
func (s *Session) flush() {
	for i := 0; i < 8; i++ {
		if _, err := s.dev.ReadReport(s.buf); err != nil {
			return
		}
	}
}

// Poll performs one bounded-wait read attempt. It returns true when a new
// state was decoded (edge events are then available from Events until the
// next poll).
//
// A timeout returns (false, nil) without touching state; too many in a row
// disconnect the session. A malformed report is dropped: the previous state
// is kept, the error surfaces, and the session stays up. A fatal transport
// error releases the device, moves the session to Disconnected and returns
// an error wrapping usbhost.ErrDisconnected.
func (s *Session) Poll() (bool, error) {
	if s.dev == nil {
		return false, fmt.Errorf("session not connected: %w", usbhost.ErrDisconnected)
	}

	// Edge events belong to exactly one poll, including polls that do not read.
	s.pressed, s.released = 0, 0

	// Reads faster than the endpoint's polling interval cannot return data.
	if interval := s.dev.Info().PollInterval; interval > 0 {
		if since := time.Since(s.lastRead); since < interval {
			return false, nil
		}
	}
	s.lastRead = time.Now()

	n, err := s.dev.ReadReport(s.buf)
	if err != nil {
		if isTimeout(err) {
			s.timeouts++
			if s.timeouts > s.opts.maxTimeouts() {
				s.logger.Warn("gamepad unresponsive", "timeouts", s.timeouts)
				s.disconnect()
				return false, fmt.Errorf("%d consecutive timeouts: %w", s.timeouts, usbhost.ErrDisconnected)
			}
			return false, nil
		}
		s.logger.Warn("gamepad read failed", "error", err)
		s.disconnect()
		if isDisconnect(err) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", usbhost.ErrDisconnected, err)
	}
	s.timeouts = 0

	raw := s.buf[:n]
	s.reports.Log(log.DirIn, raw)

	if s.haveLast && n == s.lastLen && bytes.Equal(raw, s.last[:n]) {
		s.status = StatusPolling
		return false, nil
	}

	st, err := layout.Decode(s.profile.Layout, raw)
	if err != nil {
		// Malformed reports never enter the dedupe buffer: a device stuck
		// repeating one keeps surfacing the error on every poll.
		return false, err
	}
	copy(s.last, raw)
	s.lastLen = n
	s.haveLast = true

	s.state = st
	s.pressed, s.released = s.tracker.Update(st)
	s.status = StatusPolling
	return true, nil
}

func (s *Session) disconnect() {
	if s.dev != nil {
		_ = s.dev.Close()
		s.dev = nil
	}
	s.status = StatusDisconnected
	s.tracker.Reset()
	s.state = input.State{}
	s.pressed, s.released = 0, 0
	s.haveLast = false
	s.timeouts = 0
	s.logger.Info("gamepad disconnected")
}

// Close releases the device and moves the session to Disconnected.
func (s *Session) Close() error {
	if s.dev == nil {
		return nil
	}
	s.disconnect()
	return nil
}

// SetPlayerLED lights player indicator n (1-based) on devices that have one.
func (s *Session) SetPlayerLED(n uint8) error {
	if s.dev == nil {
		return fmt.Errorf("session not connected: %w", usbhost.ErrDisconnected)
	}
	if s.profile.PlayerLED == nil {
		return nil
	}
	msg := s.profile.PlayerLED(n)
	s.reports.Log(log.DirOut, msg)
	return s.dev.WriteReport(msg)
}

// Accessors for the last decoded snapshot.

func (s *Session) State() input.State       { return s.state }
func (s *Session) Buttons() input.ButtonSet { return s.state.Buttons }
func (s *Session) LeftStick() input.Stick   { return s.state.LeftStick }
func (s *Session) RightStick() input.Stick  { return s.state.RightStick }
func (s *Session) LeftTrigger() uint8       { return s.state.LeftTrigger }
func (s *Session) RightTrigger() uint8      { return s.state.RightTrigger }
func (s *Session) Hat() input.Direction     { return s.state.Hat }
func (s *Session) IsConnected() bool        { return s.status != StatusDisconnected }
func (s *Session) Status() Status           { return s.status }
func (s *Session) DeviceName() string       { return s.profile.Name }

// Events returns the button transitions produced by the last successful
// Poll, pressed first. Empty between polls and after polls with no edges.
func (s *Session) Events() []input.Event {
	return input.Events(s.pressed, s.released)
}

func isTimeout(err error) bool {
	return errors.Is(err, usbhost.ErrTimeout)
}

func isDisconnect(err error) bool {
	return errors.Is(err, usbhost.ErrDisconnected)
}
