// Package usbhost is the boundary to the host USB stack. It exposes a small
// Device abstraction over one claimed HID interface: bounded-wait interrupt
// reads, output writes, and enough identity to select a report layout.
//
// Everything above this package sees only the three error kinds below;
// libusb/gousb error values never escape it.
package usbhost

import (
	"errors"
	"time"
)

var (
	// ErrTimeout means a transfer completed without data. Transient: no
	// state changed, retry on the next poll.
	ErrTimeout = errors.New("usbhost: transfer timed out")

	// ErrDisconnected means the device is gone. Fatal to the session; the
	// caller must reconnect explicitly.
	ErrDisconnected = errors.New("usbhost: device disconnected")

	// ErrNoDevice means no connected device matched the open options.
	ErrNoDevice = errors.New("usbhost: no matching device")
)

// Info describes a claimed device for layout selection and pacing.
type Info struct {
	VendorID  uint16
	ProductID uint16

	// Device-descriptor class/subclass and interface-0 class/subclass;
	// together they identify device families with varying vendor IDs.
	Class         uint8
	SubClass      uint8
	IfaceClass    uint8
	IfaceSubClass uint8

	Product string

	// MaxPacketSize of the interrupt IN endpoint; input reports never exceed it.
	MaxPacketSize int
	// PollInterval is the endpoint's declared polling interval. Reads issued
	// faster than this cannot return new data.
	PollInterval time.Duration
}

// Device is one exclusively-owned HID interface. Implementations are not safe
// for concurrent use; a single poller owns the device for its lifetime.
type Device interface {
	Info() Info

	// ReadReport performs one bounded-wait interrupt read into buf and
	// returns the number of bytes received. Returns ErrTimeout when the wait
	// expired without data and ErrDisconnected when the device is gone.
	ReadReport(buf []byte) (int, error)

	// WriteReport sends one output report (interrupt OUT when the interface
	// has one, HID SET_REPORT otherwise).
	WriteReport(data []byte) error

	// ReportDescriptor fetches the interface's HID report descriptor.
	ReportDescriptor() ([]byte, error)

	// Close releases the interface and the underlying handles.
	Close() error
}

// Options filter which device Open claims.
type Options struct {
	// VendorID/ProductID restrict matching when non-zero.
	VendorID  uint16
	ProductID uint16

	// Port restricts matching to a physical root/hub port number when
	// non-zero, for boards with multiple host ports.
	Port int

	// ReadTimeout bounds each ReadReport call. Defaults to 50ms.
	ReadTimeout time.Duration
}

const defaultReadTimeout = 50 * time.Millisecond

func (o Options) readTimeout() time.Duration {
	if o.ReadTimeout <= 0 {
		return defaultReadTimeout
	}
	return o.ReadTimeout
}
