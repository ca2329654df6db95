package gamepad_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relic-se/usbgamepad/gamepad"
	"github.com/relic-se/usbgamepad/input"
	"github.com/relic-se/usbgamepad/layout"
	"github.com/relic-se/usbgamepad/usb/hid"
	"github.com/relic-se/usbgamepad/usbhost"
)

// fakeDevice scripts ReadReport results and records writes. An exhausted read
// queue behaves like a quiet device: every further read times out.
type fakeDevice struct {
	info   usbhost.Info
	reads  []readResult
	writes [][]byte
	desc   []byte
	closed bool
}

type readResult struct {
	data []byte
	err  error
}

func (d *fakeDevice) Info() usbhost.Info { return d.info }

func (d *fakeDevice) ReadReport(buf []byte) (int, error) {
	if len(d.reads) == 0 {
		return 0, usbhost.ErrTimeout
	}
	r := d.reads[0]
	d.reads = d.reads[1:]
	if r.err != nil {
		return 0, r.err
	}
	return copy(buf, r.data), nil
}

func (d *fakeDevice) WriteReport(data []byte) error {
	d.writes = append(d.writes, append([]byte(nil), data...))
	return nil
}

func (d *fakeDevice) ReportDescriptor() ([]byte, error) {
	if d.desc == nil {
		return nil, usbhost.ErrTimeout
	}
	return d.desc, nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// zero2Device fakes an 8BitDo Zero 2: 6-byte reports, no report id, no init
// sequence. The simplest built-in profile to script against.
func zero2Device() *fakeDevice {
	return &fakeDevice{info: usbhost.Info{VendorID: 0x2dc8, ProductID: 0x9018}}
}

func zero2Report(buttons byte, hat byte) []byte {
	return []byte{buttons, 0x00, hat, 0x00, 0x00, 0x00}
}

func TestSessionLifecycle(t *testing.T) {
	dev := zero2Device()
	dev.reads = []readResult{
		{data: zero2Report(0x01, 0x08)}, // A down
		{data: zero2Report(0x01, 0x08)}, // identical: deduped
		{data: zero2Report(0x00, 0x08)}, // A up
	}

	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)
	assert.Equal(t, gamepad.StatusConnected, s.Status())
	assert.Equal(t, "8BitDo Zero 2", s.DeviceName())

	ok, err := s.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, gamepad.StatusPolling, s.Status())
	assert.True(t, s.Buttons().Contains(input.ButtonA))
	require.Len(t, s.Events(), 1)
	assert.Equal(t, input.Event{Button: input.ButtonA, Pressed: true}, s.Events()[0])

	// Identical raw report: no new state, no events.
	ok, err = s.Poll()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Events())
	assert.True(t, s.Buttons().Contains(input.ButtonA), "state survives deduped poll")

	ok, err = s.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, s.Buttons().Contains(input.ButtonA))
	require.Len(t, s.Events(), 1)
	assert.Equal(t, input.Event{Button: input.ButtonA, Pressed: false}, s.Events()[0])

	require.NoError(t, s.Close())
	assert.Equal(t, gamepad.StatusDisconnected, s.Status())
	assert.False(t, s.IsConnected())
	assert.True(t, dev.closed)
}

func TestSessionTimeoutsTolerated(t *testing.T) {
	dev := zero2Device()
	s, err := gamepad.New(dev, gamepad.Options{MaxTimeouts: 3})
	require.NoError(t, err)

	// Timeouts below the limit are quiet non-events.
	for i := 0; i < 3; i++ {
		ok, err := s.Poll()
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, s.IsConnected())
	}

	// One more crosses the limit and tears the session down.
	ok, err := s.Poll()
	assert.False(t, ok)
	assert.ErrorIs(t, err, usbhost.ErrDisconnected)
	assert.Equal(t, gamepad.StatusDisconnected, s.Status())
	assert.True(t, dev.closed)
}

func TestSessionTimeoutCounterResets(t *testing.T) {
	dev := zero2Device()
	dev.reads = []readResult{
		{err: usbhost.ErrTimeout},
		{err: usbhost.ErrTimeout},
		{data: zero2Report(0x01, 0x08)},
		{err: usbhost.ErrTimeout},
		{err: usbhost.ErrTimeout},
	}
	s, err := gamepad.New(dev, gamepad.Options{MaxTimeouts: 2})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.Poll()
		assert.NoError(t, err, "poll %d", i)
	}
	// A successful read in between means the streaks never reach the limit.
	assert.True(t, s.IsConnected())
}

func TestSessionReadErrorDisconnects(t *testing.T) {
	dev := zero2Device()
	dev.reads = []readResult{{err: usbhost.ErrDisconnected}}
	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)

	ok, err := s.Poll()
	assert.False(t, ok)
	assert.ErrorIs(t, err, usbhost.ErrDisconnected)
	assert.Equal(t, gamepad.StatusDisconnected, s.Status())
	assert.True(t, dev.closed)

	// Polling a dead session keeps failing the same way.
	_, err = s.Poll()
	assert.ErrorIs(t, err, usbhost.ErrDisconnected)
}

func TestSessionPacedPollClearsEvents(t *testing.T) {
	dev := zero2Device()
	dev.info.PollInterval = time.Hour
	dev.reads = []readResult{{data: zero2Report(0x01, 0x08)}} // A down

	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)

	ok, err := s.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s.Events(), 1)

	// Within the endpoint's polling interval: no read, and the previous
	// poll's edges must not be reported again.
	ok, err = s.Poll()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Events())
	assert.True(t, s.Buttons().Contains(input.ButtonA), "state itself is retained")
}

func TestSessionMalformedReportKeepsState(t *testing.T) {
	dev := zero2Device()
	dev.reads = []readResult{
		{data: zero2Report(0x01, 0x08)},
		{data: []byte{0x01, 0x02, 0x03}}, // wrong length
	}
	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)

	ok, err := s.Poll()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Poll()
	assert.False(t, ok)
	assert.ErrorIs(t, err, layout.ErrMalformedReport)
	assert.True(t, s.IsConnected(), "malformed report is not fatal")
	assert.True(t, s.Buttons().Contains(input.ButtonA), "previous state retained")
}

func TestSessionMalformedReportRepeats(t *testing.T) {
	bad := []byte{0x01, 0x02, 0x03}
	dev := zero2Device()
	dev.reads = []readResult{
		{data: bad},
		{data: bad}, // identical bad report must not dedupe to silence
		{data: zero2Report(0x01, 0x08)},
	}
	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)

	_, err = s.Poll()
	assert.ErrorIs(t, err, layout.ErrMalformedReport)
	_, err = s.Poll()
	assert.ErrorIs(t, err, layout.ErrMalformedReport, "each dropped report is observable")

	// A good report afterwards decodes normally.
	ok, err := s.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Buttons().Contains(input.ButtonA))
}

func TestSessionInitSequence(t *testing.T) {
	dev := &fakeDevice{info: usbhost.Info{VendorID: 0x057e, ProductID: 0x2009}}

	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Switch Pro Controller", s.DeviceName())

	p, ok := layout.Lookup(0x057e, 0x2009)
	require.True(t, ok)
	assert.Equal(t, p.Init, dev.writes, "init messages written in order")
}

func TestSessionFlushInput(t *testing.T) {
	// XInput pads match by class identifier and flush queued status packets.
	dev := &fakeDevice{info: usbhost.Info{
		VendorID: 0x045e, ProductID: 0x028e,
		Class: 0xff, SubClass: 0xff, IfaceClass: 0xff, IfaceSubClass: 0x5d,
	}}
	dev.reads = []readResult{
		{data: make([]byte, 3)},
		{data: make([]byte, 3)},
	}

	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Generic XInput", s.DeviceName())
	assert.Empty(t, dev.reads, "queued packets drained during connect")
}

func TestSessionSetPlayerLED(t *testing.T) {
	dev := &fakeDevice{info: usbhost.Info{VendorID: 0x054c, ProductID: 0x05c4}}
	s, err := gamepad.New(dev, gamepad.Options{})
	require.NoError(t, err)

	require.NoError(t, s.SetPlayerLED(1))
	require.Len(t, dev.writes, 1)
	msg := dev.writes[0]
	require.Len(t, msg, 32)
	assert.Equal(t, byte(0x05), msg[0])
	assert.Equal(t, []byte{0x00, 0x00, 0x40}, msg[6:9])

	// Devices without a controllable indicator are a silent no-op.
	plain := zero2Device()
	s2, err := gamepad.New(plain, gamepad.Options{})
	require.NoError(t, err)
	require.NoError(t, s2.SetPlayerLED(1))
	assert.Empty(t, plain.writes)
}

func TestSelectProfileUserOverride(t *testing.T) {
	dev := &fakeDevice{info: usbhost.Info{VendorID: 0x054c, ProductID: 0x05c4}}
	custom := layout.Profile{
		Name:      "Custom DS4",
		VendorID:  0x054c,
		ProductID: 0x05c4,
		Layout:    layout.Layout{Name: "custom", ReportSize: 8},
	}

	p, err := gamepad.SelectProfile(dev, []layout.Profile{custom})
	require.NoError(t, err)
	assert.Equal(t, "Custom DS4", p.Name, "user profiles win over built-ins")

	p, err = gamepad.SelectProfile(dev, nil)
	require.NoError(t, err)
	assert.Equal(t, "DualShock 4", p.Name)
}

func TestSelectProfileGenericFallback(t *testing.T) {
	desc, err := hid.Report{Items: []hid.Item{
		hid.UsagePage{Page: hid.UsagePageGenericDesktop},
		hid.Usage{Usage: hid.UsageJoystick},
		hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
			hid.Usage{Usage: hid.UsageX},
			hid.Usage{Usage: hid.UsageY},
			hid.LogicalMinimum{Min: 0},
			hid.LogicalMaximum{Max: 255},
			hid.ReportSize{Bits: 8},
			hid.ReportCount{Count: 2},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
		}},
	}}.Bytes()
	require.NoError(t, err)

	dev := &fakeDevice{
		info: usbhost.Info{VendorID: 0xdead, ProductID: 0xbeef},
		desc: desc,
	}
	p, err := gamepad.SelectProfile(dev, nil)
	require.NoError(t, err)
	assert.Equal(t, "Generic HID", p.Name)
	assert.Equal(t, 2, p.Layout.ReportSize)
	assert.Equal(t, 8, p.Layout.LeftStick.X.Bits)
}

func TestSelectProfileNoDescriptor(t *testing.T) {
	// Unknown device and no readable report descriptor: nothing to go on.
	dev := &fakeDevice{info: usbhost.Info{VendorID: 0xdead, ProductID: 0xbeef}}
	_, err := gamepad.SelectProfile(dev, nil)
	assert.Error(t, err)
}
