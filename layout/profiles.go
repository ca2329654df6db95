package layout

import "github.com/relic-se/usbgamepad/input"

// ClassID identifies a device by its device-descriptor class/subclass and the
// class/subclass of interface 0. Used for families like XInput pads whose
// vendor/product IDs vary across clones.
type ClassID struct {
	Class         uint8
	SubClass      uint8
	IfaceClass    uint8
	IfaceSubClass uint8
}

// Profile couples a layout with device identity and the control traffic a
// device family needs: an init sequence written once after claiming the
// interface, and an optional player-LED command builder.
type Profile struct {
	Name      string
	VendorID  uint16
	ProductID uint16

	Layout Layout

	// Init messages are written in order right after connect. Devices that
	// acknowledge each message (Switch Pro) get a best-effort read between
	// writes.
	Init [][]byte

	// FlushInput drains pending input reports after init. XInput pads emit a
	// burst of status packets on claim that would otherwise decode as input.
	FlushInput bool

	// PlayerLED builds the output report that lights player indicator n
	// (1-based). Nil when the device has no controllable indicator.
	PlayerLED func(n uint8) []byte
}

// Lookup finds a built-in profile by exact vendor/product ID.
func Lookup(vendor, product uint16) (Profile, bool) {
	for _, p := range builtin {
		if p.VendorID == vendor && p.ProductID == product {
			return p, true
		}
	}
	return Profile{}, false
}

// LookupClass finds a built-in profile by class identifier. Tried after
// Lookup fails, before falling back to a descriptor-derived layout.
func LookupClass(id ClassID) (Profile, bool) {
	for _, m := range classMatches {
		if m.id == id {
			return m.profile, true
		}
	}
	return Profile{}, false
}

// Builtin returns a copy of the built-in profile table.
func Builtin() []Profile {
	out := make([]Profile, len(builtin))
	copy(out, builtin)
	return out
}

// The tables below are read-only after package initialization.

var builtin = []Profile{switchPro, adafruitSNES, zero2, powerA, dualShock4, dualShock4v2}

var classMatches = []struct {
	id      ClassID
	profile Profile
}{
	// Xbox 360 clones: vendor-specific device class with interface subclass 0x5d.
	{ClassID{Class: 0xff, SubClass: 0xff, IfaceClass: 0xff, IfaceSubClass: 0x5d}, xinput},
}

// xinput covers wired Xbox 360 controllers and their many clones.
// Report: byte 0 message type 0x00, byte 1 length 0x14, buttons in bytes 2-3,
// analog triggers bytes 4-5, sticks as little-endian int16 in bytes 6-13.
var xinput = Profile{
	Name: "Generic XInput",
	Layout: Layout{
		Name:        "xinput",
		ReportSize:  20,
		ReportID:    0x00,
		HasReportID: true,
		Buttons: []ButtonBit{
			{input.ButtonUp, 2, 0x01},
			{input.ButtonDown, 2, 0x02},
			{input.ButtonLeft, 2, 0x04},
			{input.ButtonRight, 2, 0x08},
			{input.ButtonStart, 2, 0x10},
			{input.ButtonSelect, 2, 0x20},
			{input.ButtonL3, 2, 0x40},
			{input.ButtonR3, 2, 0x80},
			{input.ButtonL1, 3, 0x01},
			{input.ButtonR1, 3, 0x02},
			{input.ButtonHome, 3, 0x04},
			{input.ButtonB, 3, 0x10},
			{input.ButtonA, 3, 0x20},
			{input.ButtonY, 3, 0x40},
			{input.ButtonX, 3, 0x80},
		},
		LeftTrigger:  TriggerField{BitOffset: 32, Bits: 8},
		RightTrigger: TriggerField{BitOffset: 40, Bits: 8},
		LeftStick: StickField{
			X: AxisField{BitOffset: 48, Bits: 16, Signed: true},
			Y: AxisField{BitOffset: 64, Bits: 16, Signed: true},
		},
		RightStick: StickField{
			X: AxisField{BitOffset: 80, Bits: 16, Signed: true},
			Y: AxisField{BitOffset: 96, Bits: 16, Signed: true},
		},
	},
	FlushInput: true,
	PlayerLED: func(n uint8) []byte {
		if n > 2 {
			n = 2
		}
		var bits byte
		for i := uint8(0); i < n; i++ {
			bits |= 1 << (1 - i)
		}
		return []byte{0x01, 0x03, 0x02 | bits}
	},
}

// switchPro is the Nintendo Switch Pro Controller (and clones) in standard
// input report mode. Report id 0x30; buttons in bytes 3-5; stick values are
// 12-bit fields packed across bytes 6-11.
var switchPro = Profile{
	Name:      "Switch Pro Controller",
	VendorID:  0x057e,
	ProductID: 0x2009,
	Layout: Layout{
		Name:        "switch-pro",
		ReportSize:  64,
		ReportID:    0x30,
		HasReportID: true,
		Buttons: []ButtonBit{
			{input.ButtonY, 3, 0x01},
			{input.ButtonX, 3, 0x02},
			{input.ButtonB, 3, 0x04},
			{input.ButtonA, 3, 0x08},
			{input.ButtonR1, 3, 0x40},
			{input.ButtonR2, 3, 0x80},
			{input.ButtonSelect, 4, 0x01},
			{input.ButtonStart, 4, 0x02},
			{input.ButtonR3, 4, 0x04},
			{input.ButtonL3, 4, 0x08},
			{input.ButtonHome, 4, 0x10},
			{input.ButtonDown, 5, 0x01},
			{input.ButtonUp, 5, 0x02},
			{input.ButtonRight, 5, 0x04},
			{input.ButtonLeft, 5, 0x08},
			{input.ButtonL1, 5, 0x40},
			{input.ButtonL2, 5, 0x80},
		},
		LeftStick: StickField{
			X: AxisField{BitOffset: 48, Bits: 12},
			Y: AxisField{BitOffset: 60, Bits: 12},
		},
		RightStick: StickField{
			X: AxisField{BitOffset: 72, Bits: 12},
			Y: AxisField{BitOffset: 84, Bits: 12},
		},
	},
	Init: [][]byte{
		{0x80, 0x01}, // request device info
		{0x80, 0x02}, // handshake
		{0x80, 0x03}, // raise baud rate
		{0x80, 0x02}, // handshake again
		{0x80, 0x04}, // USB HID only, disable timeout
		// standard input report mode
		{0x01, 0x06, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x30},
		// home LED on
		{0x01, 0x0b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x38, 0x01, 0x00, 0x00, 0x11, 0x11},
	},
	PlayerLED: func(n uint8) []byte {
		if n > 4 {
			n = 4
		}
		msg := []byte{0x01, 0x0a, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x30, 0x00}
		for i := uint8(0); i < n; i++ {
			msg[len(msg)-1] |= 1 << i
		}
		return msg
	},
}

// adafruitSNES is the generic low-speed SNES-layout HID pad Adafruit sells.
// The d-pad arrives as digital axis bytes: 0x00 one extreme, 0xFF the other,
// 0x7F centered.
var adafruitSNES = Profile{
	Name:      "Adafruit SNES Controller",
	VendorID:  0x081f,
	ProductID: 0xe401,
	Layout: Layout{
		Name:       "adafruit-snes",
		ReportSize: 8,
		Codes: []ButtonCode{
			{input.ButtonLeft, 0, 0x00},
			{input.ButtonRight, 0, 0xff},
			{input.ButtonUp, 1, 0x00},
			{input.ButtonDown, 1, 0xff},
		},
		Buttons: []ButtonBit{
			{input.ButtonX, 5, 0x10},
			{input.ButtonA, 5, 0x20},
			{input.ButtonB, 5, 0x40},
			{input.ButtonY, 5, 0x80},
			{input.ButtonL1, 6, 0x01},
			{input.ButtonR1, 6, 0x02},
			{input.ButtonSelect, 6, 0x10},
			{input.ButtonStart, 6, 0x20},
		},
	},
}

// zero2 is the 8BitDo Zero 2 mini pad over USB-C. No analog sticks; the d-pad
// is a hat nibble in byte 2.
var zero2 = Profile{
	Name:      "8BitDo Zero 2",
	VendorID:  0x2dc8,
	ProductID: 0x9018,
	Layout: Layout{
		Name:       "8bitdo-zero2",
		ReportSize: 6,
		Buttons: []ButtonBit{
			{input.ButtonA, 0, 0x01},
			{input.ButtonB, 0, 0x02},
			{input.ButtonX, 0, 0x08},
			{input.ButtonY, 0, 0x10},
			{input.ButtonL1, 0, 0x40},
			{input.ButtonR1, 0, 0x80},
			{input.ButtonSelect, 1, 0x04},
			{input.ButtonStart, 1, 0x08},
		},
		Hat: HatField{BitOffset: 16, Bits: 4},
	},
}

// powerA is the PowerA Wired Controller for Switch. Hat nibble in byte 2,
// centered-uint8 sticks in bytes 3-6 with Y growing downward.
var powerA = Profile{
	Name:      "PowerA Wired Controller",
	VendorID:  0x20d6,
	ProductID: 0xa711,
	Layout: Layout{
		Name:       "powera-wired",
		ReportSize: 8,
		Buttons: []ButtonBit{
			{input.ButtonY, 0, 0x01},
			{input.ButtonB, 0, 0x02},
			{input.ButtonA, 0, 0x04},
			{input.ButtonX, 0, 0x08},
			{input.ButtonL1, 0, 0x10},
			{input.ButtonR1, 0, 0x20},
			{input.ButtonSelect, 1, 0x01},
			{input.ButtonStart, 1, 0x02},
		},
		Hat: HatField{BitOffset: 16, Bits: 4},
		LeftStick: StickField{
			X: AxisField{BitOffset: 24, Bits: 8},
			Y: AxisField{BitOffset: 32, Bits: 8, Invert: true},
		},
		RightStick: StickField{
			X: AxisField{BitOffset: 40, Bits: 8},
			Y: AxisField{BitOffset: 48, Bits: 8, Invert: true},
		},
	},
}

// DualShock 4: report id 0x01, centered-uint8 sticks with inverted Y, hat
// nibble sharing byte 5 with the face buttons, analog triggers in bytes 8-9.
var ds4Layout = Layout{
	Name:        "dualshock4",
	ReportSize:  64,
	ReportID:    0x01,
	HasReportID: true,
	Buttons: []ButtonBit{
		{input.ButtonX, 5, 0x10}, // Square
		{input.ButtonA, 5, 0x20}, // Cross
		{input.ButtonB, 5, 0x40}, // Circle
		{input.ButtonY, 5, 0x80}, // Triangle
		{input.ButtonL1, 6, 0x01},
		{input.ButtonR1, 6, 0x02},
		{input.ButtonSelect, 6, 0x10}, // Share
		{input.ButtonStart, 6, 0x20},  // Options
		{input.ButtonL3, 6, 0x40},
		{input.ButtonR3, 6, 0x80},
		{input.ButtonHome, 7, 0x01}, // PS
	},
	Hat: HatField{BitOffset: 40, Bits: 4},
	LeftStick: StickField{
		X: AxisField{BitOffset: 8, Bits: 8},
		Y: AxisField{BitOffset: 16, Bits: 8, Invert: true},
	},
	RightStick: StickField{
		X: AxisField{BitOffset: 24, Bits: 8},
		Y: AxisField{BitOffset: 32, Bits: 8, Invert: true},
	},
	LeftTrigger:  TriggerField{BitOffset: 64, Bits: 8},
	RightTrigger: TriggerField{BitOffset: 72, Bits: 8},
}

// ds4PlayerColors indexes lightbar colors by player number; 0 is off.
var ds4PlayerColors = [...][3]byte{
	{0x00, 0x00, 0x00},
	{0x00, 0x00, 0x40}, // player 1: blue
	{0x40, 0x00, 0x00}, // player 2: red
	{0x00, 0x40, 0x00}, // player 3: green
	{0x20, 0x00, 0x20}, // player 4: pink
}

func ds4PlayerLED(n uint8) []byte {
	if int(n) >= len(ds4PlayerColors) {
		n = uint8(len(ds4PlayerColors) - 1)
	}
	msg := make([]byte, 32)
	msg[0] = 0x05
	msg[1] = 0xff
	copy(msg[6:9], ds4PlayerColors[n][:])
	return msg
}

var dualShock4 = Profile{
	Name:      "DualShock 4",
	VendorID:  0x054c,
	ProductID: 0x05c4,
	Layout:    ds4Layout,
	PlayerLED: ds4PlayerLED,
}

var dualShock4v2 = Profile{
	Name:      "DualShock 4 (v2)",
	VendorID:  0x054c,
	ProductID: 0x09cc,
	Layout:    ds4Layout,
	PlayerLED: ds4PlayerLED,
}
