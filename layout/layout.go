// Package layout describes how a device's input report bytes map onto the
// gamepad state model, and decodes raw reports accordingly.
//
// A Layout is an immutable description created once per device profile.
// Decoding is pure: the same layout and bytes always produce the same State.
package layout

import (
	"errors"
	"fmt"

	"github.com/relic-se/usbgamepad/input"
)

// ErrMalformedReport is returned by Decode when the raw buffer does not have
// the shape the layout expects. The report should be dropped and the previous
// state retained; the error is not fatal to a session.
var ErrMalformedReport = errors.New("layout: malformed report")

// ButtonBit maps a single report bit to a button.
type ButtonBit struct {
	Button input.Button
	Byte   int
	Mask   byte
}

// ButtonCode maps an exact byte value to a button. Used by pads that encode
// the d-pad as digital axis bytes (0x00 one way, 0xFF the other).
type ButtonCode struct {
	Button input.Button
	Byte   int
	Value  byte
}

// AxisField is one analog axis, addressed at bit granularity so that packed
// fields (e.g. the Switch Pro's 12-bit stick values) decode without whole-byte
// assumptions. A zero Bits means the axis is absent; present axes are 1 to 16
// bits wide (Validate enforces this for user-supplied layouts).
//
// Unsigned fields are centered at 2^(Bits-1); signed fields are two's
// complement. Either way the value is scaled to the full int16 range.
// Invert flips the axis, for devices whose Y grows downward.
type AxisField struct {
	BitOffset int
	Bits      int
	Signed    bool
	Invert    bool
}

// StickField pairs the two axes of an analog stick.
type StickField struct {
	X, Y AxisField
}

// TriggerField is an unsigned analog trigger, scaled to 0..255.
// A zero Bits means the trigger is absent (digital-only L2/R2).
type TriggerField struct {
	BitOffset int
	Bits      int
}

// HatField locates the hat switch nibble. A zero Bits means the layout has no
// hat field and the hat direction is derived from d-pad buttons instead.
type HatField struct {
	BitOffset int
	Bits      int
}

// Layout is the immutable byte/bit map for one report format.
//
// All offsets are absolute within the raw report, including any report-ID
// prefix byte. When HasReportID is set, byte 0 must equal ReportID.
type Layout struct {
	Name        string
	ReportSize  int
	ReportID    byte
	HasReportID bool

	Buttons []ButtonBit
	Codes   []ButtonCode
	Hat     HatField

	LeftStick  StickField
	RightStick StickField

	LeftTrigger  TriggerField
	RightTrigger TriggerField
}

// Decode interprets one raw input report according to the layout.
//
// It fails with ErrMalformedReport iff the buffer length does not match the
// layout's report size or the report-ID prefix mismatches. Bits the layout
// does not describe are ignored. Beyond the mapped fields, Decode fills in
// the derived controls: analog triggers press L2/R2 past TriggerThreshold,
// left-stick deflection past StickThreshold presses the virtual JOYSTICK_*
// buttons, and the hat direction and d-pad buttons always mirror each other.
func Decode(l Layout, raw []byte) (input.State, error) {
	var st input.State
	if len(raw) != l.ReportSize {
		return st, fmt.Errorf("%w: %q expects %d bytes, got %d", ErrMalformedReport, l.Name, l.ReportSize, len(raw))
	}
	if l.HasReportID && raw[0] != l.ReportID {
		return st, fmt.Errorf("%w: %q expects report id 0x%02x, got 0x%02x", ErrMalformedReport, l.Name, l.ReportID, raw[0])
	}

	for _, b := range l.Buttons {
		if raw[b.Byte]&b.Mask != 0 {
			st.Buttons.Add(b.Button)
		}
	}
	for _, c := range l.Codes {
		if raw[c.Byte] == c.Value {
			st.Buttons.Add(c.Button)
		}
	}

	st.LeftStick = decodeStick(l.LeftStick, raw)
	st.RightStick = decodeStick(l.RightStick, raw)

	if l.LeftTrigger.Bits > 0 {
		st.LeftTrigger = l.LeftTrigger.decode(raw)
		if st.LeftTrigger >= input.TriggerThreshold {
			st.Buttons.Add(input.ButtonL2)
		}
	}
	if l.RightTrigger.Bits > 0 {
		st.RightTrigger = l.RightTrigger.decode(raw)
		if st.RightTrigger >= input.TriggerThreshold {
			st.Buttons.Add(input.ButtonR2)
		}
	}

	if st.LeftStick.X >= input.StickThreshold {
		st.Buttons.Add(input.ButtonJoystickRight)
	}
	if st.LeftStick.X <= -input.StickThreshold {
		st.Buttons.Add(input.ButtonJoystickLeft)
	}
	if st.LeftStick.Y >= input.StickThreshold {
		st.Buttons.Add(input.ButtonJoystickUp)
	}
	if st.LeftStick.Y <= -input.StickThreshold {
		st.Buttons.Add(input.ButtonJoystickDown)
	}

	if l.Hat.Bits > 0 {
		st.Hat = input.HatFromNibble(uint8(extractBits(raw, l.Hat.BitOffset, l.Hat.Bits)))
		st.Buttons |= st.Hat.DPad()
	} else {
		st.Hat = input.HatFromDPad(st.Buttons)
	}

	return st, nil
}

// extractBits reads a little-endian bit field: fields are packed LSB-first
// within and across bytes, per the HID report conventions.
func extractBits(data []byte, off, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		bit := off + i
		if data[bit/8]>>(bit%8)&1 != 0 {
			v |= 1 << i
		}
	}
	return v
}

func decodeStick(f StickField, raw []byte) input.Stick {
	return input.Stick{X: f.X.decode(raw), Y: f.Y.decode(raw)}
}

func (f AxisField) decode(raw []byte) int16 {
	if f.Bits == 0 {
		return 0
	}
	v := int32(extractBits(raw, f.BitOffset, f.Bits))
	if f.Signed {
		if v >= 1<<(f.Bits-1) {
			v -= 1 << f.Bits
		}
	} else {
		v -= 1 << (f.Bits - 1)
	}
	v <<= 16 - f.Bits
	if f.Invert {
		v = -v
		if v > 32767 {
			v = 32767
		}
	}
	return int16(v)
}

func (f TriggerField) decode(raw []byte) uint8 {
	v := extractBits(raw, f.BitOffset, f.Bits)
	switch {
	case f.Bits > 8:
		v >>= f.Bits - 8
	case f.Bits < 8:
		v <<= 8 - f.Bits
	}
	if v > 0xFF {
		v = 0xFF
	}
	return uint8(v)
}

// Validate checks that every field the layout references fits inside
// ReportSize and stays within the width its decoder can handle. Built-in
// layouts are consistent by construction; this guards user-supplied profile
// tables and descriptor-derived layouts before they reach Decode.
func (l Layout) Validate() error {
	if l.ReportSize <= 0 {
		return fmt.Errorf("layout %q: report size must be positive", l.Name)
	}
	max := l.ReportSize * 8
	checkBits := func(what string, off, width, maxWidth int) error {
		if width == 0 {
			return nil
		}
		if width < 0 || width > maxWidth {
			return fmt.Errorf("layout %q: %s width %d bits out of range (1..%d)", l.Name, what, width, maxWidth)
		}
		if off < 0 || off+width > max {
			return fmt.Errorf("layout %q: %s bits [%d,%d) exceed %d-byte report", l.Name, what, off, off+width, l.ReportSize)
		}
		return nil
	}
	for _, b := range l.Buttons {
		if b.Byte < 0 || b.Byte >= l.ReportSize {
			return fmt.Errorf("layout %q: button %s byte %d exceeds %d-byte report", l.Name, b.Button, b.Byte, l.ReportSize)
		}
	}
	for _, c := range l.Codes {
		if c.Byte < 0 || c.Byte >= l.ReportSize {
			return fmt.Errorf("layout %q: code %s byte %d exceeds %d-byte report", l.Name, c.Button, c.Byte, l.ReportSize)
		}
	}
	for _, f := range []struct {
		what     string
		off      int
		bits     int
		maxWidth int
	}{
		{"hat", l.Hat.BitOffset, l.Hat.Bits, 8},
		{"left stick x", l.LeftStick.X.BitOffset, l.LeftStick.X.Bits, 16},
		{"left stick y", l.LeftStick.Y.BitOffset, l.LeftStick.Y.Bits, 16},
		{"right stick x", l.RightStick.X.BitOffset, l.RightStick.X.Bits, 16},
		{"right stick y", l.RightStick.Y.BitOffset, l.RightStick.Y.Bits, 16},
		{"left trigger", l.LeftTrigger.BitOffset, l.LeftTrigger.Bits, 32},
		{"right trigger", l.RightTrigger.BitOffset, l.RightTrigger.Bits, 32},
	} {
		if err := checkBits(f.what, f.off, f.bits, f.maxWidth); err != nil {
			return err
		}
	}
	return nil
}
