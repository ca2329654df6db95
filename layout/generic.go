package layout

import (
	"fmt"

	"github.com/relic-se/usbgamepad/input"
	"github.com/relic-se/usbgamepad/usb/hid"
)

// genericButtonOrder assigns gamepad meaning to the first eight declared
// buttons of an arbitrary HID joystick. Matches the common trigger-first
// numbering of flight-stick style devices.
var genericButtonOrder = [...]input.Button{
	input.ButtonR1,
	input.ButtonL1,
	input.ButtonSelect,
	input.ButtonStart,
	input.ButtonA,
	input.ButtonX,
	input.ButtonY,
	input.ButtonB,
}

// FromDescriptor derives a Layout from a device's HID report descriptor.
// It is the baseline for devices without a built-in profile: Generic Desktop
// X/Y feed the left stick, Z/Rz (or Rx/Ry) the right stick, the hat switch
// usage maps to the hat nibble, and Button-page bits map through
// genericButtonOrder. Anything else in the descriptor is ignored.
func FromDescriptor(desc []byte) (Layout, error) {
	fields, hasReportID, err := hid.ParseInputFields(desc)
	if err != nil {
		return Layout{}, err
	}
	if len(fields) == 0 {
		return Layout{}, fmt.Errorf("report descriptor declares no input fields")
	}

	reportID := pickReportID(fields)

	l := Layout{
		Name:        "generic-hid",
		ReportID:    reportID,
		HasReportID: hasReportID,
	}
	// With report IDs in play every report starts with the ID byte; shift
	// field offsets so they are absolute within the raw report.
	shift := 0
	if hasReportID {
		shift = 8
	}
	l.ReportSize = hid.InputReportLength(fields, reportID) + shift/8

	buttons := 0
	for _, f := range fields {
		if f.ReportID != reportID || f.Flags&hid.MainConst != 0 {
			continue
		}
		switch f.UsagePage {
		case hid.UsagePageButton:
			for i := 0; i < f.Count && buttons < len(genericButtonOrder); i++ {
				bit := shift + f.BitOffset + i*f.BitSize
				l.Buttons = append(l.Buttons, ButtonBit{
					Button: genericButtonOrder[buttons],
					Byte:   bit / 8,
					Mask:   1 << (bit % 8),
				})
				buttons++
			}
		case hid.UsagePageGenericDesktop:
			for i, usage := range f.Usages {
				off := shift + f.BitOffset + i*f.BitSize
				axis := AxisField{
					BitOffset: off,
					Bits:      f.BitSize,
					Signed:    f.LogicalMin < 0,
				}
				// Descriptors may declare axes wider than the 16-bit state
				// model; keep the most significant bits of the little-endian
				// field.
				if axis.Bits > 16 {
					axis.BitOffset += axis.Bits - 16
					axis.Bits = 16
				}
				switch usage {
				case hid.UsageX:
					l.LeftStick.X = axis
				case hid.UsageY:
					// HID Y grows downward; the state model wants up positive.
					axis.Invert = true
					l.LeftStick.Y = axis
				case hid.UsageZ:
					l.RightStick.X = axis
				case hid.UsageRz:
					axis.Invert = true
					l.RightStick.Y = axis
				case hid.UsageRx:
					if l.RightStick.X.Bits == 0 {
						l.RightStick.X = axis
					}
				case hid.UsageRy:
					if l.RightStick.Y.Bits == 0 {
						axis.Invert = true
						l.RightStick.Y = axis
					}
				case hid.UsageSlider:
					if l.RightTrigger.Bits == 0 {
						l.RightTrigger = TriggerField{BitOffset: axis.BitOffset, Bits: axis.Bits}
					}
				case hid.UsageHatSwitch:
					// Hat values are small; the low bits carry them.
					hatBits := f.BitSize
					if hatBits > 8 {
						hatBits = 8
					}
					l.Hat = HatField{BitOffset: off, Bits: hatBits}
				}
			}
		}
	}

	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// pickReportID chooses which input report to decode when a descriptor
// declares several: the one carrying Generic Desktop X wins, otherwise the
// first declared input field's report.
func pickReportID(fields []hid.Field) uint8 {
	for _, f := range fields {
		if f.UsagePage != hid.UsagePageGenericDesktop {
			continue
		}
		for _, u := range f.Usages {
			if u == hid.UsageX {
				return f.ReportID
			}
		}
	}
	return fields[0].ReportID
}
