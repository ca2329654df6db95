package hid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relic-se/usbgamepad/usb/hid"
)

func gamepadDescriptor(t *testing.T) []byte {
	t.Helper()
	desc, err := hid.Report{Items: []hid.Item{
		hid.UsagePage{Page: hid.UsagePageGenericDesktop},
		hid.Usage{Usage: hid.UsageGamePad},
		hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
			hid.ReportID{ID: 1},
			hid.Usage{Usage: hid.UsageX},
			hid.Usage{Usage: hid.UsageY},
			hid.Usage{Usage: hid.UsageZ},
			hid.Usage{Usage: hid.UsageRz},
			hid.LogicalMinimum{Min: 0},
			hid.LogicalMaximum{Max: 255},
			hid.ReportSize{Bits: 8},
			hid.ReportCount{Count: 4},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
			hid.Usage{Usage: hid.UsageHatSwitch},
			hid.LogicalMinimum{Min: 0},
			hid.LogicalMaximum{Max: 7},
			hid.ReportSize{Bits: 4},
			hid.ReportCount{Count: 1},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainNullState},
			hid.UsagePage{Page: hid.UsagePageButton},
			hid.UsageMinimum{Min: 1},
			hid.UsageMaximum{Max: 8},
			hid.LogicalMinimum{Min: 0},
			hid.LogicalMaximum{Max: 1},
			hid.ReportSize{Bits: 1},
			hid.ReportCount{Count: 8},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
		}},
	}}.Bytes()
	require.NoError(t, err)
	return desc
}

func TestParseInputFieldsRoundtrip(t *testing.T) {
	fields, hasReportID, err := hid.ParseInputFields(gamepadDescriptor(t))
	require.NoError(t, err)
	assert.True(t, hasReportID)
	require.Len(t, fields, 3)

	axes := fields[0]
	assert.Equal(t, uint8(1), axes.ReportID)
	assert.Equal(t, hid.UsagePageGenericDesktop, axes.UsagePage)
	assert.Equal(t, []uint16{hid.UsageX, hid.UsageY, hid.UsageZ, hid.UsageRz}, axes.Usages)
	assert.Equal(t, 0, axes.BitOffset)
	assert.Equal(t, 8, axes.BitSize)
	assert.Equal(t, 4, axes.Count)
	assert.Equal(t, int32(255), axes.LogicalMax)

	hat := fields[1]
	assert.Equal(t, []uint16{hid.UsageHatSwitch}, hat.Usages)
	assert.Equal(t, 32, hat.BitOffset)
	assert.Equal(t, 4, hat.BitSize)
	assert.NotZero(t, hat.Flags&hid.MainNullState)

	buttons := fields[2]
	assert.Equal(t, hid.UsagePageButton, buttons.UsagePage)
	assert.Equal(t, 36, buttons.BitOffset)
	assert.Equal(t, 8, buttons.Count)
	// UsageMinimum/Maximum expand to one usage per element.
	assert.Equal(t, []uint16{1, 2, 3, 4, 5, 6, 7, 8}, buttons.Usages)

	assert.Equal(t, 6, hid.InputReportLength(fields, 1))
	assert.Equal(t, 0, hid.InputReportLength(fields, 2))
}

func TestParseTruncatedDescriptor(t *testing.T) {
	desc := gamepadDescriptor(t)
	// Drop the End Collection and the final Input item's data byte, leaving a
	// header that promises more bytes than remain.
	_, _, err := hid.ParseInputFields(desc[:len(desc)-2])
	assert.ErrorIs(t, err, hid.ErrBadDescriptor)
}

func TestParsePopWithoutPush(t *testing.T) {
	_, _, err := hid.ParseInputFields([]byte{0xB4})
	assert.ErrorIs(t, err, hid.ErrBadDescriptor)
}

func TestParsePushPopRestoresGlobals(t *testing.T) {
	desc := []byte{
		0x05, 0x01, // Usage Page (Generic Desktop)
		0xA4,       // Push
		0x05, 0x09, // Usage Page (Button)
		0xB4,       // Pop
		0x75, 0x08, // Report Size (8)
		0x95, 0x01, // Report Count (1)
		0x81, 0x02, // Input (Data,Var,Abs)
	}
	fields, hasReportID, err := hid.ParseInputFields(desc)
	require.NoError(t, err)
	assert.False(t, hasReportID)
	require.Len(t, fields, 1)
	assert.Equal(t, hid.UsagePageGenericDesktop, fields[0].UsagePage)
}

func TestParseSkipsOutputFields(t *testing.T) {
	desc, err := hid.Report{Items: []hid.Item{
		hid.UsagePage{Page: hid.UsagePageLEDs},
		hid.UsageMinimum{Min: 1},
		hid.UsageMaximum{Max: 4},
		hid.ReportSize{Bits: 1},
		hid.ReportCount{Count: 4},
		hid.Output{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
		hid.UsagePage{Page: hid.UsagePageButton},
		hid.UsageMinimum{Min: 1},
		hid.UsageMaximum{Max: 4},
		hid.ReportCount{Count: 4},
		hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
	}}.Bytes()
	require.NoError(t, err)

	fields, _, err := hid.ParseInputFields(desc)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	// Output bits live in a separate report; input placement starts at 0.
	assert.Equal(t, 0, fields[0].BitOffset)
}
