package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relic-se/usbgamepad/layout"
)

func TestLookup(t *testing.T) {
	p, ok := layout.Lookup(0x057e, 0x2009)
	require.True(t, ok)
	assert.Equal(t, "Switch Pro Controller", p.Name)

	_, ok = layout.Lookup(0xdead, 0xbeef)
	assert.False(t, ok)
}

func TestLookupClass(t *testing.T) {
	p, ok := layout.LookupClass(layout.ClassID{Class: 0xff, SubClass: 0xff, IfaceClass: 0xff, IfaceSubClass: 0x5d})
	require.True(t, ok)
	assert.True(t, p.FlushInput)
	assert.Equal(t, 20, p.Layout.ReportSize)

	_, ok = layout.LookupClass(layout.ClassID{Class: 0x03})
	assert.False(t, ok)
}

func TestBuiltinLayoutsValid(t *testing.T) {
	for _, p := range layout.Builtin() {
		t.Run(p.Name, func(t *testing.T) {
			assert.NoError(t, p.Layout.Validate())
			assert.NotEmpty(t, p.Layout.Name)
			assert.Positive(t, p.Layout.ReportSize)
		})
	}
}

func TestSwitchProInitSequence(t *testing.T) {
	p, ok := layout.Lookup(0x057e, 0x2009)
	require.True(t, ok)
	require.Len(t, p.Init, 7)
	assert.Equal(t, []byte{0x80, 0x01}, p.Init[0])
	assert.Equal(t, []byte{0x80, 0x02}, p.Init[1])
	// Last message switches the home LED on via the 0x01 output report.
	assert.Equal(t, byte(0x01), p.Init[6][0])
}

func TestPlayerLEDBuilders(t *testing.T) {
	xinput, ok := layout.LookupClass(layout.ClassID{Class: 0xff, SubClass: 0xff, IfaceClass: 0xff, IfaceSubClass: 0x5d})
	require.True(t, ok)
	require.NotNil(t, xinput.PlayerLED)
	msg := xinput.PlayerLED(1)
	require.Len(t, msg, 3)
	assert.Equal(t, []byte{0x01, 0x03}, msg[:2])
	assert.NotEqual(t, msg, xinput.PlayerLED(2))

	ds4, ok := layout.Lookup(0x054c, 0x05c4)
	require.True(t, ok)
	require.NotNil(t, ds4.PlayerLED)
	msg = ds4.PlayerLED(1)
	require.Len(t, msg, 32)
	assert.Equal(t, byte(0x05), msg[0])
	assert.Equal(t, []byte{0x00, 0x00, 0x40}, msg[6:9], "player 1 lightbar is blue")
	// Out-of-range player numbers clamp instead of panicking.
	assert.Equal(t, ds4.PlayerLED(4), ds4.PlayerLED(200))

	snes, ok := layout.Lookup(0x081f, 0xe401)
	require.True(t, ok)
	assert.Nil(t, snes.PlayerLED)
}

func TestDualShock4Variants(t *testing.T) {
	v1, ok := layout.Lookup(0x054c, 0x05c4)
	require.True(t, ok)
	v2, ok := layout.Lookup(0x054c, 0x09cc)
	require.True(t, ok)
	assert.Equal(t, v1.Layout, v2.Layout)
	assert.NotEqual(t, v1.Name, v2.Name)
}
