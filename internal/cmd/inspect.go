package cmd

import (
	"fmt"

	"github.com/relic-se/usbgamepad/gamepad"
	"github.com/relic-se/usbgamepad/layout"
	"github.com/relic-se/usbgamepad/usbhost"
)

type Inspect struct {
	Vendor   string `help:"Match vendor id (e.g. 0x057e)" env:"PADMON_VENDOR"`
	Product  string `help:"Match product id (e.g. 0x2009)" env:"PADMON_PRODUCT"`
	Port     int    `help:"Match physical port number" env:"PADMON_PORT"`
	Profiles string `help:"YAML file with additional device profiles" env:"PADMON_PROFILES"`
}

// Run claims a device just long enough to show which report layout a
// session would use for it.
func (c *Inspect) Run() error {
	vendor, err := parseID(c.Vendor)
	if err != nil {
		return fmt.Errorf("--vendor: %w", err)
	}
	product, err := parseID(c.Product)
	if err != nil {
		return fmt.Errorf("--product: %w", err)
	}
	var extra []layout.Profile
	if c.Profiles != "" {
		if extra, err = layout.LoadProfiles(c.Profiles); err != nil {
			return err
		}
	}

	dev, err := usbhost.Open(usbhost.Options{VendorID: vendor, ProductID: product, Port: c.Port})
	if err != nil {
		return err
	}
	defer dev.Close()

	profile, err := gamepad.SelectProfile(dev, extra)
	if err != nil {
		return err
	}

	info := dev.Info()
	l := profile.Layout
	fmt.Printf("device:  %04x:%04x %s\n", info.VendorID, info.ProductID, info.Product)
	fmt.Printf("profile: %s\n", profile.Name)
	fmt.Printf("report:  %d bytes", l.ReportSize)
	if l.HasReportID {
		fmt.Printf(" (report id 0x%02x)", l.ReportID)
	}
	fmt.Println()
	fmt.Printf("buttons: %d bit-mapped, %d value-coded\n", len(l.Buttons), len(l.Codes))
	if l.Hat.Bits > 0 {
		fmt.Printf("hat:     %d bits at bit %d\n", l.Hat.Bits, l.Hat.BitOffset)
	}
	printStick := func(name string, s layout.StickField) {
		if s.X.Bits == 0 && s.Y.Bits == 0 {
			return
		}
		fmt.Printf("%s x: %d bits at bit %d, y: %d bits at bit %d\n",
			name, s.X.Bits, s.X.BitOffset, s.Y.Bits, s.Y.BitOffset)
	}
	printStick("left stick: ", l.LeftStick)
	printStick("right stick:", l.RightStick)
	if l.LeftTrigger.Bits > 0 || l.RightTrigger.Bits > 0 {
		fmt.Printf("triggers: left %d bits at bit %d, right %d bits at bit %d\n",
			l.LeftTrigger.Bits, l.LeftTrigger.BitOffset,
			l.RightTrigger.Bits, l.RightTrigger.BitOffset)
	}
	return nil
}
