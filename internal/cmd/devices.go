package cmd

import (
	"fmt"

	"github.com/relic-se/usbgamepad/layout"
	"github.com/relic-se/usbgamepad/usbhost"
)

type Devices struct {
	Port int `help:"Match physical port number" env:"PADMON_PORT"`
}

// Run lists connected devices that expose a pollable HID-style interface.
func (d *Devices) Run() error {
	infos, err := usbhost.List(usbhost.Options{Port: d.Port})
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no candidate devices found")
		return nil
	}
	for _, info := range infos {
		profile := "generic descriptor fallback"
		if p, ok := layout.Lookup(info.VendorID, info.ProductID); ok {
			profile = p.Name
		} else if p, ok := layout.LookupClass(layout.ClassID{
			Class:         info.Class,
			SubClass:      info.SubClass,
			IfaceClass:    info.IfaceClass,
			IfaceSubClass: info.IfaceSubClass,
		}); ok {
			profile = p.Name
		}
		name := info.Product
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("%04x:%04x  %-32s  profile: %s\n", info.VendorID, info.ProductID, name, profile)
	}
	return nil
}
