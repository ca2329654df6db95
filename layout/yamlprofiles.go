package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relic-se/usbgamepad/input"
)

// User-supplied profile tables. Vendors ship byte layouts this package has
// never heard of; a YAML file lets users describe them without recompiling:
//
//	profiles:
//	  - name: Example Pad
//	    vendor: 0x1234
//	    product: 0xabcd
//	    report:
//	      size: 8
//	      id: 0x01
//	    buttons:
//	      - { button: A, byte: 0, mask: 0x01 }
//	    codes:
//	      - { button: LEFT, byte: 2, value: 0x00 }
//	    hat: { bit: 16, bits: 4 }
//	    left_stick:
//	      x: { bit: 24, bits: 8 }
//	      y: { bit: 32, bits: 8, invert: true }
//	    left_trigger: { bit: 56, bits: 8 }

type profileFile struct {
	Profiles []profileDoc `yaml:"profiles"`
}

type profileDoc struct {
	Name    string `yaml:"name"`
	Vendor  uint16 `yaml:"vendor"`
	Product uint16 `yaml:"product"`
	Report  struct {
		Size int  `yaml:"size"`
		ID   *int `yaml:"id"`
	} `yaml:"report"`
	Buttons []struct {
		Button string `yaml:"button"`
		Byte   int    `yaml:"byte"`
		Mask   uint8  `yaml:"mask"`
	} `yaml:"buttons"`
	Codes []struct {
		Button string `yaml:"button"`
		Byte   int    `yaml:"byte"`
		Value  uint8  `yaml:"value"`
	} `yaml:"codes"`
	Hat          *axisDoc `yaml:"hat"`
	LeftStick    stickDoc `yaml:"left_stick"`
	RightStick   stickDoc `yaml:"right_stick"`
	LeftTrigger  *axisDoc `yaml:"left_trigger"`
	RightTrigger *axisDoc `yaml:"right_trigger"`
}

type stickDoc struct {
	X *axisDoc `yaml:"x"`
	Y *axisDoc `yaml:"y"`
}

type axisDoc struct {
	Bit    int  `yaml:"bit"`
	Bits   int  `yaml:"bits"`
	Signed bool `yaml:"signed"`
	Invert bool `yaml:"invert"`
}

// LoadProfiles reads additional device profiles from a YAML file.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	profiles, err := ParseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// ParseProfiles parses a YAML profile table and validates every layout
// against its declared report size.
func ParseProfiles(data []byte) ([]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(file.Profiles))
	for i, doc := range file.Profiles {
		p, err := doc.profile()
		if err != nil {
			return nil, fmt.Errorf("profile %d (%s): %w", i, doc.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (d profileDoc) profile() (Profile, error) {
	if d.Name == "" {
		return Profile{}, fmt.Errorf("missing name")
	}
	if d.Vendor == 0 && d.Product == 0 {
		return Profile{}, fmt.Errorf("missing vendor/product ids")
	}
	l := Layout{
		Name:       d.Name,
		ReportSize: d.Report.Size,
	}
	if d.Report.ID != nil {
		l.HasReportID = true
		l.ReportID = byte(*d.Report.ID)
	}
	for _, b := range d.Buttons {
		btn, err := input.ParseButton(b.Button)
		if err != nil {
			return Profile{}, err
		}
		l.Buttons = append(l.Buttons, ButtonBit{Button: btn, Byte: b.Byte, Mask: b.Mask})
	}
	for _, c := range d.Codes {
		btn, err := input.ParseButton(c.Button)
		if err != nil {
			return Profile{}, err
		}
		l.Codes = append(l.Codes, ButtonCode{Button: btn, Byte: c.Byte, Value: c.Value})
	}
	if d.Hat != nil {
		l.Hat = HatField{BitOffset: d.Hat.Bit, Bits: d.Hat.Bits}
	}
	l.LeftStick = d.LeftStick.field()
	l.RightStick = d.RightStick.field()
	if d.LeftTrigger != nil {
		l.LeftTrigger = TriggerField{BitOffset: d.LeftTrigger.Bit, Bits: d.LeftTrigger.Bits}
	}
	if d.RightTrigger != nil {
		l.RightTrigger = TriggerField{BitOffset: d.RightTrigger.Bit, Bits: d.RightTrigger.Bits}
	}
	if err := l.Validate(); err != nil {
		return Profile{}, err
	}
	return Profile{
		Name:      d.Name,
		VendorID:  d.Vendor,
		ProductID: d.Product,
		Layout:    l,
	}, nil
}

func (d stickDoc) field() StickField {
	var f StickField
	if d.X != nil {
		f.X = AxisField{BitOffset: d.X.Bit, Bits: d.X.Bits, Signed: d.X.Signed, Invert: d.X.Invert}
	}
	if d.Y != nil {
		f.Y = AxisField{BitOffset: d.Y.Bit, Bits: d.Y.Bits, Signed: d.Y.Signed, Invert: d.Y.Invert}
	}
	return f
}
