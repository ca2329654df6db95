package usbhost

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/gousb"
)

// usbDevice is the gousb-backed Device implementation. It owns the libusb
// context, device handle and claimed interface for its whole lifetime.
type usbDevice struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint // nil when the interface has no interrupt OUT

	ifaceNum    int
	info        Info
	readTimeout time.Duration
}

// Open claims the first connected device matching opts that exposes a HID or
// vendor-specific interface with an interrupt IN endpoint.
func Open(opts Options) (Device, error) {
	ctx := gousb.NewContext()
	dev, err := open(ctx, opts)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	dev.ctx = ctx
	return dev, nil
}

func open(ctx *gousb.Context, opts Options) (*usbDevice, error) {
	devs, _ := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return matches(desc, opts)
	})

	var claimErr error
	var claimed *usbDevice
	for _, dev := range devs {
		if claimed != nil {
			dev.Close()
			continue
		}
		d, err := claim(dev, opts)
		if err != nil {
			claimErr = err
			dev.Close()
			continue
		}
		claimed = d
	}
	if claimed != nil {
		return claimed, nil
	}
	if claimErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, claimErr)
	}
	return nil, ErrNoDevice
}

func matches(desc *gousb.DeviceDesc, opts Options) bool {
	if opts.VendorID != 0 && uint16(desc.Vendor) != opts.VendorID {
		return false
	}
	if opts.ProductID != 0 && uint16(desc.Product) != opts.ProductID {
		return false
	}
	if opts.Port != 0 && desc.Port != opts.Port {
		return false
	}
	_, ok := findInterface(desc)
	return ok
}

// claimTarget locates the interface and endpoints to use within a device's
// configuration tree.
type claimTarget struct {
	config  int
	iface   int
	setting gousb.InterfaceSetting
	in      gousb.EndpointDesc
	out     gousb.EndpointDesc
	hasOut  bool
}

func findInterface(desc *gousb.DeviceDesc) (claimTarget, bool) {
	cfgNums := make([]int, 0, len(desc.Configs))
	for n := range desc.Configs {
		cfgNums = append(cfgNums, n)
	}
	sort.Ints(cfgNums)

	for _, n := range cfgNums {
		cfg := desc.Configs[n]
		for _, iface := range cfg.Interfaces {
			if len(iface.AltSettings) == 0 {
				continue
			}
			alt := iface.AltSettings[0]
			if alt.Class != gousb.ClassHID && alt.Class != gousb.ClassVendorSpec {
				continue
			}
			t := claimTarget{config: cfg.Number, iface: iface.Number, setting: alt}
			foundIn := false
			for _, ep := range alt.Endpoints {
				if ep.TransferType != gousb.TransferTypeInterrupt {
					continue
				}
				if ep.Direction == gousb.EndpointDirectionIn && !foundIn {
					t.in = ep
					foundIn = true
				}
				if ep.Direction == gousb.EndpointDirectionOut && !t.hasOut {
					t.out = ep
					t.hasOut = true
				}
			}
			if foundIn {
				return t, true
			}
		}
	}
	return claimTarget{}, false
}

func claim(dev *gousb.Device, opts Options) (*usbDevice, error) {
	t, ok := findInterface(dev.Desc)
	if !ok {
		return nil, fmt.Errorf("device %s:%s has no usable interface", dev.Desc.Vendor, dev.Desc.Product)
	}

	// The kernel's generic HID driver usually holds the interface.
	if err := dev.SetAutoDetach(true); err != nil {
		return nil, fmt.Errorf("auto-detach: %w", err)
	}
	cfg, err := dev.Config(t.config)
	if err != nil {
		return nil, fmt.Errorf("claim config %d: %w", t.config, err)
	}
	intf, err := cfg.Interface(t.iface, 0)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("claim interface %d: %w", t.iface, err)
	}
	in, err := intf.InEndpoint(t.in.Number)
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, fmt.Errorf("open IN endpoint %d: %w", t.in.Number, err)
	}
	var out *gousb.OutEndpoint
	if t.hasOut {
		if out, err = intf.OutEndpoint(t.out.Number); err != nil {
			// Input still works; writes fall back to SET_REPORT.
			out = nil
		}
	}

	product, _ := dev.Product()
	return &usbDevice{
		dev:      dev,
		cfg:      cfg,
		intf:     intf,
		in:       in,
		out:      out,
		ifaceNum: t.iface,
		info: Info{
			VendorID:      uint16(dev.Desc.Vendor),
			ProductID:     uint16(dev.Desc.Product),
			Class:         uint8(dev.Desc.Class),
			SubClass:      uint8(dev.Desc.SubClass),
			IfaceClass:    uint8(t.setting.Class),
			IfaceSubClass: uint8(t.setting.SubClass),
			Product:       product,
			MaxPacketSize: t.in.MaxPacketSize,
			PollInterval:  t.in.PollInterval,
		},
		readTimeout: opts.readTimeout(),
	}, nil
}

func (d *usbDevice) Info() Info { return d.info }

func (d *usbDevice) ReadReport(buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.readTimeout)
	defer cancel()
	n, err := d.in.ReadContext(ctx, buf)
	if err != nil {
		return n, mapUSBError(err)
	}
	return n, nil
}

func (d *usbDevice) WriteReport(data []byte) error {
	if d.out != nil {
		ctx, cancel := context.WithTimeout(context.Background(), d.readTimeout)
		defer cancel()
		if _, err := d.out.WriteContext(ctx, data); err != nil {
			return mapUSBError(err)
		}
		return nil
	}
	// HID SET_REPORT(output) over the control pipe: report ID in the low
	// byte of wValue, 0 when the device does not use report IDs.
	var reportID uint16
	if len(data) > 0 {
		reportID = uint16(data[0])
	}
	_, err := d.dev.Control(
		gousb.ControlOut|gousb.ControlClass|gousb.ControlInterface,
		0x09,            // SET_REPORT
		0x0200|reportID, // report type output
		uint16(d.ifaceNum),
		data,
	)
	if err != nil {
		return mapUSBError(err)
	}
	return nil
}

func (d *usbDevice) ReportDescriptor() ([]byte, error) {
	buf := make([]byte, 1024)
	n, err := d.dev.Control(
		gousb.ControlIn|gousb.ControlInterface,
		0x06,   // GET_DESCRIPTOR
		0x2200, // HID report descriptor
		uint16(d.ifaceNum),
		buf,
	)
	if err != nil {
		return nil, mapUSBError(err)
	}
	return buf[:n], nil
}

func (d *usbDevice) Close() error {
	if d.intf != nil {
		d.intf.Close()
		d.intf = nil
	}
	if d.cfg != nil {
		d.cfg.Close()
		d.cfg = nil
	}
	var err error
	if d.dev != nil {
		err = d.dev.Close()
		d.dev = nil
	}
	if d.ctx != nil {
		if cerr := d.ctx.Close(); err == nil {
			err = cerr
		}
		d.ctx = nil
	}
	return err
}

// List enumerates connected devices that Open could claim, without keeping
// any of them.
func List(opts Options) ([]Info, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var infos []Info
	devs, _ := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return matches(desc, opts)
	})
	for _, dev := range devs {
		if t, ok := findInterface(dev.Desc); ok {
			product, _ := dev.Product()
			infos = append(infos, Info{
				VendorID:      uint16(dev.Desc.Vendor),
				ProductID:     uint16(dev.Desc.Product),
				Class:         uint8(dev.Desc.Class),
				SubClass:      uint8(dev.Desc.SubClass),
				IfaceClass:    uint8(t.setting.Class),
				IfaceSubClass: uint8(t.setting.SubClass),
				Product:       product,
				MaxPacketSize: t.in.MaxPacketSize,
				PollInterval:  t.in.PollInterval,
			})
		}
		dev.Close()
	}
	return infos, nil
}

// mapUSBError folds gousb/libusb failures into the package's error kinds.
// Timeouts and cancellations are transient; everything else coming back from
// a claimed interface means the device is effectively gone.
func mapUSBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gousb.TransferTimedOut),
		errors.Is(err, gousb.TransferCancelled),
		errors.Is(err, gousb.ErrorTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ErrTimeout
	case errors.Is(err, gousb.ErrorNoDevice),
		errors.Is(err, gousb.ErrorIO),
		errors.Is(err, gousb.ErrorPipe),
		errors.Is(err, gousb.ErrorNotFound),
		errors.Is(err, gousb.ErrorOther):
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	default:
		return err
	}
}
