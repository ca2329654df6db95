package hid

import (
	"errors"
	"fmt"
)

// ErrBadDescriptor is returned when a report descriptor byte stream is
// truncated or structurally invalid.
var ErrBadDescriptor = errors.New("hid: bad report descriptor")

// Field is one Input main item from a parsed report descriptor: Count
// elements of BitSize bits each, located at BitOffset within the input report
// that carries ReportID.
//
// BitOffset counts from the start of the report payload, excluding the
// report-ID prefix byte (when the descriptor uses report IDs at all).
type Field struct {
	ReportID  uint8
	UsagePage uint16
	// Usages holds the usage assigned to each element, expanded from either
	// the local Usage items or a UsageMinimum/UsageMaximum range. Shorter
	// than Count when the descriptor assigns fewer usages (trailing elements
	// are padding).
	Usages     []uint16
	BitOffset  int
	BitSize    int
	Count      int
	LogicalMin int32
	LogicalMax int32
	Flags      MainFlags
}

// Bits returns the total width of the field in bits.
func (f Field) Bits() int { return f.BitSize * f.Count }

// globalState mirrors the HID global item table; Push/Pop items save and
// restore the whole struct.
type globalState struct {
	usagePage   uint16
	logicalMin  int32
	logicalMax  int32
	reportSize  uint32
	reportCount uint32
	reportID    uint8
}

// ParseInputFields walks a report descriptor and returns every Input main
// item with its resolved bit position. hasReportID reports whether the
// descriptor declares report IDs (so input reports carry a one-byte prefix).
//
// Output and Feature items consume their own report space and are skipped;
// only input field placement is tracked.
func ParseInputFields(desc []byte) (fields []Field, hasReportID bool, err error) {
	var (
		g          globalState
		stack      []globalState
		usages     []uint16
		usageMin   uint32
		usageMax   uint32
		haveRange  bool
		inputBits  = map[uint8]int{}
		outputBits = map[uint8]int{}
	)
	clearLocals := func() {
		usages = usages[:0]
		usageMin, usageMax = 0, 0
		haveRange = false
	}

	for i := 0; i < len(desc); {
		header := desc[i]
		if header == 0xFE { // long item: 0xFE, len, tag, data
			if i+2 >= len(desc) {
				return nil, false, fmt.Errorf("%w: truncated long item at byte %d", ErrBadDescriptor, i)
			}
			i += 3 + int(desc[i+1])
			continue
		}
		size := int(header & 0x03)
		if size == 3 {
			size = 4
		}
		tag := header >> 4
		typ := ItemType(header >> 2 & 0x03)
		i++
		if i+size > len(desc) {
			return nil, false, fmt.Errorf("%w: truncated item at byte %d", ErrBadDescriptor, i-1)
		}
		uval := itemValue(desc[i : i+size])
		sval := itemValueSigned(desc[i : i+size])
		i += size

		switch typ {
		case ItemTypeMain:
			switch tag {
			case 0x8: // Input
				f := Field{
					ReportID:   g.reportID,
					UsagePage:  g.usagePage,
					BitOffset:  inputBits[g.reportID],
					BitSize:    int(g.reportSize),
					Count:      int(g.reportCount),
					LogicalMin: g.logicalMin,
					LogicalMax: g.logicalMax,
					Flags:      MainFlags(uval),
				}
				if haveRange {
					for u := usageMin; u <= usageMax && len(f.Usages) < f.Count; u++ {
						f.Usages = append(f.Usages, uint16(u))
					}
				} else {
					n := len(usages)
					if n > f.Count {
						n = f.Count
					}
					f.Usages = append(f.Usages, usages[:n]...)
				}
				fields = append(fields, f)
				inputBits[g.reportID] += f.Bits()
			case 0x9, 0xB: // Output, Feature
				outputBits[g.reportID] += int(g.reportSize * g.reportCount)
			case 0xA, 0xC: // Collection, End Collection
			}
			clearLocals()

		case ItemTypeGlobal:
			switch tag {
			case 0x0:
				g.usagePage = uint16(uval)
			case 0x1:
				g.logicalMin = sval
			case 0x2:
				g.logicalMax = sval
			case 0x7:
				g.reportSize = uval
			case 0x8:
				g.reportID = uint8(uval)
				hasReportID = true
			case 0x9:
				g.reportCount = uval
			case 0xA: // Push
				stack = append(stack, g)
			case 0xB: // Pop
				if len(stack) == 0 {
					return nil, false, fmt.Errorf("%w: pop without push", ErrBadDescriptor)
				}
				g = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}

		case ItemTypeLocal:
			switch tag {
			case 0x0:
				usages = append(usages, uint16(uval))
			case 0x1:
				usageMin = uval
				haveRange = true
			case 0x2:
				usageMax = uval
				haveRange = true
			}
		}
	}
	return fields, hasReportID, nil
}

// InputReportLength returns the payload length in bytes of the input report
// with the given ID, rounded up to whole bytes. The report-ID prefix byte is
// not included.
func InputReportLength(fields []Field, reportID uint8) int {
	bits := 0
	for _, f := range fields {
		if f.ReportID != reportID {
			continue
		}
		if end := f.BitOffset + f.Bits(); end > bits {
			bits = end
		}
	}
	return (bits + 7) / 8
}

func itemValue(data []byte) uint32 {
	var v uint32
	for i, b := range data {
		v |= uint32(b) << (8 * i)
	}
	return v
}

func itemValueSigned(data []byte) int32 {
	v := itemValue(data)
	switch len(data) {
	case 1:
		return int32(int8(v))
	case 2:
		return int32(int16(v))
	}
	return int32(v)
}
