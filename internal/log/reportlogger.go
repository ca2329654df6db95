package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// Direction tags a report dump with its transfer direction.
type Direction string

const (
	DirIn  Direction = "IN " // device -> host input report
	DirOut Direction = "OUT" // host -> device output report
)

// ReportLogger handles raw HID report dumps with optional file output.
type ReportLogger interface {
	Log(dir Direction, data []byte)
}

// reportLogger implements ReportLogger with thread-safe output.
type reportLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewReport creates a new ReportLogger. If writer is nil, returns a no-op
// logger.
func NewReport(w io.Writer) ReportLogger {
	return &reportLogger{w: w}
}

// Log emits a single-line raw report dump with timestamp and hex bytes.
func (r *reportLogger) Log(dir Direction, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s report: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
