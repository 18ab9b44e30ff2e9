package eval

import "fmt"

// A fault is a per-pixel runtime failure: integer division by zero, an
// out-of-range component index, or a blown loop/call budget. Faults never
// fail the frame; the offending pixel renders the sentinel color and the
// fault is reported through Diag.
type fault struct {
	msg string
}

func (e *exec) fault(format string, args ...interface{}) {
	panic(fault{msg: fmt.Sprintf(format, args...)})
}

// Sentinel color for faulted pixels: opaque magenta.
const (
	sentinelR = 0xFF
	sentinelG = 0x00
	sentinelB = 0xFF
	sentinelA = 0xFF
)

// Execution budgets per pixel. A shader that exceeds them is almost
// certainly stuck, and one runaway pixel must not hang the frame.
const (
	maxLoopSteps = 65536
	maxCallDepth = 64
)
