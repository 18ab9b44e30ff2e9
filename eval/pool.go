package eval

import (
	"runtime"
	"sync/atomic"
)

// The worker pool is process-wide and shared read-only by every render
// call; it is just a concurrency limit, so contexts never contend on
// anything but the CPU.
var workerCount atomic.Int32

// Workers returns the number of workers a render call fans out to,
// defaulting to GOMAXPROCS-visible CPU count.
func Workers() int {
	if n := workerCount.Load(); n > 0 {
		return int(n)
	}
	return runtime.NumCPU()
}

// SetWorkers overrides the render worker count; n <= 0 restores the
// default. Safe to call at any time, applies to subsequent render calls.
func SetWorkers(n int) {
	if n < 0 {
		n = 0
	}
	workerCount.Store(int32(n))
}
