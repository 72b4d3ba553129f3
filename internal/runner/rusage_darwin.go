//go:build darwin

package runner

import "syscall"

// timevalSeconds converts a syscall.Timeval into fractional seconds.
func timevalSeconds(tv syscall.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}

// maxRSSBytes: Darwin's getrusage already reports ru_maxrss in bytes,
// unlike Linux (§4.5 step 4).
func maxRSSBytes(maxrss int64) int64 {
	return maxrss
}
