//go:build linux

package runner

import "syscall"

// timevalSeconds converts a syscall.Timeval into fractional seconds.
func timevalSeconds(tv syscall.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}

// maxRSSBytes normalises Maxrss to bytes. Linux's getrusage reports
// ru_maxrss in kilobytes (§4.5 step 4: "if the platform reports
// kilobytes, multiply").
func maxRSSBytes(maxrss int64) int64 {
	return maxrss * 1024
}
