//go:build !unix

package zone

import "runtime"

// Supported returns true if the running kernel provides zones.
func Supported() bool {
	return false
}

// Sysname returns the kernel name.
func Sysname() string {
	return runtime.GOOS
}
