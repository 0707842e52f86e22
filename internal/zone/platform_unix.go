//go:build unix

package zone

import "golang.org/x/sys/unix"

// Supported returns true if the running kernel provides zones.
func Supported() bool {
	return Sysname() == "SunOS"
}

// Sysname returns the kernel name reported by uname(2).
func Sysname() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "unknown"
	}
	return unix.ByteSliceToString(uts.Sysname[:])
}
