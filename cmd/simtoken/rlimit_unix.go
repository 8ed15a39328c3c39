//go:build unix

package main

import "golang.org/x/sys/unix"

// openFileLimit returns the soft limit on open file descriptors.
func openFileLimit() (uint64, bool) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, false
	}
	return uint64(rl.Cur), true
}
