//go:build linux

package forkjoin

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinThread binds the calling OS thread to a single CPU so a pinned
// worker stays put for the pool's lifetime. Failures are ignored; the
// scheduler is correct without affinity, just less cache-friendly.
func pinThread(id int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(id % runtime.NumCPU())
	_ = unix.SchedSetaffinity(0, &set)
}
