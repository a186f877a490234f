//go:build linux

// setaffinity_linux.go
//
// Pins the calling OS thread to one logical CPU via sched_setaffinity(2).
// The caller must already hold runtime.LockOSThread.  Failure (EPERM or
// EINVAL under cgroup or container limits) leaves the thread unpinned.

package consumer

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to cpu (0-based).
func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set) // pid 0 → current thread
}
