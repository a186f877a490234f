//go:build amd64 && !noasm

// relax_amd64.go
//
// Go declaration for cpuRelax on amd64.  The body lives in relax_amd64.s
// and is a single PAUSE so cold-spin loops back off without leaving
// userspace.

package consumer

// cpuRelax executes the x86-64 PAUSE instruction.
//
//go:noescape
func cpuRelax()
