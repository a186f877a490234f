//go:build arm64 && !noasm

// relax_arm64.go
//
// Go declaration for cpuRelax on arm64.  relax_arm64.s emits YIELD, the
// spin-wait hint on ARM cores.

package consumer

// cpuRelax executes the arm64 YIELD instruction.
//
//go:noescape
func cpuRelax()
