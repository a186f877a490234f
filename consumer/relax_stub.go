//go:build (!amd64 && !arm64) || noasm

// relax_stub.go
//
// Portable fall-back for targets without a spin hint or when assembly is
// disabled.

package consumer

// cpuRelax is a no-op on unsupported targets.
func cpuRelax() {}
