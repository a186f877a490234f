//go:build !linux

// setaffinity_stub.go
//
// Thread affinity is Linux-only; elsewhere consumers run unpinned.

package consumer

// setAffinity is a no-op on non-Linux targets.
func setAffinity(int) error { return nil }
