//go:build !darwin && !linux && !windows

package native

import "runtime"

const hostGOOS = runtime.GOOS

// systemBackend has no dynamic loader to talk to on this OS.
type systemBackend struct {
	unknownBackend
}
