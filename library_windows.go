//go:build windows

package native

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const hostGOOS = runtime.GOOS

// systemBackend wraps LoadLibrary/GetProcAddress/FreeLibrary from kernel32.
type systemBackend struct{}

func (systemBackend) Open(path string) (LibraryHandle, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil || handle == 0 {
		if err == nil {
			err = errors.New("loader returned a null handle")
		}
		return 0, errors.Wrapf(err, "LoadLibrary %s", path)
	}
	return LibraryHandle(handle), nil
}

func (systemBackend) Resolve(handle LibraryHandle, symbol string) (FunctionHandle, error) {
	if handle == 0 {
		return 0, nil
	}
	proc, err := windows.GetProcAddress(windows.Handle(handle), symbol)
	if err != nil {
		return 0, nil
	}
	return FunctionHandle(proc), nil
}

func (systemBackend) Close(handle LibraryHandle) (bool, error) {
	if handle == 0 {
		return false, errors.New("invalid library handle")
	}
	if err := windows.FreeLibrary(windows.Handle(handle)); err != nil {
		return false, errors.Errorf("failed to close library: %s", err.Error())
	}
	return true, nil
}
