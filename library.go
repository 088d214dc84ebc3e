//go:build darwin || linux

package native

import (
	"runtime"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

const hostGOOS = runtime.GOOS

// dlopenMode makes symbols available immediately and to libraries loaded later.
const dlopenMode = purego.RTLD_NOW | purego.RTLD_GLOBAL

// systemBackend is the dlfcn backend shared by Linux and macOS.
type systemBackend struct{}

func (systemBackend) Open(path string) (LibraryHandle, error) {
	libHandle, err := purego.Dlopen(path, dlopenMode)
	if err != nil || libHandle == 0 {
		if err == nil {
			err = errors.New("loader returned a null handle")
		}
		return 0, errors.Wrapf(err, "dlopen %s", path)
	}
	return LibraryHandle(libHandle), nil
}

func (systemBackend) Resolve(handle LibraryHandle, symbol string) (FunctionHandle, error) {
	// dlsym(NULL, ...) searches the global scope.
	if handle == 0 {
		return 0, nil
	}
	addr, err := purego.Dlsym(uintptr(handle), symbol)
	if err != nil {
		// dlsym reports absence through dlerror; that is not a failure here.
		return 0, nil
	}
	return FunctionHandle(addr), nil
}

func (systemBackend) Close(handle LibraryHandle) (bool, error) {
	if handle == 0 {
		return false, errors.New("invalid library handle")
	}
	if err := purego.Dlclose(uintptr(handle)); err != nil {
		return false, errors.Errorf("failed to close library: %s", err.Error())
	}
	return true, nil
}
