package native

import (
	"sync"

	"github.com/pkg/errors"
)

// Library owns one loaded native module. Close frees the handle exactly once;
// symbol lookups after Close return ErrLibraryClosed instead of touching the
// freed handle.
type Library struct {
	loader *Loader
	path   string

	mu     sync.RWMutex
	handle LibraryHandle
}

// Open resolves the logical name like ResolveImport and wraps the handle in a
// Library owned by the caller.
func (l *Loader) Open(name string) (*Library, error) {
	handle, path, err := l.resolveImport(ImportRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return &Library{loader: l, path: path, handle: handle}, nil
}

// OpenFile loads the library at path and wraps the handle in a Library.
func (l *Loader) OpenFile(path string) (*Library, error) {
	handle, err := l.LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return &Library{loader: l, path: path, handle: handle}, nil
}

// Open resolves name with the default loader.
func Open(name string) (*Library, error) {
	return Default().Open(name)
}

// Path returns the file or system search candidate that was loaded.
func (lib *Library) Path() string { return lib.path }

// Handle returns the raw handle, or a null handle after Close. The handle
// stays owned by lib and must not be freed directly.
func (lib *Library) Handle() LibraryHandle {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return lib.handle
}

// Symbol returns the address of name. A missing export is a null
// FunctionHandle, not an error.
func (lib *Library) Symbol(name string) (FunctionHandle, error) {
	handle, err := lib.acquire()
	if err != nil {
		return 0, err
	}
	defer lib.release()
	return lib.loader.GetFunctionPointer(handle, name), nil
}

// Close frees the library. Calling it again returns ErrLibraryClosed.
func (lib *Library) Close() error {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	if lib.handle.IsNull() {
		return ErrLibraryClosed
	}
	handle := lib.handle
	lib.handle = 0
	if !lib.loader.FreeLibrary(handle) {
		return errors.Errorf("failed to close shared library: %s", lib.path)
	}
	return nil
}

// acquire holds the read lock so Close cannot free the handle while a lookup
// is in flight. release must follow a successful acquire.
func (lib *Library) acquire() (LibraryHandle, error) {
	lib.mu.RLock()
	if lib.handle.IsNull() {
		lib.mu.RUnlock()
		return 0, ErrLibraryClosed
	}
	return lib.handle, nil
}

func (lib *Library) release() {
	lib.mu.RUnlock()
}
