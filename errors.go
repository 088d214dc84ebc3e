package native

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrLibraryClosed is returned when a Library is used after Close.
	ErrLibraryClosed = errors.New("native library is closed")

	errUnknownPlatform = errors.New("platform could not be classified")
)

// UnsupportedPlatformError is returned when the detected platform has no
// runtime identifier and therefore no conventional search directories.
type UnsupportedPlatformError struct {
	Platform Platform
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform %s is not supported for native library loading", e.Platform)
}

// NotSupportedError is returned by the loader backend of platforms that are
// recognized but have no dynamic loading implementation (Android, iOS).
type NotSupportedError struct {
	Platform Platform
	Op       string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Op, e.Platform)
}

// LibraryLoadError means a library file was located but the native loader
// rejected it.
type LibraryLoadError struct {
	Path string
	Err  error
}

func (e *LibraryLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to load shared library: %s", e.Path)
	}
	return fmt.Sprintf("failed to load shared library: %s: %s", e.Path, e.Err.Error())
}

func (e *LibraryLoadError) Cause() error  { return e.Err }
func (e *LibraryLoadError) Unwrap() error { return e.Err }

// SymbolNotFoundError is returned by Bind when the library has no export with
// the requested name.
type SymbolNotFoundError struct {
	Name string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("could not find a function with the name '%s' in the library", e.Name)
}

// NativeLibraryNotFoundError is returned when neither the search directories
// nor the system loader could provide the library.
type NativeLibraryNotFoundError struct {
	Name     string
	Searched []string
}

func (e *NativeLibraryNotFoundError) Error() string {
	return fmt.Sprintf("could not find the native library: %s. Did you forget to place a native library in one of %v?", e.Name, e.Searched)
}
