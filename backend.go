package native

// Backend is the uniform capability over a platform's dynamic loading
// primitive. A null LibraryHandle or FunctionHandle signals failure.
type Backend interface {
	// Open loads the library at path. When path holds no directory component
	// the platform's default search order is used.
	Open(path string) (LibraryHandle, error)
	// Resolve returns the address of symbol or a null handle when absent.
	Resolve(handle LibraryHandle, symbol string) (FunctionHandle, error)
	// Close releases handle and reports whether the native loader succeeded.
	Close(handle LibraryHandle) (bool, error)
}

// selectBackend picks the backend variant for p. It runs once per Loader.
func selectBackend(p Platform) Backend {
	switch p {
	case PlatformWindows, PlatformMacOS, PlatformLinux:
		if p == DetectPlatform(hostGOOS) {
			return systemBackend{}
		}
		// A foreign platform was forced without a backend to go with it.
		return unknownBackend{}
	case PlatformAndroid, PlatformIOS:
		return unsupportedBackend{platform: p}
	default:
		return unknownBackend{}
	}
}

// unknownBackend fails every operation by value.
type unknownBackend struct{}

func (unknownBackend) Open(string) (LibraryHandle, error) {
	return 0, errUnknownPlatform
}

func (unknownBackend) Resolve(LibraryHandle, string) (FunctionHandle, error) {
	return 0, nil
}

func (unknownBackend) Close(LibraryHandle) (bool, error) {
	return false, nil
}

type unsupportedBackend struct {
	platform Platform
}

func (b unsupportedBackend) Open(string) (LibraryHandle, error) {
	return 0, &NotSupportedError{Platform: b.platform, Op: "loading a native library"}
}

func (b unsupportedBackend) Resolve(LibraryHandle, string) (FunctionHandle, error) {
	return 0, &NotSupportedError{Platform: b.platform, Op: "resolving a native symbol"}
}

func (b unsupportedBackend) Close(LibraryHandle) (bool, error) {
	return false, &NotSupportedError{Platform: b.platform, Op: "freeing a native library"}
}
