package native

import (
	"runtime"
	"sync"
)

// Platform is the operating system category the process runs on.
type Platform uint8

const (
	PlatformUnknown Platform = iota
	PlatformWindows
	PlatformMacOS
	PlatformLinux
	PlatformAndroid
	PlatformIOS
)

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformMacOS:
		return "macos"
	case PlatformLinux:
		return "linux"
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	default:
		return "unknown"
	}
}

var currentPlatform = sync.OnceValue(func() Platform {
	return DetectPlatform(runtime.GOOS)
})

// CurrentPlatform returns the platform of the running process. The value is
// computed on first use and never changes afterwards.
func CurrentPlatform() Platform {
	return currentPlatform()
}

// DetectPlatform maps a GOOS value to a Platform.
func DetectPlatform(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	case "linux":
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// FilePrefix returns the file name prefix of shared libraries on p.
func FilePrefix(p Platform) string {
	if p == PlatformWindows {
		return ""
	}
	return "lib"
}

// FileExtension returns the shared library extension used on p, or an
// UnsupportedPlatformError when p has no desktop-style shared libraries.
func FileExtension(p Platform) (string, error) {
	switch p {
	case PlatformWindows:
		return ".dll", nil
	case PlatformMacOS:
		return ".dylib", nil
	case PlatformLinux:
		return ".so", nil
	default:
		return "", &UnsupportedPlatformError{Platform: p}
	}
}
