package native

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RuntimeIdentifier returns the rid used for the bundled library directories,
// e.g. "win-x64". Platforms without desktop-style loading return an
// UnsupportedPlatformError.
func RuntimeIdentifier(p Platform, is64Bit bool) (string, error) {
	switch p {
	case PlatformWindows:
		if is64Bit {
			return "win-x64", nil
		}
		return "win-x86", nil
	case PlatformMacOS:
		return "osx-x64", nil
	case PlatformLinux:
		return "linux-x64", nil
	default:
		return "", &UnsupportedPlatformError{Platform: p}
	}
}

// SearchDirectories returns the directories probed for bundled libraries, in
// priority order: working directory, base directory, libs/<rid> and
// runtimes/<rid>/native. The list is computed once; every call returns the
// same sequence.
func (l *Loader) SearchDirectories() ([]string, error) {
	dirs, err := l.searchDirs()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), dirs...), nil
}

// SearchDirectories returns the search directories of the default loader.
func SearchDirectories() ([]string, error) {
	return Default().SearchDirectories()
}

func (l *Loader) buildSearchDirectories() ([]string, error) {
	rid, err := RuntimeIdentifier(l.platform, l.is64Bit)
	if err != nil {
		return nil, err
	}

	workDir := l.workDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
	}
	baseDir := l.baseDir
	if baseDir == "" {
		if baseDir, err = executableDir(); err != nil {
			l.logger.Warn("falling back to working directory as base directory", zap.Error(err))
			baseDir = workDir
		}
	}

	dirs := []string{
		workDir,
		baseDir,
		filepath.Join(workDir, "libs", rid),
		filepath.Join(workDir, "runtimes", rid, "native"),
	}
	l.logger.Debug("computed native library search directories", zap.String("rid", rid), zap.Strings("directories", dirs))
	return dirs, nil
}

// FindLibraryFile looks in dir, without recursing, for a shared library file
// for the logical name on the loader's platform. The first entry in listing
// order whose name starts with <prefix><name> and carries the platform
// extension wins; this includes versioned files such as libfoo.so.1.
// A missing directory is reported as no match.
func (l *Loader) FindLibraryFile(dir, name string) (string, bool) {
	ext, err := FileExtension(l.platform)
	if err != nil {
		return "", false
	}
	return findLibraryFile(dir, FilePrefix(l.platform)+name, ext, l.platform == PlatformWindows)
}

// FindLibraryFile runs FindLibraryFile on the default loader.
func FindLibraryFile(dir, name string) (string, bool) {
	return Default().FindLibraryFile(dir, name)
}

func findLibraryFile(dir, fileName, ext string, foldCase bool) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	if foldCase {
		fileName = strings.ToLower(fileName)
		ext = strings.ToLower(ext)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entryName := entry.Name()
		if foldCase {
			entryName = strings.ToLower(entryName)
		}
		stem, ok := trimLibraryExtension(entryName, ext)
		if !ok {
			continue
		}
		if strings.HasPrefix(stem, fileName) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// trimLibraryExtension strips ext, and a numeric version suffix after it such
// as ".1.2.3", from name. Other suffixes (".debug", ".bak") do not qualify.
func trimLibraryExtension(name, ext string) (string, bool) {
	if stem, ok := strings.CutSuffix(name, ext); ok {
		return stem, true
	}
	i := strings.Index(name, ext+".")
	if i <= 0 || !isVersionSuffix(name[i+len(ext):]) {
		return "", false
	}
	return name[:i], true
}

// isVersionSuffix reports whether s is one or more ".<digits>" segments.
func isVersionSuffix(s string) bool {
	if s == "" {
		return false
	}
	for _, segment := range strings.Split(s, ".")[1:] {
		if segment == "" {
			return false
		}
		for _, r := range segment {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return strings.HasPrefix(s, ".")
}
