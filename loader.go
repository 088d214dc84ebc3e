package native

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LibraryHandle is an opaque handle to a loaded native module. Whoever
// obtained it must pass it to FreeLibrary exactly once.
type LibraryHandle uintptr

// IsNull reports whether h is the null handle.
func (h LibraryHandle) IsNull() bool { return h == 0 }

// FunctionHandle is the address of a symbol inside a loaded module. It is only
// valid while the LibraryHandle it came from is loaded.
type FunctionHandle uintptr

// IsNull reports whether f is the null address.
func (f FunctionHandle) IsNull() bool { return f == 0 }

// Loader binds a platform, its backend and the search directories derived
// from the process environment. A Loader is safe for concurrent use.
type Loader struct {
	platform   Platform
	is64Bit    bool
	backend    Backend
	workDir    string
	baseDir    string
	config     *Config
	logger     *zap.Logger
	searchDirs func() ([]string, error)
}

type Option func(l *Loader) error

// WithPlatform overrides the detected platform. Unless WithBackend is also
// given, forcing a platform other than the host one yields a backend that
// fails every operation.
func WithPlatform(p Platform) Option {
	return func(l *Loader) error {
		l.platform = p
		return nil
	}
}

// WithBackend replaces the dynamic loading backend.
func WithBackend(b Backend) Option {
	return func(l *Loader) error {
		if b == nil {
			return errors.New("backend cannot be nil")
		}
		l.backend = b
		return nil
	}
}

// WithWorkingDirectory sets the directory the search path is rooted at instead
// of the process working directory.
func WithWorkingDirectory(dir string) Option {
	return func(l *Loader) error {
		if dir == "" {
			return errors.New("working directory cannot be empty")
		}
		l.workDir = dir
		return nil
	}
}

// WithBaseDirectory sets the application installation directory instead of
// the directory holding the executable.
func WithBaseDirectory(dir string) Option {
	return func(l *Loader) error {
		if dir == "" {
			return errors.New("base directory cannot be empty")
		}
		l.baseDir = dir
		return nil
	}
}

// With64BitProcess overrides the detected process bitness used for the
// runtime identifier.
func With64BitProcess(is64Bit bool) Option {
	return func(l *Loader) error {
		l.is64Bit = is64Bit
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		l.logger = logger
		return nil
	}
}

// WithConfig merges cfg over the configuration already set on the loader.
func WithConfig(cfg *Config) Option {
	return func(l *Loader) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		l.config = l.config.Merge(cfg)
		return nil
	}
}

func newLoader() *Loader {
	return &Loader{
		platform: CurrentPlatform(),
		is64Bit:  strconv.IntSize == 64,
		config:   &Config{},
		logger:   zap.NewNop(),
	}
}

func (l *Loader) init() {
	if l.backend == nil {
		l.backend = selectBackend(l.platform)
	}
	l.searchDirs = sync.OnceValues(l.buildSearchDirectories)
}

// New builds a Loader for the current process. The backend is chosen once,
// here, from the platform.
func New(opts ...Option) (*Loader, error) {
	l := newLoader()
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply loader option")
		}
	}
	l.init()
	return l, nil
}

var defaultLoader = sync.OnceValue(func() *Loader {
	l := newLoader()
	l.config = ConfigFromEnv()
	l.init()
	return l
})

// Default returns the process-wide Loader used by the package level
// functions. It reads its configuration from the environment on first use.
func Default() *Loader {
	return defaultLoader()
}

// Platform returns the platform the loader was built for.
func (l *Loader) Platform() Platform { return l.platform }

// LoadLibrary loads the shared library at path. The returned handle is owned
// by the caller; calls are not deduplicated, so two loads of the same path
// produce two handles that must each be freed.
func (l *Loader) LoadLibrary(path string) (LibraryHandle, error) {
	handle, err := l.backend.Open(path)
	if handle.IsNull() {
		if err == nil {
			err = errors.New("loader returned a null handle")
		}
		return 0, &LibraryLoadError{Path: path, Err: err}
	}
	l.logger.Debug("loaded native library", zap.String("path", path), zap.Uintptr("handle", uintptr(handle)))
	return handle, nil
}

// FreeLibrary releases handle and reports whether the native loader succeeded.
// It must be called exactly once per handle: freeing twice, or using the
// handle or any FunctionHandle obtained from it afterwards, is undefined.
func (l *Loader) FreeLibrary(handle LibraryHandle) bool {
	ok, err := l.backend.Close(handle)
	if err != nil {
		l.logger.Debug("failed to free native library", zap.Uintptr("handle", uintptr(handle)), zap.Error(err))
	}
	return ok
}

// GetFunctionPointer returns the address of name inside handle, or a null
// FunctionHandle when the library has no such export. handle must not have
// been freed.
func (l *Loader) GetFunctionPointer(handle LibraryHandle, name string) FunctionHandle {
	addr, err := l.resolve(handle, name)
	if err != nil {
		l.logger.Debug("failed to resolve symbol", zap.String("symbol", name), zap.Error(err))
		return 0
	}
	return addr
}

// resolve is GetFunctionPointer keeping the backend error, e.g. the
// NotSupportedError of mobile platforms.
func (l *Loader) resolve(handle LibraryHandle, name string) (FunctionHandle, error) {
	addr, err := l.backend.Resolve(handle, name)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to resolve symbol %s", name)
	}
	return addr, nil
}

// LoadLibrary loads path with the default loader.
func LoadLibrary(path string) (LibraryHandle, error) {
	return Default().LoadLibrary(path)
}

// FreeLibrary frees handle with the default loader.
func FreeLibrary(handle LibraryHandle) bool {
	return Default().FreeLibrary(handle)
}

// GetFunctionPointer resolves name inside handle with the default loader.
func GetFunctionPointer(handle LibraryHandle, name string) FunctionHandle {
	return Default().GetFunctionPointer(handle, name)
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
