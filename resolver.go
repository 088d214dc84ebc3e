package native

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrResolverClosed is returned by Resolve after the Resolver was closed.
var ErrResolverClosed = errors.New("import resolver is closed")

// ImportRequest asks for the native module behind a logical library name.
type ImportRequest struct {
	// Name is the platform neutral library name, e.g. "SDL2".
	Name string
	// Module identifies the requesting module. It is only used for logging.
	Module string
	// SearchPaths are directories tried by the system fallback before the
	// platform's default search.
	SearchPaths []string
}

// ResolveImport locates and loads the library for req. The configured and
// conventional directories are searched in order and the first matching file
// is loaded; if none matches, the platform's default search is tried. The
// caller owns the returned handle.
func (l *Loader) ResolveImport(req ImportRequest) (LibraryHandle, error) {
	handle, _, err := l.resolveImport(req)
	return handle, err
}

// ResolveImport resolves req with the default loader.
func ResolveImport(req ImportRequest) (LibraryHandle, error) {
	return Default().ResolveImport(req)
}

func (l *Loader) resolveImport(req ImportRequest) (LibraryHandle, string, error) {
	if req.Name == "" {
		return 0, "", errors.New("library name cannot be empty")
	}
	log := l.logger.With(zap.String("library", req.Name), zap.String("module", req.Module))

	if path, ok := l.config.libraryOverride(req.Name); ok {
		log.Debug("using configured library path", zap.String("path", path))
		handle, err := l.LoadLibrary(path)
		if err != nil {
			return 0, "", err
		}
		return handle, path, nil
	}

	dirs, err := l.candidateDirectories()
	if err != nil {
		return 0, "", err
	}
	for _, dir := range dirs {
		path, ok := l.FindLibraryFile(dir, req.Name)
		if !ok {
			log.Debug("no library file in directory", zap.String("directory", dir))
			continue
		}
		handle, err := l.LoadLibrary(path)
		if err != nil {
			return 0, "", err
		}
		return handle, path, nil
	}

	if l.config.systemFallbackEnabled() {
		if handle, path, ok := l.systemLoad(req, log); ok {
			return handle, path, nil
		}
	}
	return 0, "", &NativeLibraryNotFoundError{Name: req.Name, Searched: dirs}
}

func (l *Loader) candidateDirectories() ([]string, error) {
	dirs, err := l.SearchDirectories()
	if err != nil {
		return nil, err
	}
	return append(append([]string(nil), l.config.ExtraDirectories...), dirs...), nil
}

// systemLoad hands the request to the platform's own search order.
func (l *Loader) systemLoad(req ImportRequest, log *zap.Logger) (LibraryHandle, string, bool) {
	var paths []string
	candidates := l.systemCandidates(req.Name)
	for _, dir := range req.SearchPaths {
		for _, candidate := range candidates {
			paths = append(paths, filepath.Join(dir, candidate))
		}
	}
	paths = append(paths, candidates...)

	for _, path := range paths {
		handle, err := l.backend.Open(path)
		if handle.IsNull() {
			log.Debug("system loader rejected candidate", zap.String("candidate", path), zap.Error(err))
			continue
		}
		log.Debug("loaded library through system search", zap.String("candidate", path))
		return handle, path, true
	}
	return 0, "", false
}

// systemCandidates lists the file names the default search is asked for:
// the name as given, then with the platform prefix and extension variations.
func (l *Loader) systemCandidates(name string) []string {
	prefix := FilePrefix(l.platform)
	ext, _ := FileExtension(l.platform)

	candidates := []string{name}
	if ext != "" && !strings.HasSuffix(name, ext) {
		candidates = append(candidates, prefix+name+ext, name+ext)
	}
	candidates = append(candidates, prefix+name)

	seen := make(map[string]struct{}, len(candidates))
	unique := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// Resolver is the import table of one requesting module: each logical name
// is resolved at most once and the handle is kept until Close.
type Resolver struct {
	loader *Loader
	module string
	group  singleflight.Group

	mu      sync.Mutex
	handles map[string]LibraryHandle
	order   []string
	closed  bool
}

// NewResolver creates the import table for module. A nil loader means Default().
func NewResolver(l *Loader, module string) *Resolver {
	if l == nil {
		l = Default()
	}
	return &Resolver{
		loader:  l,
		module:  module,
		handles: make(map[string]LibraryHandle),
	}
}

// Resolve returns the handle for name, resolving it on first use. Concurrent
// first requests for the same name share one load. The table is keyed by name
// only: searchPaths are used by the first successful resolution and ignored
// once the name is cached.
func (r *Resolver) Resolve(name string, searchPaths ...string) (LibraryHandle, error) {
	if handle, ok, err := r.lookup(name); ok || err != nil {
		return handle, err
	}

	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		if handle, ok, err := r.lookup(name); ok || err != nil {
			return handle, err
		}
		handle, err := r.loader.ResolveImport(ImportRequest{Name: name, Module: r.module, SearchPaths: searchPaths})
		if err != nil {
			return LibraryHandle(0), err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			r.loader.FreeLibrary(handle)
			return LibraryHandle(0), ErrResolverClosed
		}
		r.handles[name] = handle
		r.order = append(r.order, name)
		return handle, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(LibraryHandle), nil
}

func (r *Resolver) lookup(name string) (LibraryHandle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, false, ErrResolverClosed
	}
	handle, ok := r.handles[name]
	return handle, ok, nil
}

// Len returns the number of libraries currently held.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close frees every handle the resolver loaded, in load order. Handles
// returned by Resolve must not be used afterwards.
func (r *Resolver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	order, handles := r.order, r.handles
	r.order, r.handles = nil, nil
	r.mu.Unlock()

	var failed []string
	for _, name := range order {
		if !r.loader.FreeLibrary(handles[name]) {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("failed to free native libraries: %s", strings.Join(failed, ", "))
	}
	return nil
}
