package native

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend accepts the paths registered with add and hands out a fresh
// handle for every Open, like a real loader that does not deduplicate.
type fakeBackend struct {
	mu      sync.Mutex
	libs    map[string][]string
	handles map[LibraryHandle]string
	freed   map[LibraryHandle]int
	opened  []string
	next    LibraryHandle
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		libs:    make(map[string][]string),
		handles: make(map[LibraryHandle]string),
		freed:   make(map[LibraryHandle]int),
		next:    0x100,
	}
}

func (b *fakeBackend) add(path string, symbols ...string) *fakeBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.libs[path] = symbols
	return b
}

func (b *fakeBackend) Open(path string) (LibraryHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, path)
	if _, ok := b.libs[path]; !ok {
		return 0, errors.Errorf("%s: cannot open shared object file", path)
	}
	b.next++
	b.handles[b.next] = path
	return b.next, nil
}

func (b *fakeBackend) Resolve(handle LibraryHandle, symbol string) (FunctionHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path, ok := b.handles[handle]
	if !ok || b.freed[handle] > 0 {
		return 0, nil
	}
	for i, s := range b.libs[path] {
		if s == symbol {
			return FunctionHandle(0x1000 + i), nil
		}
	}
	return 0, nil
}

func (b *fakeBackend) Close(handle LibraryHandle) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handles[handle]; !ok {
		return false, errors.New("unknown handle")
	}
	b.freed[handle]++
	return b.freed[handle] == 1, nil
}

func (b *fakeBackend) openCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

func (b *fakeBackend) freeCount(handle LibraryHandle) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freed[handle]
}

func TestSelectBackend(t *testing.T) {
	t.Run("Host platform uses the system backend", func(t *testing.T) {
		host := DetectPlatform(hostGOOS)
		if host != PlatformWindows && host != PlatformMacOS && host != PlatformLinux {
			t.Skipf("no system backend on %s", hostGOOS)
		}
		assert.IsType(t, systemBackend{}, selectBackend(host))
	})

	t.Run("Unknown platform", func(t *testing.T) {
		assert.IsType(t, unknownBackend{}, selectBackend(PlatformUnknown))
	})

	t.Run("Mobile platforms", func(t *testing.T) {
		assert.Equal(t, unsupportedBackend{platform: PlatformAndroid}, selectBackend(PlatformAndroid))
		assert.Equal(t, unsupportedBackend{platform: PlatformIOS}, selectBackend(PlatformIOS))
	})
}

func TestUnknownBackendFailsByValue(t *testing.T) {
	b := unknownBackend{}

	handle, err := b.Open("libfoo.so")
	assert.True(t, handle.IsNull())
	assert.ErrorIs(t, err, errUnknownPlatform)

	addr, err := b.Resolve(1, "foo")
	assert.NoError(t, err)
	assert.True(t, addr.IsNull())

	ok, err := b.Close(1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestUnsupportedBackendFailsFast(t *testing.T) {
	b := unsupportedBackend{platform: PlatformIOS}
	var target *NotSupportedError

	_, err := b.Open("libfoo.dylib")
	require.ErrorAs(t, err, &target)
	assert.Equal(t, PlatformIOS, target.Platform)

	_, err = b.Resolve(1, "foo")
	require.ErrorAs(t, err, &target)

	ok, err := b.Close(1)
	require.ErrorAs(t, err, &target)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "not supported on ios")
}
