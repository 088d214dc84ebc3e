//go:build linux && !android

package native

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:revive // native symbol name
type d_getpid func() int32

func openLibc(t *testing.T, l *Loader) LibraryHandle {
	t.Helper()
	handle, err := l.LoadLibrary("libc.so.6")
	if err != nil {
		t.Skipf("glibc not available: %v", err)
	}
	t.Cleanup(func() {
		assert.True(t, l.FreeLibrary(handle))
	})
	return handle
}

func TestLibcSymbols(t *testing.T) {
	l := newTestLoader(t)
	handle := openLibc(t, l)

	t.Run("Existing symbol", func(t *testing.T) {
		assert.False(t, l.GetFunctionPointer(handle, "getpid").IsNull())
	})

	t.Run("Missing symbol is a null address", func(t *testing.T) {
		assert.True(t, l.GetFunctionPointer(handle, "definitely_not_a_libc_symbol").IsNull())
	})

	t.Run("Bind calls into libc", func(t *testing.T) {
		getpid, err := Bind[d_getpid](l, handle)
		require.NoError(t, err)
		assert.Equal(t, int32(os.Getpid()), getpid())
	})

	t.Run("Bind missing symbol", func(t *testing.T) {
		_, err := Bind[d_getpid](l, handle, "definitely_not_a_libc_symbol")
		var target *SymbolNotFoundError
		require.ErrorAs(t, err, &target)
	})
}

func TestSystemFallbackFindsLibc(t *testing.T) {
	l := newTestLoader(t, WithWorkingDirectory(t.TempDir()), WithBaseDirectory(t.TempDir()))
	lib, err := l.Open("c.so.6")
	if err != nil {
		t.Skipf("glibc not available: %v", err)
	}
	assert.Equal(t, "libc.so.6", lib.Path())
	require.NoError(t, lib.Close())
}
