package native

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:revive // native symbol names
type (
	d_SDL_Init    func(flags uint32) int32
	d_SDL_Quit    func()
	SDL_GetTicks  func() uint32
	d_FNA3D_Dummy func(device uintptr) int32
)

func TestSymbolName(t *testing.T) {
	tests := []struct {
		name     string
		symbol   func() string
		expected string
	}{
		{"Strips delegate prefix", func() string { return symbolName(typeOf[d_SDL_Init](), nil) }, "SDL_Init"},
		{"Keeps plain names", func() string { return symbolName(typeOf[SDL_GetTicks](), nil) }, "SDL_GetTicks"},
		{"Explicit name wins", func() string { return symbolName(typeOf[d_SDL_Init](), []string{"SDL_InitSubSystem"}) }, "SDL_InitSubSystem"},
		{"Empty explicit name falls back", func() string { return symbolName(typeOf[d_SDL_Quit](), []string{""}) }, "SDL_Quit"},
		{"Unnamed func type", func() string { return symbolName(typeOf[func()](), nil) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.symbol())
		})
	}
}

func TestBind(t *testing.T) {
	b := newFakeBackend().add("/opt/libs/libSDL2.so", "SDL_Init", "SDL_Quit", "SDL_InitSubSystem")
	l := newTestLoader(t, WithPlatform(PlatformLinux), WithBackend(b))
	handle, err := l.LoadLibrary("/opt/libs/libSDL2.so")
	require.NoError(t, err)
	defer l.FreeLibrary(handle)

	t.Run("Derived name", func(t *testing.T) {
		fn, err := Bind[d_SDL_Init](l, handle)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	})

	t.Run("Explicit name", func(t *testing.T) {
		fn, err := Bind[d_SDL_Init](l, handle, "SDL_InitSubSystem")
		require.NoError(t, err)
		assert.NotNil(t, fn)
	})

	t.Run("Missing symbol", func(t *testing.T) {
		assert.True(t, l.GetFunctionPointer(handle, "FNA3D_Dummy").IsNull())

		fn, err := Bind[d_FNA3D_Dummy](l, handle)
		assert.Nil(t, fn)
		var target *SymbolNotFoundError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "FNA3D_Dummy", target.Name)
		assert.Contains(t, err.Error(), "'FNA3D_Dummy'")
	})

	t.Run("Not a func type", func(t *testing.T) {
		_, err := Bind[int](l, handle, "SDL_Init")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a func type")
	})

	t.Run("Unsupported argument kind", func(t *testing.T) {
		fn, err := Bind[func(chan int)](l, handle, "SDL_Quit")
		require.Error(t, err)
		assert.Nil(t, fn)
		assert.Contains(t, err.Error(), "cannot bind SDL_Quit")
	})

	t.Run("Unnamed func type without name", func(t *testing.T) {
		_, err := Bind[func()](l, handle)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no symbol name given")

		fn, err := Bind[func()](l, handle, "SDL_Quit")
		require.NoError(t, err)
		assert.NotNil(t, fn)
	})
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestBindSurfacesBackendError(t *testing.T) {
	l := newTestLoader(t, WithPlatform(PlatformAndroid))

	_, err := Bind[d_SDL_Init](l, 1)
	var notSupported *NotSupportedError
	require.ErrorAs(t, err, &notSupported)
	assert.Equal(t, PlatformAndroid, notSupported.Platform)

	var notFound *SymbolNotFoundError
	assert.False(t, errors.As(err, &notFound))
	assert.True(t, l.GetFunctionPointer(1, "SDL_Init").IsNull())
}
