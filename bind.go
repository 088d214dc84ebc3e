package native

import (
	"reflect"
	"strings"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// delegatePrefix marks Go func type names that mirror a native symbol,
// e.g. type d_SDL_Init resolves SDL_Init.
const delegatePrefix = "d_"

// Bind resolves a symbol in handle and returns it as a callable of type T,
// which must be a func type. Without an explicit name the symbol is the
// name of T with a leading "d_" removed. A nil loader means Default().
//
// A missing symbol yields a *SymbolNotFoundError; a backend failure such as
// a *NotSupportedError is returned as is. The returned function is
// only valid until handle is freed.
func Bind[T any](l *Loader, handle LibraryHandle, name ...string) (T, error) {
	var fn T
	fnType := reflect.TypeOf((*T)(nil)).Elem()
	if fnType.Kind() != reflect.Func {
		return fn, errors.Errorf("cannot bind %s: not a func type", fnType)
	}
	if l == nil {
		l = Default()
	}

	symbol := symbolName(fnType, name)
	if symbol == "" {
		return fn, errors.Errorf("cannot bind %s: no symbol name given for an unnamed func type", fnType)
	}
	addr, err := l.resolve(handle, symbol)
	if err != nil {
		return fn, err
	}
	if addr.IsNull() {
		return fn, &SymbolNotFoundError{Name: symbol}
	}
	if err := registerFunc(&fn, addr); err != nil {
		return fn, errors.Wrapf(err, "cannot bind %s to %s", symbol, fnType)
	}
	return fn, nil
}

// registerFunc turns the panic purego raises for argument or return kinds it
// cannot marshal into an error.
func registerFunc(fptr any, addr FunctionHandle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
	}()
	purego.RegisterFunc(fptr, uintptr(addr))
	return nil
}

// BindLibrary binds a symbol of an owned Library. It fails with
// ErrLibraryClosed once the library has been closed.
func BindLibrary[T any](lib *Library, name ...string) (T, error) {
	handle, err := lib.acquire()
	if err != nil {
		var zero T
		return zero, err
	}
	defer lib.release()
	return Bind[T](lib.loader, handle, name...)
}

func symbolName(fnType reflect.Type, explicit []string) string {
	if len(explicit) > 0 && explicit[0] != "" {
		return explicit[0]
	}
	return strings.TrimPrefix(fnType.Name(), delegatePrefix)
}
