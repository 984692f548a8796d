package script

import (
	"bytes"
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Lua evaluates a compiled Lua chunk once per file in a fresh interpreter.
// The chunk receives the path as its vararg and returns a folder name or nil.
// A chunk that returns a function instead has that function called with the
// path.
type Lua struct {
	path  string
	proto *lua.FunctionProto
}

// NewLua compiles the chunk stored at path.
func NewLua(path string) (*Lua, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chunk, err := parse.Parse(bytes.NewReader(src), path)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrScript, path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %w", ErrScript, path, err)
	}
	return &Lua{path: path, proto: proto}, nil
}

func (l *Lua) Name() string { return l.path }

func (l *Lua) Destination(ctx context.Context, path string) (string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}
	if err := openSafeLibs(L); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrScript, l.path, err)
	}

	result, err := call(L, L.NewFunctionFromProto(l.proto), path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrScript, l.path, err)
	}
	if fn, ok := result.(*lua.LFunction); ok {
		if result, err = call(L, fn, path); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrScript, l.path, err)
		}
	}

	switch v := result.(type) {
	case lua.LString:
		return string(v), nil
	case *lua.LNilType:
		return "", nil
	case lua.LBool:
		if !bool(v) {
			return "", nil
		}
	}
	return "", fmt.Errorf("%w: %s returned %s, want string or nil", ErrScript, l.path, result.Type())
}

func call(L *lua.LState, fn *lua.LFunction, path string) (lua.LValue, error) {
	L.Push(fn)
	L.Push(lua.LString(path))
	if err := L.PCall(1, 1, nil); err != nil {
		return nil, err
	}
	result := L.Get(-1)
	L.Pop(1)
	return result, nil
}

// openSafeLibs loads the libraries a sorting chunk needs; io and os stay closed.
func openSafeLibs(L *lua.LState) error {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return err
		}
	}
	return nil
}
