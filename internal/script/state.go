// Package script runs Lua scripts against a document.
//
// Scripts see a sandboxed subset of the Lua standard library (base, table,
// string, math) plus a global "doc" module bound to one document:
//
//	doc.begin("draw")
//	local a = doc.insert("line", {x1 = 0, y1 = 0, x2 = 10, y2 = 0})
//	doc.commit()
//	doc.update(a, "x2", 20)
//	doc.undo()
//	print(doc.counts())
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultCallLimit = 100_000
)

// State wraps a gopher-lua state with limits and a sandbox.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes Run calls
// from Go.
type State struct {
	L *lua.LState

	mu sync.Mutex

	timeout   time.Duration
	callLimit int
	calls     int
	out       io.Writer

	closed bool
}

// Option configures a State.
type Option func(*State)

// WithTimeout bounds each Run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *State) {
		s.timeout = d
	}
}

// WithCallLimit caps doc calls per Run. Zero disables the cap.
func WithCallLimit(n int) Option {
	return func(s *State) {
		s.callLimit = n
	}
}

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(s *State) {
		s.out = w
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...Option) *State {
	s := &State{
		timeout:   DefaultTimeout,
		callLimit: DefaultCallLimit,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.installSandbox()
	return s
}

// openSafeLibraries opens only libraries without host access.
// io, os, debug and package are not opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func (s *State) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("print", s.L.NewFunction(s.print))
}

func (s *State) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	return 0
}

// RegisterModule installs funcs as a global table.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.SetFuncs(s.L.NewTable(), funcs))
}

// Run executes src as a chunk called name.
func (s *State) Run(ctx context.Context, name, src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(runCtx)
	defer s.L.RemoveContext()
	s.calls = 0

	err = s.doWithRecovery(func() error {
		s.L.Push(fn)
		return s.L.PCall(0, lua.MultRet, nil)
	})
	s.L.SetTop(0)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return fmt.Errorf("%s: %w after %s", name, ErrTimeout, s.timeout)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", name, ctx.Err())
	case s.callLimit > 0 && s.calls > s.callLimit:
		return fmt.Errorf("%s: %w (%d)", name, ErrCallLimit, s.callLimit)
	}
	return fmt.Errorf("run %s: %w", name, err)
}

// RunFile executes the Lua file at path.
func (s *State) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	return s.Run(ctx, path, string(src))
}

// countCall charges one doc call and raises a Lua error past the limit.
func (s *State) countCall(L *lua.LState) {
	s.calls++
	if s.callLimit > 0 && s.calls > s.callLimit {
		L.RaiseError("%s (%d)", ErrCallLimit, s.callLimit)
	}
}

// doWithRecovery converts a Go panic inside Lua into an error.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state. Later runs return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
