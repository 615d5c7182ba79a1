package script

import (
	"errors"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind/internal/document"
	"github.com/dshills/rewind/internal/engine/history"
)

// ModuleName is the global the document API is installed under.
const ModuleName = "doc"

// docModule exposes one document to Lua.
type docModule struct {
	state *State
	doc   *document.Document
}

// Bind installs the doc module for d on s.
func Bind(s *State, d *document.Document) {
	m := &docModule{state: s, doc: d}
	s.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"begin":       m.wrap(m.begin),
		"commit":      m.wrap(m.commit),
		"cancel":      m.wrap(m.cancel),
		"transaction": m.wrap(m.transaction),
		"insert":      m.wrap(m.insert),
		"update":      m.wrap(m.update),
		"delete":      m.wrap(m.delete),
		"get":         m.wrap(m.get),
		"visible":     m.wrap(m.visible),
		"undo":        m.wrap(m.undo),
		"redo":        m.wrap(m.redo),
		"counts":      m.wrap(m.counts),
		"dump":        m.wrap(m.dump),
		"json":        m.wrap(m.json),
	})
}

func (m *docModule) wrap(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		m.state.countCall(L)
		return fn(L)
	}
}

// check raises err as a Lua error.
func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func checkID(L *lua.LState, n int) uint64 {
	id := L.CheckInt64(n)
	if id <= 0 {
		L.ArgError(n, "entity id must be positive")
	}
	return uint64(id)
}

func (m *docModule) begin(L *lua.LState) int {
	check(L, m.doc.Begin(L.OptString(1, "")))
	return 0
}

func (m *docModule) commit(L *lua.LState) int {
	check(L, m.doc.Commit())
	return 0
}

func (m *docModule) cancel(L *lua.LState) int {
	check(L, m.doc.Cancel())
	return 0
}

// transaction(label, fn) runs fn in one cycle. The cycle is dropped when fn
// raises, and the error is re-raised.
func (m *docModule) transaction(L *lua.LState) int {
	label := L.CheckString(1)
	fn := L.CheckFunction(2)

	check(L, m.doc.Begin(label))
	L.Push(fn)
	if err := L.PCall(0, 0, nil); err != nil {
		_ = m.doc.Cancel()
		L.RaiseError("%s", err.Error())
		return 0
	}
	check(L, m.doc.Commit())
	return 0
}

func (m *docModule) insert(L *lua.LState) int {
	kind := L.CheckString(1)

	var attrs map[string]any
	if t := L.OptTable(2, nil); t != nil {
		var ok bool
		attrs, ok = toGoValue(t).(map[string]any)
		if !ok {
			L.ArgError(2, "attributes must be a table with string keys")
		}
	}

	e, err := m.doc.Insert(kind, attrs)
	check(L, err)
	L.Push(lua.LNumber(e.ID()))
	return 1
}

func (m *docModule) update(L *lua.LState) int {
	id := checkID(L, 1)
	path := L.CheckString(2)
	value := toGoValue(L.CheckAny(3))

	e, err := m.doc.Update(id, path, value)
	check(L, err)
	L.Push(lua.LNumber(e.ID()))
	return 1
}

func (m *docModule) delete(L *lua.LState) int {
	check(L, m.doc.Delete(checkID(L, 1)))
	return 0
}

// get(id, path) returns an attribute, or nil when the entity is not visible.
func (m *docModule) get(L *lua.LState) int {
	r, err := m.doc.Get(checkID(L, 1), L.CheckString(2))
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLuaValue(L, r.Value()))
	return 1
}

// visible returns a list of {id, kind, parent, attrs} tables. parent is
// nil for entities that did not replace another.
func (m *docModule) visible(L *lua.LState) int {
	entities := m.doc.Visible()
	list := L.CreateTable(len(entities), 0)
	for i, e := range entities {
		t := L.CreateTable(0, 4)
		t.RawSetString("id", lua.LNumber(e.ID()))
		t.RawSetString("kind", lua.LString(e.Kind()))
		if p := e.Parent(); p != 0 {
			t.RawSetString("parent", lua.LNumber(p))
		}
		t.RawSetString("attrs", toLuaValue(L, gjson.Parse(e.Attrs()).Value()))
		list.RawSetInt(i+1, t)
	}
	L.Push(list)
	return 1
}

// undo returns false at the start of history.
func (m *docModule) undo(L *lua.LState) int {
	return m.step(L, m.doc.Undo(), history.ErrNothingToUndo)
}

// redo returns false at the end of history.
func (m *docModule) redo(L *lua.LState) int {
	return m.step(L, m.doc.Redo(), history.ErrNothingToRedo)
}

func (m *docModule) step(L *lua.LState, err, boundary error) int {
	if errors.Is(err, boundary) {
		L.Push(lua.LFalse)
		return 1
	}
	check(L, err)
	L.Push(lua.LTrue)
	return 1
}

// counts returns the undo and redo counts.
func (m *docModule) counts(L *lua.LState) int {
	h := m.doc.History()
	L.Push(lua.LNumber(h.UndoCount()))
	L.Push(lua.LNumber(h.RedoCount()))
	return 2
}

func (m *docModule) dump(L *lua.LState) int {
	L.Push(lua.LString(m.doc.History().String()))
	return 1
}

func (m *docModule) json(L *lua.LState) int {
	out, err := m.doc.JSON()
	check(L, err)
	L.Push(lua.LString(out))
	return 1
}
