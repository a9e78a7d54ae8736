package script

import (
	"math"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// Converter translates between Lua values and the JSON-shaped Go values
// that cross a scope boundary.
type Converter struct {
	L *lua.LState
}

// NewConverter creates a Converter for the given Lua state.
func NewConverter(L *lua.LState) *Converter {
	return &Converter{L: L}
}

// ToGo converts a Lua value to a Go value. Functions and userdata have no
// JSON form and become nil, as do tables already being converted.
func (c *Converter) ToGo(lv lua.LValue) any {
	return c.toGo(lv, make(map[*lua.LTable]bool))
}

func (c *Converter) toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return c.tableToGo(v, visited)
	default:
		return nil
	}
}

// tableToGo converts a Lua table to a slice when its keys are exactly
// 1..n, and to a map otherwise.
func (c *Converter) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	count, maxN := 0, 0
	isArray := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				maxN = max(maxN, n)
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = c.toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			return
		}
		m[key] = c.toGo(v, visited)
	})
	return m
}

// ToLua converts a Go value to a Lua value.
func (c *Converter) ToLua(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := c.L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, c.ToLua(item))
		}
		return t
	case []string:
		t := c.L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, lua.LString(item))
		}
		return t
	case map[string]any:
		t := c.L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, c.ToLua(item))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LNil
	}
}
