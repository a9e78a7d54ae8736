package bridge

import (
	"encoding/json"
	"strconv"
	"strings"
)

// closureHeader starts the text form of a closure descriptor. It is a Lua
// comment, so the text form is still a valid chunk.
const closureHeader = "--@closure "

// Code is the executable unit carried by a TriggerMessage: source text, or
// a closure descriptor naming a function prototype inside a chunk.
type Code struct {
	source  string
	path    []int
	closure bool
}

// Source returns plain source code.
func Source(text string) Code {
	return Code{source: text}
}

// Closure returns a closure descriptor for the function whose prototype
// sits at path inside chunk. path lists child prototype indexes from the
// chunk's main function downwards.
func Closure(chunk string, path []int) Code {
	p := make([]int, len(path))
	copy(p, path)
	return Code{source: chunk, path: p, closure: true}
}

// IsClosure reports whether the code is a closure descriptor.
func (c Code) IsClosure() bool {
	return c.closure
}

// IsZero reports whether the code is empty.
func (c Code) IsZero() bool {
	return c.source == "" && !c.closure
}

// Chunk returns the source text the code is compiled from.
func (c Code) Chunk() string {
	return c.source
}

// Path returns the prototype path of a closure descriptor.
func (c Code) Path() []int {
	p := make([]int, len(c.path))
	copy(p, c.path)
	return p
}

// String returns the transportable source text form of the code.
func (c Code) String() string {
	if !c.closure {
		return c.source
	}

	parts := make([]string, len(c.path))
	for i, n := range c.path {
		parts[i] = strconv.Itoa(n)
	}
	return closureHeader + strings.Join(parts, ".") + "\n" + c.source
}

// ParseCode recovers a Code from its text form. Text without a well-formed
// closure header is plain source.
func ParseCode(text string) Code {
	rest, ok := strings.CutPrefix(text, closureHeader)
	if !ok {
		return Source(text)
	}

	header, chunk, ok := strings.Cut(rest, "\n")
	if !ok {
		return Source(text)
	}

	header = strings.TrimSpace(header)
	var path []int
	if header != "" {
		for _, part := range strings.Split(header, ".") {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return Source(text)
			}
			path = append(path, n)
		}
	}

	return Closure(chunk, path)
}

// MarshalJSON encodes the code as its text form.
func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a code string. Non-string values are coerced to
// their JSON text, null decodes to empty code.
func (c *Code) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		raw := strings.TrimSpace(string(data))
		if raw == "null" {
			*c = Code{}
			return nil
		}
		*c = Source(raw)
		return nil
	}
	*c = ParseCode(s)
	return nil
}
