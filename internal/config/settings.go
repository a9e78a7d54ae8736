package config

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dshills/contextlets/internal/menu"
)

// Top-level setting names.
const (
	FieldItems       = "items"
	FieldLineNumbers = "lineNumbers"
	FieldValidate    = "validate"
)

// Settings is the decoded configuration.
type Settings struct {
	Items       []menu.ItemDefinition
	LineNumbers bool
	Validate    bool
}

// Defaults returns the settings used for absent fields.
func Defaults() Settings {
	return Settings{
		Items:       []menu.ItemDefinition{},
		LineNumbers: false,
		Validate:    true,
	}
}

// Clone returns a copy of s whose item slice can be modified freely.
func (s Settings) Clone() Settings {
	out := s
	out.Items = slices.Clone(s.Items)
	if out.Items == nil {
		out.Items = []menu.ItemDefinition{}
	}
	return out
}

// DecodeError reports a setting with an unexpected shape.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode converts a loaded configuration map into Settings. Absent fields
// take their defaults; unknown fields are ignored.
func Decode(raw map[string]any) (Settings, error) {
	s := Defaults()

	if v, ok := raw[FieldLineNumbers]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return s, &DecodeError{Field: FieldLineNumbers, Err: fmt.Errorf("want bool, got %T", v)}
		}
		s.LineNumbers = b
	}

	if v, ok := raw[FieldValidate]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return s, &DecodeError{Field: FieldValidate, Err: fmt.Errorf("want bool, got %T", v)}
		}
		s.Validate = b
	}

	if v, ok := raw[FieldItems]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return s, &DecodeError{Field: FieldItems, Err: fmt.Errorf("want list, got %T", v)}
		}
		for i, entry := range list {
			m, ok := asMap(entry)
			if !ok {
				return s, &DecodeError{Field: fmt.Sprintf("items[%d]", i), Err: fmt.Errorf("want table, got %T", entry)}
			}
			def, err := decodeItem(m)
			if err != nil {
				return s, &DecodeError{Field: fmt.Sprintf("items[%d].%s", i, err.field), Err: err.err}
			}
			s.Items = append(s.Items, def)
		}
	}

	return s, nil
}

type fieldError struct {
	field string
	err   error
}

func decodeItem(m map[string]any) (menu.ItemDefinition, *fieldError) {
	var def menu.ItemDefinition
	var ferr *fieldError

	str := func(key string, dst *string) {
		if ferr != nil {
			return
		}
		if v, ok := m[key]; ok && v != nil {
			s, err := scalarString(v)
			if err != nil {
				ferr = &fieldError{field: key, err: err}
				return
			}
			*dst = s
		}
	}
	flag := func(key string, dst **bool) {
		if ferr != nil {
			return
		}
		if v, ok := m[key]; ok && v != nil {
			b, ok := v.(bool)
			if !ok {
				ferr = &fieldError{field: key, err: fmt.Errorf("want bool, got %T", v)}
				return
			}
			*dst = menu.Bool(b)
		}
	}

	var itemType string
	str("id", &def.ID)
	str("title", &def.Title)
	str("type", &itemType)
	str("code", &def.Code)
	str("scope", &def.Scope)
	str("extensionId", &def.OwnerID)
	flag("checked", &def.Checked)
	flag("enabled", &def.Enabled)
	if ferr != nil {
		return def, ferr
	}
	def.Type = menu.ItemType(itemType)

	if v, ok := m["patterns"]; ok && v != nil {
		list, lerr := stringList(v)
		if lerr != nil {
			return def, &fieldError{field: "patterns", err: lerr}
		}
		def.Patterns = strings.Join(list, "\n")
	}

	if v, ok := m["contexts"]; ok && v != nil {
		list, lerr := stringList(v)
		if lerr != nil {
			return def, &fieldError{field: "contexts", err: lerr}
		}
		for _, c := range list {
			def.Contexts = append(def.Contexts, menu.ContextTag(c))
		}
	}

	for key, dst := range map[string]*[]string{
		"documentUrlPatterns": &def.DocumentURLPatterns,
		"targetUrlPatterns":   &def.TargetURLPatterns,
	} {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		list, lerr := stringList(v)
		if lerr != nil {
			return def, &fieldError{field: key, err: lerr}
		}
		if list == nil {
			list = []string{}
		}
		*dst = list
	}

	if v, ok := m["icons"]; ok && v != nil {
		icons, ierr := decodeIcons(v)
		if ierr != nil {
			return def, &fieldError{field: "icons", err: ierr}
		}
		def.Icons = icons
	}

	return def, nil
}

// decodeIcons accepts a single path or a size to path table.
func decodeIcons(v any) (menu.Icons, error) {
	if s, ok := v.(string); ok {
		return menu.SingleIcon(s), nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("want string or table, got %T", v)
	}
	icons := make(menu.Icons, len(m))
	for size, path := range m {
		p, err := scalarString(path)
		if err != nil {
			return nil, fmt.Errorf("size %s: %w", size, err)
		}
		icons[size] = p
	}
	return icons, nil
}

// asMap accepts string-keyed maps and the any-keyed maps YAML produces
// for numeric keys.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			key, err := scalarString(k)
			if err != nil {
				return nil, false
			}
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// stringList accepts a list of scalars or a single string.
func stringList(v any) ([]string, error) {
	switch l := v.(type) {
	case string:
		return []string{l}, nil
	case []string:
		return slices.Clone(l), nil
	case []any:
		out := make([]string, 0, len(l))
		for i, item := range l {
			s, err := scalarString(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want list, got %T", v)
	}
}

// scalarString renders strings and numbers as text. Integral numbers
// have no fraction, so an id of 3 reads "3".
func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case uint64:
		return strconv.FormatUint(s, 10), nil
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1<<53 {
			return strconv.FormatInt(int64(s), 10), nil
		}
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return "", fmt.Errorf("want string, got %T", v)
	}
}
