package params

import (
	"strconv"
	"strings"

	"revostream/internal/engine"
)

// Extract flattens the user-set entries of settings into strings. Empty values
// are omitted, arrays become one line per entry and a user-set font object is
// surfaced as font_face and font_size.
func Extract(settings *engine.Data) map[string]string {
	out := make(map[string]string)
	if settings == nil {
		return out
	}
	for _, entry := range settings.Entries() {
		if !entry.User || entry.Key == "" {
			continue
		}
		value := scalarString(entry.Value)
		if entry.Value.Kind() == engine.KindArray {
			value = arrayToMultiline(entry.Value.AsArray())
		}
		if value != "" {
			out[entry.Key] = value
		}
	}
	if settings.HasUserValue("font") {
		if font := settings.GetObject("font"); font != nil {
			if font.HasUserValue("face") {
				out["font_face"] = font.GetString("face")
			}
			if font.HasUserValue("size") {
				out["font_size"] = strconv.FormatInt(font.GetInt("size"), 10)
			}
		}
	}
	return out
}

func scalarString(v engine.Value) string {
	switch v.Kind() {
	case engine.KindString:
		return v.AsString()
	case engine.KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case engine.KindDouble:
		return FormatFloat(v.AsDouble())
	case engine.KindBool:
		return strconv.FormatBool(v.AsBool())
	}
	return ""
}

// FormatFloat renders f in its shortest decimal form without an exponent.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func arrayToMultiline(items []*engine.Data) string {
	lines := make([]string, 0, len(items))
	for _, obj := range items {
		if obj == nil {
			continue
		}
		if v, ok := primaryValue(obj); ok {
			if strings.TrimSpace(v) != "" {
				lines = append(lines, v)
			}
			continue
		}
		raw, err := obj.MarshalJSON()
		if err == nil && strings.TrimSpace(string(raw)) != "" {
			lines = append(lines, string(raw))
		}
	}
	return strings.Join(lines, "\n")
}

// primaryValue picks the entry that best represents a list element: a
// value/path/url/file key when present, otherwise the first non-empty scalar.
func primaryValue(obj *engine.Data) (string, bool) {
	fallback := ""
	found := false
	for _, entry := range obj.Entries() {
		v := scalarString(entry.Value)
		if strings.TrimSpace(v) == "" {
			continue
		}
		switch NormalizeKey(entry.Key) {
		case "value", "path", "url", "file", "localfile":
			return v, true
		}
		if !found {
			fallback = v
			found = true
		}
	}
	return fallback, found
}

// NormalizeKey lowercases key and drops everything but ASCII letters and digits.
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
