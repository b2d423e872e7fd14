package params

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"revostream/internal/engine"
)

const (
	defaultFontFace = "DejaVu Sans"
	defaultFontSize = 24
)

// KeySet is a set of settings keys.
type KeySet map[string]bool

// Apply writes params into settings following the rules of typ. Keys in
// listKeys are stored as arrays of {"value": entry} objects. Params are
// visited in key order so repeated applies are deterministic.
func Apply(settings *engine.Data, typ string, params map[string]string, listKeys KeySet) {
	if settings == nil {
		return
	}
	switch typ {
	case "color_source", "color_source_v2":
		if c, ok := lookupColor(params, "color"); ok {
			settings.SetInt("color", int64(c))
		}
		setIntParam(settings, params, "width")
		setIntParam(settings, params, "height")
	case "text_ft2_source", "text_ft2_source_v2":
		applyText(settings, params, listKeys)
	case "image_source":
		if file, ok := params["file"]; ok {
			settings.SetString("file", file)
		}
	case "ffmpeg_source":
		applyMedia(settings, params, listKeys)
	case "browser_source":
		if url, ok := params["url"]; ok {
			settings.SetString("url", url)
		}
		setIntParam(settings, params, "width")
		setIntParam(settings, params, "height")
	case "window_capture", "xcomposite_input":
		window, ok := params["window"]
		if !ok {
			window, ok = params["capture_window"]
		}
		if ok {
			settings.SetString("window", window)
			settings.SetString("capture_window", window)
		}
	case "pulse_input_capture", "pulse_output_capture":
		if device, ok := params["device"]; ok {
			settings.SetString("device_id", device)
		}
	default:
		for _, key := range sortedKeys(params) {
			setGeneric(settings, key, params[key], listKeys, true)
		}
	}
}

func applyText(settings *engine.Data, params map[string]string, listKeys KeySet) {
	if text, ok := params["text"]; ok {
		settings.SetString("text", text)
	}
	if c, ok := lookupColor(params, "color1"); ok {
		settings.SetInt("color1", int64(c))
	} else if _, has := params["color1"]; !has {
		if c, ok := lookupColor(params, "color"); ok {
			settings.SetInt("color1", int64(c))
		}
	}
	if hasAny(params, "font_size", "font_face", "size", "face") {
		face := defaultFontFace
		size := int64(defaultFontSize)
		if current := settings.GetObject("font"); current != nil {
			if f := current.GetString("face"); f != "" {
				face = f
			}
			if s := current.GetInt("size"); s > 0 {
				size = s
			}
		}
		if v, ok := firstOf(params, "font_face", "face"); ok {
			face = v
		}
		if v, ok := firstOf(params, "font_size", "size", "fontsize"); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				size = n
			}
		}
		font := engine.NewData()
		font.SetString("face", face)
		font.SetInt("size", size)
		settings.SetObject("font", font)
	}
	for _, key := range sortedKeys(params) {
		switch NormalizeKey(key) {
		case "text", "color", "color1", "font", "fontface", "fontsize":
			continue
		}
		setGeneric(settings, key, params[key], listKeys, true)
	}
}

func applyMedia(settings *engine.Data, params map[string]string, listKeys KeySet) {
	if file, ok := firstOf(params, "local_file", "file"); ok {
		settings.SetString("local_file", file)
	}
	if input, ok := firstOf(params, "input", "url"); ok {
		settings.SetString("input", input)
	}
	if raw, ok := params["is_local_file"]; ok {
		settings.SetBool("is_local_file", ParseBoolish(raw))
	}
	for _, key := range sortedKeys(params) {
		switch key {
		case "file", "url", "is_local_file":
			continue
		}
		setGeneric(settings, key, params[key], listKeys, false)
	}
}

// setGeneric coerces value by priority: list entries, color (when allowed and
// the key looks like one), bool, int, float, string.
func setGeneric(settings *engine.Data, key, value string, listKeys KeySet, colors bool) {
	if key == "" {
		return
	}
	if listKeys[key] {
		settings.SetArray(key, BuildList(ParseListEntries(value)))
		return
	}
	if colors && strings.Contains(NormalizeKey(key), "color") {
		if c, ok := ParseColorABGR(value); ok {
			settings.SetInt(key, int64(c))
			return
		}
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "true" || normalized == "false" {
		settings.SetBool(key, normalized == "true")
		return
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		settings.SetInt(key, n)
		return
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		settings.SetDouble(key, f)
		return
	}
	settings.SetString(key, value)
}

// ParseListEntries splits a JSON string array or newline separated text into
// trimmed, non-empty entries.
func ParseListEntries(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, item := range items {
				if s := strings.TrimSpace(item); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	var out []string
	for _, line := range strings.Split(trimmed, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildList wraps entries as single-valued objects.
func BuildList(entries []string) []*engine.Data {
	out := make([]*engine.Data, 0, len(entries))
	for _, entry := range entries {
		obj := engine.NewData()
		obj.SetString("value", entry)
		out = append(out, obj)
	}
	return out
}

// ParseBoolish accepts 1/true/yes/on in any case.
func ParseBoolish(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func lookupColor(params map[string]string, key string) (uint32, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	return parseColorValue(raw)
}

func setIntParam(settings *engine.Data, params map[string]string, key string) {
	raw, ok := params[key]
	if !ok {
		return
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		settings.SetInt(key, n)
	}
}

func hasAny(params map[string]string, keys ...string) bool {
	for _, key := range keys {
		if _, ok := params[key]; ok {
			return true
		}
	}
	return false
}

func firstOf(params map[string]string, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			return v, true
		}
	}
	return "", false
}

func sortedKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
