package params

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseColorABGR parses #RRGGBB (the hash is optional) into the engine's packed
// 0xAABBGGRR form with full alpha.
func ParseColorABGR(value string) (uint32, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return 0, false
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	r := uint32(rgb>>16) & 0xFF
	g := uint32(rgb>>8) & 0xFF
	b := uint32(rgb) & 0xFF
	return 0xFF<<24 | b<<16 | g<<8 | r, true
}

// ABGRToHex formats a packed color as lowercase #rrggbb, dropping alpha.
func ABGRToHex(abgr uint32) string {
	r := abgr & 0xFF
	g := (abgr >> 8) & 0xFF
	b := (abgr >> 16) & 0xFF
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// parseColorValue accepts a hex color or an already packed decimal value, as
// found in settings exported from a live graph.
func parseColorValue(value string) (uint32, bool) {
	if c, ok := ParseColorABGR(value); ok {
		return c, true
	}
	packed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(packed), true
}

// HexColors rewrites packed color1/color values in params as hex. color1 wins
// and also fills color when absent.
func HexColors(params map[string]string) {
	if raw, ok := params["color1"]; ok {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			hex := ABGRToHex(uint32(v))
			params["color1"] = hex
			if _, exists := params["color"]; !exists {
				params["color"] = hex
			}
			return
		}
	}
	if raw, ok := params["color"]; ok {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			params["color"] = ABGRToHex(uint32(v))
		}
	}
}

// HexColorKeys rewrites the listed keys as hex when they hold a packed color.
func HexColorKeys(params map[string]string, keys []string) {
	for _, key := range keys {
		raw, ok := params[key]
		if !ok {
			continue
		}
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			params[key] = ABGRToHex(uint32(v))
		} else if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params[key] = ABGRToHex(uint32(v))
		}
	}
}
