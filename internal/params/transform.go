package params

import (
	"math"
	"strconv"
	"strings"

	"revostream/internal/engine"
)

// Float reads a trimmed float parameter.
func Float(params map[string]string, key string) (float64, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int reads a trimmed integer parameter, rounding a float form.
func Int(params map[string]string, key string) (int, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

// ApplyTransform updates t from placement params. item_width and item_height
// set the scale relative to the source's intrinsic size when both are given
// and the size is known; otherwise scale_x and scale_y apply directly. Crop
// values are clamped at zero.
func ApplyTransform(t engine.Transform, baseW, baseH uint32, params map[string]string) engine.Transform {
	if x, ok := Float(params, "pos_x"); ok {
		t.Pos.X = x
	}
	if y, ok := Float(params, "pos_y"); ok {
		t.Pos.Y = y
	}

	w, okW := Float(params, "item_width")
	h, okH := Float(params, "item_height")
	if okW && okH && baseW > 0 && baseH > 0 {
		t.Scale.X = w / float64(baseW)
		t.Scale.Y = h / float64(baseH)
	} else {
		if sx, ok := Float(params, "scale_x"); ok {
			t.Scale.X = sx
		}
		if sy, ok := Float(params, "scale_y"); ok {
			t.Scale.Y = sy
		}
	}

	if rot, ok := Float(params, "rot"); ok {
		t.Rot = rot
	} else if rot, ok := Float(params, "rotation"); ok {
		t.Rot = rot
	}

	if v, ok := Int(params, "crop_left"); ok {
		t.Crop.Left = max(v, 0)
	}
	if v, ok := Int(params, "crop_top"); ok {
		t.Crop.Top = max(v, 0)
	}
	if v, ok := Int(params, "crop_right"); ok {
		t.Crop.Right = max(v, 0)
	}
	if v, ok := Int(params, "crop_bottom"); ok {
		t.Crop.Bottom = max(v, 0)
	}
	return t
}

// TransformParams renders the placement of an item as params. item_width and
// item_height are included only when the intrinsic size is known; scale is
// included always unless sizeOnly is set and the size is known.
func TransformParams(params map[string]string, t engine.Transform, baseW, baseH uint32, sizeOnly bool) {
	params["pos_x"] = FormatFloat(t.Pos.X)
	params["pos_y"] = FormatFloat(t.Pos.Y)
	sized := baseW > 0 && baseH > 0
	if sized {
		params["item_width"] = FormatFloat(float64(baseW) * t.Scale.X)
		params["item_height"] = FormatFloat(float64(baseH) * t.Scale.Y)
	}
	if !sized || !sizeOnly {
		params["scale_x"] = FormatFloat(t.Scale.X)
		params["scale_y"] = FormatFloat(t.Scale.Y)
	}
}
