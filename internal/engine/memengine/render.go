package memengine

import (
	"math"

	"revostream/internal/engine"
)

type view struct {
	channels map[int]engine.SourceID
}

const maxRenderDepth = 8

func (e *Engine) ViewCreate() engine.ViewID {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := engine.ViewID(e.id())
	e.views[id] = &view{channels: make(map[int]engine.SourceID)}
	return id
}

func (e *Engine) ViewDestroy(id engine.ViewID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.views, id)
}

func (e *Engine) ViewSetSource(id engine.ViewID, channel int, src engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.views[id]
	if !ok {
		return
	}
	if src == 0 {
		delete(v.channels, channel)
		return
	}
	v.channels[channel] = src
}

// ViewSource returns the source bound to a view channel.
func (e *Engine) ViewSource(id engine.ViewID, channel int) engine.SourceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.views[id]; ok {
		return v.channels[channel]
	}
	return 0
}

func (e *Engine) RenderTargetCreate() engine.TargetID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.noTargets {
		return 0
	}
	id := engine.TargetID(e.id())
	e.targets[id] = struct{}{}
	return id
}

func (e *Engine) RenderTargetDestroy(id engine.TargetID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.targets, id)
}

// RenderView draws channel 0 of the view. Only color sources produce pixels;
// everything else renders transparent over an opaque black background.
func (e *Engine) RenderView(id engine.ViewID, target engine.TargetID, width, height uint32) (engine.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.views[id]
	if !ok || width == 0 || height == 0 {
		return engine.Frame{}, false
	}
	if _, ok := e.targets[target]; !ok {
		return engine.Frame{}, false
	}
	frame := engine.Frame{
		Width:  width,
		Height: height,
		Format: engine.FormatBGRA,
		Stride: int(width) * 4,
		Pix:    make([]byte, int(width)*int(height)*4),
	}
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 0xFF
	}
	src, ok := v.channels[0]
	if !ok {
		return frame, true
	}
	cw, ch := e.sourceSize(src)
	if cw == 0 || ch == 0 {
		cw, ch = width, height
	}
	sx := float64(width) / float64(cw)
	sy := float64(height) / float64(ch)
	e.draw(&frame, src, 0, 0, sx, sy, 0)
	return frame, true
}

func (e *Engine) draw(frame *engine.Frame, src engine.SourceID, x0, y0, sx, sy float64, depth int) {
	if depth > maxRenderDepth {
		return
	}
	s := e.source(src)
	if s == nil || !s.enabled {
		return
	}
	if s.scene != 0 {
		sc, ok := e.scenes[s.scene]
		if !ok {
			return
		}
		for _, itemID := range sc.items {
			it := e.items[itemID]
			if it == nil || !it.visible {
				continue
			}
			t := it.transform
			e.draw(frame, it.source, x0+t.Pos.X*sx, y0+t.Pos.Y*sy, sx*t.Scale.X, sy*t.Scale.Y, depth+1)
		}
		return
	}
	if s.typ != "color_source" && s.typ != "color_source_v2" {
		return
	}
	w, h := e.sourceSize(src)
	color := uint32(s.settings.GetInt("color"))
	fillRect(frame, x0, y0, float64(w)*sx, float64(h)*sy, color)
}

func fillRect(frame *engine.Frame, x, y, w, h float64, abgr uint32) {
	if abgr>>24 == 0 {
		return
	}
	left := clampInt(int(math.Round(x)), 0, int(frame.Width))
	top := clampInt(int(math.Round(y)), 0, int(frame.Height))
	right := clampInt(int(math.Round(x+w)), 0, int(frame.Width))
	bottom := clampInt(int(math.Round(y+h)), 0, int(frame.Height))
	r, g, b, a := byte(abgr), byte(abgr>>8), byte(abgr>>16), byte(abgr>>24)
	for row := top; row < bottom; row++ {
		off := row * frame.Stride
		for col := left; col < right; col++ {
			p := off + col*4
			frame.Pix[p] = b
			frame.Pix[p+1] = g
			frame.Pix[p+2] = r
			frame.Pix[p+3] = a
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
