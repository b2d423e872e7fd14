package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"

	"revostream/internal/config"
	"revostream/internal/engine"
	"revostream/internal/logging"
	"revostream/internal/services"
)

const (
	defaultPreviewWidth  = 640
	defaultPreviewHeight = 360
)

// ScreenshotRequest selects what to capture. An empty Source captures the
// current scene at canvas size; Width and Height then bound a downscaled
// thumbnail. For a source they set the render size.
type ScreenshotRequest struct {
	Source string
	Width  uint32
	Height uint32
}

// Screenshot renders the current scene or one item's source and returns it
// as a PNG data URL. The preview view and render target are created on first
// use and reused afterwards.
func (r *Runtime) Screenshot(ctx context.Context, req ScreenshotRequest) (string, error) {
	var frame engine.Frame
	var thumbW, thumbH uint32
	err := r.initialized(func(st *state) error {
		key := strings.TrimSpace(req.Source)
		src, err := st.previewSource(key)
		if err != nil {
			return err
		}
		if err := st.ensurePreview(src); err != nil {
			return err
		}
		var w, h uint32
		if key == "" {
			w, h = st.canvasPreviewSize()
			thumbW, thumbH = req.Width, req.Height
		} else {
			w = clampDim(orDefault(req.Width, defaultPreviewWidth), 160, 3840)
			h = clampDim(orDefault(req.Height, defaultPreviewHeight), 90, 2160)
		}
		var ok bool
		frame, ok = st.eng.RenderView(st.view.ID(), st.target.ID(), w, h)
		if !ok {
			return services.Fail(services.ErrEngine, "preview texture unavailable")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrEngine) {
			r.engineWarn(ctx, "screenshot", "preview render failed", logging.Error(err))
		}
		return "", err
	}
	// Encoding runs outside the lock; frame is a private copy.
	img, err := frameImage(frame)
	if err != nil {
		return "", err
	}
	if thumbW > 0 && thumbH > 0 {
		img = thumbnail(img, thumbW, thumbH)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", services.Failf(services.ErrTransient, "failed to encode preview: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (st *state) previewSource(key string) (engine.SourceID, error) {
	if key == "" {
		scene, err := st.currentScene()
		if err != nil {
			return 0, services.Fail(services.ErrNotFound, "no active scene")
		}
		if scene.source.IsZero() {
			return 0, services.Fail(services.ErrEngine, "scene source unavailable")
		}
		return scene.source.ID(), nil
	}
	scene, err := st.currentScene()
	if err != nil {
		return 0, err
	}
	item, found := scene.resolve(st.eng, key)
	if !found {
		return 0, services.Failf(services.ErrNotFound, "unknown source id: %s", key)
	}
	src := engine.SourceRef(0)
	if !item.IsZero() {
		src = st.eng.ItemSource(item.ID())
	}
	if src.IsZero() {
		return 0, services.Fail(services.ErrNotFound, "source not available")
	}
	return src.ID(), nil
}

func (st *state) ensurePreview(src engine.SourceID) error {
	if st.view.IsZero() {
		st.view = engine.CreateView(st.eng)
		if st.view.IsZero() {
			return services.Fail(services.ErrEngine, "failed to create preview view")
		}
	}
	if st.target.IsZero() {
		st.target = engine.CreateRenderTarget(st.eng)
		if st.target.IsZero() {
			return services.Fail(services.ErrEngine, "failed to create render target")
		}
	}
	st.eng.ViewSetSource(st.view.ID(), 0, src)
	return nil
}

// releasePreview destroys the render target and the view.
func (st *state) releasePreview() {
	st.target.Release()
	if !st.view.IsZero() {
		st.eng.ViewSetSource(st.view.ID(), 0, 0)
	}
	st.view.Release()
}

// canvasPreviewSize is the live or configured canvas clamped to render limits.
func (st *state) canvasPreviewSize() (uint32, uint32) {
	w, h := uint32(defaultPreviewWidth), uint32(defaultPreviewHeight)
	if pw, ph, ok := config.ParseResolution(st.sceneResolution()); ok {
		w, h = pw, ph
	}
	return clampDim(w, 160, 7680), clampDim(h, 90, 4320)
}

func orDefault(v, def uint32) uint32 {
	if v == 0 {
		return def
	}
	return v
}

func clampDim(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}

// frameImage converts a rendered frame to RGBA.
func frameImage(f engine.Frame) (*image.RGBA, error) {
	if f.Width == 0 || f.Height == 0 {
		return nil, services.Fail(services.ErrEngine, "invalid preview texture size")
	}
	stride := f.Stride
	if stride == 0 {
		stride = int(f.Width) * 4
	}
	if len(f.Pix) < stride*int(f.Height) {
		return nil, services.Fail(services.ErrEngine, "invalid preview texture size")
	}
	img := image.NewRGBA(image.Rect(0, 0, int(f.Width), int(f.Height)))
	for y := 0; y < int(f.Height); y++ {
		row := f.Pix[y*stride : y*stride+int(f.Width)*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+int(f.Width)*4]
		switch f.Format {
		case engine.FormatRGBA:
			copy(dst, row)
		case engine.FormatBGRA:
			for x := 0; x < len(row); x += 4 {
				dst[x], dst[x+1], dst[x+2], dst[x+3] = row[x+2], row[x+1], row[x], row[x+3]
			}
		default:
			return nil, services.Fail(services.ErrEngine, "unsupported texture format")
		}
	}
	return img, nil
}

// thumbnail scales img to fit within w x h keeping its aspect ratio. Images
// already inside the bounds are returned unchanged.
func thumbnail(img *image.RGBA, w, h uint32) *image.RGBA {
	b := img.Bounds()
	if b.Dx() <= int(w) && b.Dy() <= int(h) {
		return img
	}
	scale := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	tw := max(1, int(float64(b.Dx())*scale))
	th := max(1, int(float64(b.Dy())*scale))
	out := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
