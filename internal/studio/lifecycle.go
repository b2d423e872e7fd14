package studio

import (
	"context"
	"strings"

	"revostream/internal/config"
	"revostream/internal/engine"
	"revostream/internal/logging"
	"revostream/internal/services"
)

const (
	defaultSceneName = "revo_scene"
	defaultFPS       = 30
	defaultCanvasW   = 1280
	defaultCanvasH   = 720
)

// StartOptions are the startup parameters handed to the engine.
type StartOptions struct {
	RootDir           string
	EncoderPreference string
	SceneResolution   string
	FPS               int
	// DefaultTemplate adds the accent and title items to the startup scene.
	DefaultTemplate bool
}

// StartOptionsFromConfig builds StartOptions from the engine section.
func StartOptionsFromConfig(cfg *config.Config) StartOptions {
	if cfg == nil {
		return StartOptions{}
	}
	return StartOptions{
		RootDir:           cfg.Paths.RootDir,
		EncoderPreference: cfg.Engine.EncoderPreference,
		SceneResolution:   cfg.Engine.SceneResolution,
		FPS:               cfg.Engine.FPS,
		DefaultTemplate:   cfg.Engine.DefaultTemplate,
	}
}

// Start brings the engine up, resets the video and audio pipelines and
// creates the startup scene when none exists.
func (r *Runtime) Start(ctx context.Context, opts StartOptions) (string, error) {
	var msg string
	err := r.locked(func(st *state) error {
		if st.initialized {
			msg = "engine already initialized"
			return nil
		}
		st.preference = NormalizeEncoderPreference(strings.ToLower(strings.TrimSpace(opts.EncoderPreference)))
		st.resolution = strings.TrimSpace(opts.SceneResolution)
		st.template = opts.DefaultTemplate
		st.fps = defaultFPS
		if opts.FPS > 0 {
			st.fps = uint32(opts.FPS)
		}

		if err := st.eng.Startup(opts.RootDir); err != nil {
			return services.Failf(services.ErrEngine, "engine startup failed: %w", err)
		}
		w, h, ok := config.ParseResolution(st.resolution)
		if !ok {
			w, h = defaultCanvasW, defaultCanvasH
		}
		video := engine.VideoInfo{
			FPSNum: st.fps, FPSDen: 1,
			BaseWidth: w, BaseHeight: h,
			OutputWidth: w, OutputHeight: h,
			Format: "NV12", Colorspace: "709", Range: "partial", ScaleType: "bicubic",
		}
		audio := engine.AudioInfo{SampleRate: 48000, Speakers: 2}
		if !st.eng.ResetVideo(video) || !st.eng.ResetAudio(audio) {
			st.eng.Shutdown()
			r.engineWarn(ctx, "start", "engine pipeline reset failed",
				logging.String("resolution", st.resolution))
			return services.Fail(services.ErrEngine, "engine reset video/audio failed")
		}
		if err := st.ensureScene(); err != nil {
			st.eng.Shutdown()
			return err
		}
		st.initialized = true
		msg = "engine initialized"
		return nil
	})
	if err == nil && msg == "engine initialized" {
		r.record(ctx, "start", map[string]any{"resolution": opts.SceneResolution})
	}
	r.logResult(ctx, "start", msg, err)
	return msg, err
}

// ensureScene creates and shows the startup scene when the graph is empty.
func (st *state) ensureScene() error {
	if len(st.scenes) > 0 {
		name := st.current
		if _, ok := st.scenes[name]; !ok {
			name = st.sceneNames()[0]
		}
		st.current = ""
		return st.switchTo(name)
	}
	ss, ok := st.addScene(defaultSceneName)
	if !ok {
		return services.Fail(services.ErrEngine, "failed to create scene")
	}
	if st.template {
		st.addTemplateItems(ss)
	}
	return st.switchTo(defaultSceneName)
}

// addTemplateItems places the accent panel and the title text.
func (st *state) addTemplateItems(ss *sceneState) {
	accentSettings := engine.NewData()
	accentSettings.SetInt("color", 0xFF1E90FF)
	accentSettings.SetInt("width", 420)
	accentSettings.SetInt("height", 220)
	ss.accent = st.templateItem(ss, "color_source", "revo_accent", accentSettings, engine.Vec2{X: 60, Y: 60})

	font := engine.NewData()
	font.SetString("face", "DejaVu Sans")
	font.SetInt("size", 32)
	textSettings := engine.NewData()
	textSettings.SetString("text", "RevoStream")
	textSettings.SetInt("color1", 0xFFFFFFFF)
	textSettings.SetInt("color2", 0xFFFFFFFF)
	textSettings.SetObject("font", font)
	ss.title = st.templateItem(ss, "text_ft2_source", "revo_text", textSettings, engine.Vec2{X: 640, Y: 360})
}

func (st *state) templateItem(ss *sceneState, typ, name string, settings *engine.Data, pos engine.Vec2) engine.Item {
	src := engine.CreateSource(st.eng, st.resolveInputType(typ), name, settings)
	if src.IsZero() {
		return engine.Item{}
	}
	defer src.Release()
	item := engine.AddToScene(st.eng, ss.scene.ID(), src.ID())
	if item.IsZero() {
		return item
	}
	t := st.eng.ItemTransform(item.ID())
	t.Pos = pos
	st.eng.ItemSetTransform(item.ID(), t)
	st.eng.ItemSetVisible(item.ID(), true)
	return item
}

// Shutdown stops every output, releases the whole graph and stops the engine.
// The runtime can be started again afterwards.
func (r *Runtime) Shutdown(ctx context.Context) (string, error) {
	var msg string
	err := r.locked(func(st *state) error {
		if !st.initialized {
			msg = "engine already shut down"
			return nil
		}
		st.stopRecording()
		st.stopStreaming()
		st.releasePreview()
		st.resetScenes()
		st.eng.Shutdown()
		st.initialized = false
		msg = "engine shut down"
		return nil
	})
	if err == nil && msg == "engine shut down" {
		r.record(ctx, "shutdown", nil)
	}
	r.logResult(ctx, "shutdown", msg, err)
	return msg, err
}
