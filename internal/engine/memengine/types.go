package memengine

import (
	"unicode/utf8"

	"revostream/internal/engine"
)

type typeKind int

const (
	kindInput typeKind = iota
	kindFilter
	kindScene
	kindVideoEncoder
	kindAudioEncoder
	kindOutput
	kindService
)

type typeInfo struct {
	id       string
	label    string
	kind     typeKind
	flags    engine.OutputFlags
	defaults func() *engine.Data
	props    []engine.Property
	size     func(settings *engine.Data) (uint32, uint32)
}

func (e *Engine) register(t *typeInfo) {
	if _, exists := e.types[t.id]; !exists {
		e.typeOrder = append(e.typeOrder, t.id)
	}
	e.types[t.id] = t
}

func (e *Engine) lookupType(typ string, kinds ...typeKind) *typeInfo {
	t, ok := e.types[typ]
	if !ok || e.failCreate[typ] {
		return nil
	}
	for _, k := range kinds {
		if t.kind == k {
			return t
		}
	}
	return nil
}

func prop(key, label string, kind engine.PropertyKind) engine.Property {
	return engine.Property{Key: key, Label: label, Kind: kind}
}

func listProp(key, label string, options ...engine.PropertyOption) engine.Property {
	return engine.Property{Key: key, Label: label, Kind: engine.PropList, Options: options}
}

func opt(label, value string) engine.PropertyOption {
	return engine.PropertyOption{Label: label, Value: value}
}

func sizeFromSettings(defW, defH int64) func(*engine.Data) (uint32, uint32) {
	return func(s *engine.Data) (uint32, uint32) {
		w, h := defW, defH
		if v, ok := s.Get("width"); ok && v.IsNumber() {
			w = v.AsInt()
		}
		if v, ok := s.Get("height"); ok && v.IsNumber() {
			h = v.AsInt()
		}
		if w < 0 || h < 0 {
			return 0, 0
		}
		return uint32(w), uint32(h)
	}
}

// textSize approximates a glyph box of half the font size per rune.
func textSize(s *engine.Data) (uint32, uint32) {
	size := int64(32)
	if font := s.GetObject("font"); font != nil {
		if v := font.GetInt("size"); v > 0 {
			size = v
		}
	}
	runes := int64(utf8.RuneCountInString(s.GetString("text")))
	if runes == 0 {
		return 0, 0
	}
	return uint32(runes * size / 2), uint32(size)
}

func colorDefaults() *engine.Data {
	d := engine.NewData()
	d.SetInt("color", 0xFFFFFFFF)
	d.SetInt("width", 400)
	d.SetInt("height", 400)
	return d
}

func textDefaults() *engine.Data {
	font := engine.NewData()
	font.SetString("face", "Sans")
	font.SetInt("size", 32)
	d := engine.NewData()
	d.SetObject("font", font)
	d.SetInt("color1", 0xFFFFFFFF)
	d.SetInt("color2", 0xFFFFFFFF)
	return d
}

func browserDefaults() *engine.Data {
	d := engine.NewData()
	d.SetString("url", "https://obsproject.com/browser-source")
	d.SetInt("width", 800)
	d.SetInt("height", 600)
	d.SetInt("fps", 30)
	return d
}

func mediaDefaults() *engine.Data {
	d := engine.NewData()
	d.SetBool("is_local_file", true)
	d.SetBool("looping", false)
	d.SetBool("restart_on_activate", true)
	return d
}

func vlcDefaults() *engine.Data {
	d := engine.NewData()
	d.SetBool("loop", true)
	d.SetBool("shuffle", false)
	d.SetString("playback_behavior", "stop_restart")
	return d
}

func (e *Engine) registerDefaults() {
	e.types = make(map[string]*typeInfo)

	colorProps := []engine.Property{
		prop("color", "Color", engine.PropColorAlpha),
		prop("width", "Width", engine.PropInt),
		prop("height", "Height", engine.PropInt),
	}
	for _, id := range []string{"color_source", "color_source_v2"} {
		e.register(&typeInfo{id: id, label: "Color Source", kind: kindInput,
			defaults: colorDefaults, props: colorProps, size: sizeFromSettings(400, 400)})
	}

	textProps := []engine.Property{
		prop("font", "Font", engine.PropFont),
		prop("text", "Text", engine.PropText),
		prop("from_file", "Read from file", engine.PropBool),
		prop("text_file", "Text File (UTF-8 or UTF-16)", engine.PropPath),
		prop("color1", "Color 1", engine.PropColorAlpha),
		prop("color2", "Color 2", engine.PropColorAlpha),
		prop("outline", "Outline", engine.PropBool),
		prop("drop_shadow", "Drop Shadow", engine.PropBool),
		prop("word_wrap", "Word Wrap", engine.PropBool),
	}
	for _, id := range []string{"text_ft2_source", "text_ft2_source_v2"} {
		e.register(&typeInfo{id: id, label: "Text (FreeType 2)", kind: kindInput,
			defaults: textDefaults, props: textProps, size: textSize})
	}

	e.register(&typeInfo{id: "image_source", label: "Image", kind: kindInput,
		props: []engine.Property{
			prop("file", "Image File", engine.PropPath),
			prop("unload", "Unload image when not showing", engine.PropBool),
			prop("linear_alpha", "Apply alpha in linear space", engine.PropBool),
		}})
	e.register(&typeInfo{id: "ffmpeg_source", label: "Media Source", kind: kindInput,
		defaults: mediaDefaults,
		props: []engine.Property{
			prop("is_local_file", "Local File", engine.PropBool),
			prop("local_file", "Local File", engine.PropPath),
			prop("looping", "Loop", engine.PropBool),
			prop("restart_on_activate", "Restart playback when source becomes active", engine.PropBool),
			prop("input", "Input", engine.PropText),
			prop("input_format", "Input Format", engine.PropText),
			prop("speed_percent", "Speed", engine.PropInt),
		}})
	e.register(&typeInfo{id: "browser_source", label: "Browser", kind: kindInput,
		defaults: browserDefaults, size: sizeFromSettings(800, 600),
		props: []engine.Property{
			prop("is_local_file", "Local file", engine.PropBool),
			prop("url", "URL", engine.PropText),
			prop("width", "Width", engine.PropInt),
			prop("height", "Height", engine.PropInt),
			prop("fps", "FPS", engine.PropInt),
			prop("css", "Custom CSS", engine.PropText),
			prop("refreshnocache", "Refresh cache of current page", engine.PropButton),
		}})
	e.register(&typeInfo{id: "vlc_source", label: "VLC Video Source", kind: kindInput,
		defaults: vlcDefaults,
		props: []engine.Property{
			prop("loop", "Loop Playlist", engine.PropBool),
			prop("shuffle", "Shuffle Playlist", engine.PropBool),
			listProp("playback_behavior", "Visibility Behavior",
				opt("Stop when not visible, restart when visible", "stop_restart"),
				opt("Pause when not visible, unpause when visible", "pause_unpause"),
				opt("Always play even when not visible", "always_play")),
			prop("playlist", "Playlist", engine.PropEditableList),
		}})
	e.register(&typeInfo{id: "xcomposite_input", label: "Window Capture (Xcomposite)", kind: kindInput,
		props: []engine.Property{
			listProp("capture_window", "Window"),
			prop("show_cursor", "Capture Cursor", engine.PropBool),
			prop("include_border", "Include Border", engine.PropBool),
			prop("exclude_alpha", "Use alpha-less texture format", engine.PropBool),
		}})
	pulseProps := []engine.Property{
		listProp("device_id", "Device", opt("Default", "default")),
	}
	e.register(&typeInfo{id: "pulse_input_capture", label: "Audio Input Capture (PulseAudio)", kind: kindInput, props: pulseProps})
	e.register(&typeInfo{id: "pulse_output_capture", label: "Audio Output Capture (PulseAudio)", kind: kindInput, props: pulseProps})
	e.register(&typeInfo{id: "v4l2_input", label: "Video Capture Device (V4L2)", kind: kindInput,
		size: sizeFromSettings(0, 0),
		props: []engine.Property{
			listProp("device_id", "Device"),
			{Key: "", Label: "Select a device to list its formats.", Kind: engine.PropInfo},
			{Key: "advanced", Label: "Advanced", Kind: engine.PropGroup, Group: []engine.Property{
				listProp("resolution", "Resolution"),
				listProp("framerate", "Frame Rate"),
				prop("buffering", "Use Buffering", engine.PropBool),
			}},
		}})

	filter := func(id, label string, props ...engine.Property) {
		e.register(&typeInfo{id: id, label: label, kind: kindFilter, props: props})
	}
	colorFilterProps := []engine.Property{
		prop("gamma", "Gamma", engine.PropFloat),
		prop("contrast", "Contrast", engine.PropFloat),
		prop("brightness", "Brightness", engine.PropFloat),
		prop("saturation", "Saturation", engine.PropFloat),
		prop("hue_shift", "Hue Shift", engine.PropFloat),
		prop("color_multiply", "Color Multiply", engine.PropColor),
		prop("color_add", "Color Add", engine.PropColor),
	}
	filter("color_filter_v2", "Color Correction", colorFilterProps...)
	filter("color_filter", "Color Correction", colorFilterProps...)
	chromaProps := []engine.Property{
		listProp("key_color_type", "Key Color Type", opt("Green", "green"), opt("Blue", "blue"), opt("Magenta", "magenta"), opt("Custom", "custom")),
		prop("key_color", "Key Color", engine.PropColor),
		prop("similarity", "Similarity", engine.PropInt),
		prop("smoothness", "Smoothness", engine.PropInt),
	}
	filter("chroma_key_filter_v2", "Chroma Key", chromaProps...)
	filter("chroma_key_filter", "Chroma Key", chromaProps...)
	filter("crop_filter", "Crop/Pad",
		prop("relative", "Relative", engine.PropBool),
		prop("left", "Left", engine.PropInt),
		prop("top", "Top", engine.PropInt),
		prop("right", "Right", engine.PropInt),
		prop("bottom", "Bottom", engine.PropInt))
	filter("gain_filter", "Gain", prop("db", "Gain", engine.PropFloat))
	filter("sharpness_filter", "Sharpen", prop("sharpness", "Sharpness", engine.PropFloat))
	filter("scroll_filter", "Scroll",
		prop("speed_x", "Horizontal Speed", engine.PropFloat),
		prop("speed_y", "Vertical Speed", engine.PropFloat),
		prop("loop", "Loop", engine.PropBool))

	e.register(&typeInfo{id: "scene", label: "Scene", kind: kindScene})

	e.register(&typeInfo{id: "obs_x264", label: "x264", kind: kindVideoEncoder})
	e.register(&typeInfo{id: "ffmpeg_aac", label: "FFmpeg AAC", kind: kindAudioEncoder})

	e.register(&typeInfo{id: "ffmpeg_muxer", label: "FFmpeg muxer", kind: kindOutput,
		flags: engine.OutputVideo | engine.OutputAudio | engine.OutputEncoded})
	e.register(&typeInfo{id: "ffmpeg_output", label: "FFmpeg output", kind: kindOutput,
		flags: engine.OutputVideo | engine.OutputAudio})
	e.register(&typeInfo{id: "rtmp_output", label: "RTMP output", kind: kindOutput,
		flags: engine.OutputVideo | engine.OutputAudio | engine.OutputEncoded | engine.OutputService})

	e.register(&typeInfo{id: "rtmp_custom", label: "Custom", kind: kindService})
}

func (e *Engine) InputTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, id := range e.typeOrder {
		if t, ok := e.types[id]; ok && t.kind == kindInput {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) EncoderTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, id := range e.typeOrder {
		if t, ok := e.types[id]; ok && (t.kind == kindVideoEncoder || t.kind == kindAudioEncoder) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) SourceTypeLabel(typ string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.types[typ]; ok {
		return t.label
	}
	return ""
}

func (e *Engine) OutputFlags(typ string) engine.OutputFlags {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.types[typ]; ok && t.kind == kindOutput {
		return t.flags
	}
	return 0
}

func (e *Engine) OutputDefaults(typ string) *engine.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := engine.NewData()
	switch typ {
	case "ffmpeg_muxer":
		d.SetDefault("path", engine.StringValue(""))
		d.SetDefault("muxer_settings", engine.StringValue(""))
	case "ffmpeg_output":
		d.SetDefault("url", engine.StringValue(""))
		d.SetDefault("format_name", engine.StringValue(""))
		d.SetDefault("video_bitrate", engine.IntValue(2500))
		d.SetDefault("audio_bitrate", engine.IntValue(160))
		d.SetDefault("gop_size", engine.IntValue(250))
	case "rtmp_output":
		d.SetDefault("bind_ip", engine.StringValue("default"))
	}
	return d
}

func (e *Engine) SourceProperties(typ string) []engine.Property {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.types[typ]
	if !ok {
		return nil
	}
	return append([]engine.Property(nil), t.props...)
}
