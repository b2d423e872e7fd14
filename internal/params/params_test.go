package params

import (
	"math"
	"strings"
	"testing"

	"revostream/internal/engine"
)

func TestColorRoundTripThroughSettings(t *testing.T) {
	cases := []struct {
		typ string
		key string
	}{
		{"color_source_v2", "color"},
		{"color_source", "color"},
		{"text_ft2_source_v2", "color1"},
		{"chroma_key_filter_v2", "key_color"},
		{"color_filter_v2", "color_multiply"},
	}
	for _, tc := range cases {
		t.Run(tc.typ+"/"+tc.key, func(t *testing.T) {
			settings := engine.NewData()
			Apply(settings, tc.typ, map[string]string{tc.key: "#A1B2C3"}, nil)
			out := Extract(settings)
			HexColorKeys(out, []string{tc.key})
			if got := out[tc.key]; !strings.EqualFold(got, "#a1b2c3") {
				t.Fatalf("expected #a1b2c3, got %q (params %v)", got, out)
			}
		})
	}
}

func TestParseColorABGR(t *testing.T) {
	c, ok := ParseColorABGR("#a1b2c3")
	if !ok || c != 0xFFC3B2A1 {
		t.Fatalf("expected 0xFFC3B2A1, got %#x ok=%v", c, ok)
	}
	for _, bad := range []string{"", "#fff", "#zzzzzz", "a1b2c3d4"} {
		if _, ok := ParseColorABGR(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
	if got := ABGRToHex(0xFFC3B2A1); got != "#a1b2c3" {
		t.Fatalf("unexpected hex %q", got)
	}
}

func TestExtractUserValuesOnly(t *testing.T) {
	settings := engine.NewData()
	settings.SetDefault("width", engine.IntValue(800))
	settings.SetString("url", "https://example.com")
	settings.SetDouble("opacity", 0.5)
	settings.SetDouble("scale", 2)
	settings.SetBool("audio", false)
	settings.SetString("css", "")

	out := Extract(settings)
	if _, ok := out["width"]; ok {
		t.Fatalf("default value should not be extracted")
	}
	if _, ok := out["css"]; ok {
		t.Fatalf("empty value should be omitted")
	}
	want := map[string]string{"url": "https://example.com", "opacity": "0.5", "scale": "2", "audio": "false"}
	for k, v := range want {
		if out[k] != v {
			t.Fatalf("%s: expected %q, got %q", k, v, out[k])
		}
	}
}

func TestExtractFontAndArrays(t *testing.T) {
	settings := engine.NewData()
	Apply(settings, "text_ft2_source_v2", map[string]string{"text": "Hi", "font_size": "48"}, nil)
	item := engine.NewData()
	item.SetBool("hidden", false)
	item.SetString("name", "clip")
	item.SetString("path", "/media/a.mp4")
	settings.SetArray("playlist", []*engine.Data{item, BuildList([]string{"/media/b.mp4"})[0]})

	out := Extract(settings)
	if out["font_face"] != defaultFontFace || out["font_size"] != "48" {
		t.Fatalf("unexpected font params %v", out)
	}
	if out["playlist"] != "/media/a.mp4\n/media/b.mp4" {
		t.Fatalf("unexpected playlist %q", out["playlist"])
	}
}

func TestApplyTextFontKeepsCurrentFace(t *testing.T) {
	settings := engine.NewData()
	font := engine.NewData()
	font.SetString("face", "Mono")
	font.SetInt("size", 12)
	settings.SetObject("font", font)

	Apply(settings, "text_ft2_source_v2", map[string]string{"font_size": "30", "outline": "true"}, nil)
	got := settings.GetObject("font")
	if got.GetString("face") != "Mono" || got.GetInt("size") != 30 {
		t.Fatalf("unexpected font %s/%d", got.GetString("face"), got.GetInt("size"))
	}
	if !settings.GetBool("outline") {
		t.Fatalf("generic key should be coerced to bool")
	}
	if settings.HasUserValue("font_size") {
		t.Fatalf("font keys must not leak as generic settings")
	}
}

func TestApplyGenericCoercionOrder(t *testing.T) {
	settings := engine.NewData()
	Apply(settings, "custom_plugin", map[string]string{
		"border_color": "#010203",
		"enabled":      "TRUE",
		"count":        "12",
		"ratio":        "1.25",
		"label":        "hello",
		"tint_color":   "not-a-color",
	}, nil)

	if v, _ := settings.Get("border_color"); v.Kind() != engine.KindInt || v.AsInt() != 0xFF030201 {
		t.Fatalf("expected packed color, got %v", v.AsInt())
	}
	if v, _ := settings.Get("enabled"); v.Kind() != engine.KindBool || !v.AsBool() {
		t.Fatalf("expected bool true")
	}
	if v, _ := settings.Get("count"); v.Kind() != engine.KindInt || v.AsInt() != 12 {
		t.Fatalf("expected int 12")
	}
	if v, _ := settings.Get("ratio"); v.Kind() != engine.KindDouble || v.AsDouble() != 1.25 {
		t.Fatalf("expected double 1.25")
	}
	if settings.GetString("tint_color") != "not-a-color" || settings.GetString("label") != "hello" {
		t.Fatalf("expected string fallbacks")
	}
}

func TestApplyEditableList(t *testing.T) {
	settings := engine.NewData()
	Apply(settings, "vlc_source", map[string]string{"playlist": `["/a.mp4", " ", "/b.mp4"]`}, KeySet{"playlist": true})
	list := settings.GetArray("playlist")
	if len(list) != 2 || list[1].GetString("value") != "/b.mp4" {
		t.Fatalf("unexpected list %+v", list)
	}
	if got := ParseListEntries("one\n\n two \n"); len(got) != 2 || got[1] != "two" {
		t.Fatalf("unexpected line split %v", got)
	}
}

func TestApplyPerTypeKeys(t *testing.T) {
	media := engine.NewData()
	Apply(media, "ffmpeg_source", map[string]string{"file": "/v.mp4", "url": "rtmp://x", "is_local_file": "yes", "speed_percent": "150"}, nil)
	if media.GetString("local_file") != "/v.mp4" || media.GetString("input") != "rtmp://x" || !media.GetBool("is_local_file") {
		t.Fatalf("unexpected media settings")
	}
	if media.HasUserValue("file") || media.HasUserValue("url") {
		t.Fatalf("aliases should not be stored")
	}

	window := engine.NewData()
	Apply(window, "xcomposite_input", map[string]string{"window": "0x1\r\nTerm\r\nxterm"}, nil)
	if window.GetString("capture_window") != window.GetString("window") || window.GetString("window") == "" {
		t.Fatalf("window should be written to both keys")
	}

	pulse := engine.NewData()
	Apply(pulse, "pulse_input_capture", map[string]string{"device": "alsa_input.usb"}, nil)
	if pulse.GetString("device_id") != "alsa_input.usb" {
		t.Fatalf("expected device_id")
	}
}

func TestApplyTransform(t *testing.T) {
	base := engine.Transform{Scale: engine.Vec2{X: 1, Y: 1}}
	got := ApplyTransform(base, 400, 200, map[string]string{
		"pos_x": "10.5", "pos_y": "20", "item_width": "800", "item_height": "100",
		"rotation": "45", "crop_left": "-3", "crop_top": "2.6",
	})
	if got.Pos.X != 10.5 || got.Pos.Y != 20 {
		t.Fatalf("unexpected pos %+v", got.Pos)
	}
	if got.Scale.X != 2 || got.Scale.Y != 0.5 {
		t.Fatalf("unexpected scale %+v", got.Scale)
	}
	if got.Rot != 45 || got.Crop.Left != 0 || got.Crop.Top != 3 {
		t.Fatalf("unexpected rot/crop %+v", got)
	}

	unsized := ApplyTransform(base, 0, 0, map[string]string{"item_width": "800", "item_height": "100", "scale_x": "3"})
	if unsized.Scale.X != 3 || unsized.Scale.Y != 1 {
		t.Fatalf("expected scale params when size unknown, got %+v", unsized.Scale)
	}
}

func TestParseAudio(t *testing.T) {
	a := ParseAudio(map[string]string{"volume_db": "-20", "volume_percent": "50", "monitoring": "Monitor", "audio_tracks": "1, 3,9,x", "muted": "on"})
	if a.Volume == nil || math.Abs(*a.Volume-0.1) > 1e-9 {
		t.Fatalf("expected linear 0.1 from -20 dB")
	}
	if *a.Monitoring != engine.MonitorOnly || *a.Mixers != 0b101 || !*a.Muted {
		t.Fatalf("unexpected audio %+v", a)
	}
	if ParseAudioTracks("") != 1 {
		t.Fatalf("empty track list should default to track 1")
	}
	if got := ParseAudio(map[string]string{"volume_percent": "-5"}); *got.Volume != 0 {
		t.Fatalf("negative percent should clamp to 0")
	}
}

func TestPropertySpecs(t *testing.T) {
	props := []engine.Property{
		{Key: "url", Label: "URL", Kind: engine.PropText},
		{Key: "refresh", Label: "Refresh", Kind: engine.PropButton},
		{Key: "", Label: "Pick a device", Kind: engine.PropInfo},
		{Key: "key_color", Kind: engine.PropColorAlpha},
		{Key: "adv", Kind: engine.PropGroup, Group: []engine.Property{
			{Key: "mode", Label: "Mode", Kind: engine.PropList, Options: []engine.PropertyOption{{Label: "", Value: "a"}}},
			{Key: "playlist", Kind: engine.PropEditableList},
		}},
	}
	specs := PropertySpecs(props)
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.Key+":"+s.Kind)
	}
	want := "url:text,__info_1:info,key_color:color,mode:list,playlist:editable_list"
	if strings.Join(keys, ",") != want {
		t.Fatalf("unexpected specs %s", strings.Join(keys, ","))
	}
	if specs[2].Label != "key_color" || specs[3].Options[0].Label != "mode" {
		t.Fatalf("labels should fall back to keys")
	}
	if lk := EditableListKeys(props); !lk["playlist"] || len(lk) != 1 {
		t.Fatalf("unexpected editable keys %v", lk)
	}
	if ck := ColorKeys(specs); len(ck) != 1 || ck[0] != "key_color" {
		t.Fatalf("unexpected color keys %v", ck)
	}
}
