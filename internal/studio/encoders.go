package studio

import (
	"context"
	"strings"

	"revostream/internal/engine"
)

// EncoderDefaultsVersion identifies the encoder and output default table
// below. Ingest compatibility depends on these values; change them only
// together with a new version.
const EncoderDefaultsVersion = "v1"

var (
	hardwareVideoEncoders = []string{"h264_nvenc", "ffmpeg_nvenc", "h264_qsv", "h264_vaapi", "h264_amf"}
	softwareVideoEncoders = []string{"obs_x264", "x264"}
)

const (
	hardwareEncoderName = "revo_video_hw"
	softwareEncoderName = "revo_video"
	audioEncoderName    = "revo_audio"
	audioEncoderType    = "ffmpeg_aac"
	audioMixer          = 0

	videoBitrate  = 2500
	audioBitrate  = 160
	keyintSeconds = 2
	x264Options   = "nal-hrd=cbr:force-cfr=1:open-gop=0:aud=1"

	recordGOP = 250
	streamGOP = 60
)

func hardwareEncoderSettings() *engine.Data {
	d := engine.NewData()
	d.SetInt("bitrate", videoBitrate)
	d.SetString("rate_control", "CBR")
	d.SetInt("keyint_sec", keyintSeconds)
	return d
}

func softwareEncoderSettings() *engine.Data {
	d := engine.NewData()
	d.SetInt("bitrate", videoBitrate)
	d.SetString("rate_control", "CBR")
	d.SetInt("buffer_size", videoBitrate)
	d.SetInt("keyint_sec", keyintSeconds)
	d.SetInt("bframes", 0)
	d.SetString("profile", "baseline")
	d.SetString("tune", "zerolatency")
	d.SetBool("repeat_headers", true)
	d.SetString("x264opts", x264Options)
	return d
}

func audioEncoderSettings() *engine.Data {
	d := engine.NewData()
	d.SetInt("bitrate", audioBitrate)
	return d
}

// encoderAvailable matches typ against the engine's encoder types ignoring case.
func (st *state) encoderAvailable(typ string) bool {
	for _, available := range st.eng.EncoderTypes() {
		if strings.EqualFold(available, typ) {
			return true
		}
	}
	return false
}

// createVideoEncoder tries the hardware candidates in order when hardware is
// preferred, then the software encoder.
func (st *state) createVideoEncoder() engine.Encoder {
	if st.preference == PreferHardware {
		for _, typ := range hardwareVideoEncoders {
			if !st.encoderAvailable(typ) {
				continue
			}
			if enc := engine.CreateVideoEncoder(st.eng, typ, hardwareEncoderName, hardwareEncoderSettings()); !enc.IsZero() {
				return enc
			}
		}
	}
	for _, typ := range softwareVideoEncoders {
		if !st.encoderAvailable(typ) {
			continue
		}
		if enc := engine.CreateVideoEncoder(st.eng, typ, softwareEncoderName, softwareEncoderSettings()); !enc.IsZero() {
			return enc
		}
	}
	return engine.Encoder{}
}

func (st *state) createAudioEncoder() engine.Encoder {
	return engine.CreateAudioEncoder(st.eng, audioEncoderType, audioEncoderName, audioEncoderSettings(), audioMixer)
}

// createEncoderPair builds a video and audio encoder. On failure neither is
// left allocated.
func (st *state) createEncoderPair() (video, audio engine.Encoder, ok bool) {
	video = st.createVideoEncoder()
	audio = st.createAudioEncoder()
	if video.IsZero() || audio.IsZero() {
		video.Release()
		audio.Release()
		return engine.Encoder{}, engine.Encoder{}, false
	}
	return video, audio, true
}

// attachEncoders binds the pair to the global pipelines and to out.
func (st *state) attachEncoders(out engine.Output, video, audio engine.Encoder) {
	st.eng.EncoderSetVideo(video.ID())
	st.eng.EncoderSetAudio(audio.ID())
	st.eng.OutputSetVideoEncoder(out.ID(), video.ID())
	st.eng.OutputSetAudioEncoder(out.ID(), audio.ID(), 0)
}

// SetEncoderPreference selects the encoder family for the next output start.
func (r *Runtime) SetEncoderPreference(ctx context.Context, value string) (string, error) {
	var msg string
	err := r.locked(func(st *state) error {
		normalized := strings.ToLower(strings.TrimSpace(value))
		st.preference = NormalizeEncoderPreference(normalized)
		msg = "Encoder preference set to " + normalized
		return nil
	})
	if err == nil {
		r.record(ctx, "set_encoder_preference", map[string]any{"preference": strings.ToLower(strings.TrimSpace(value))})
	}
	r.logResult(ctx, "set_encoder_preference", msg, err)
	return msg, err
}
