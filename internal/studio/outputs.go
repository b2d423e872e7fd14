package studio

import (
	"context"
	"errors"
	"strings"

	"revostream/internal/engine"
	"revostream/internal/logging"
	"revostream/internal/services"
)

const (
	recordOutputName  = "revo_record"
	streamOutputName  = "revo_stream"
	streamServiceName = "revo_service"

	muxerOutputType   = "ffmpeg_muxer"
	genericOutputType = "ffmpeg_output"
	rtmpOutputType    = "rtmp_output"
	rtmpServiceType   = "rtmp_custom"
)

var errRecordOutput = services.Fail(services.ErrEngine, "failed to create recording output")

// outputGroup is one recording or streaming session: an output with its
// encoders and, for streaming, its service.
type outputGroup struct {
	output  engine.Output
	service engine.Service
	video   engine.Encoder
	audio   engine.Encoder
	path    string
}

// release frees the group in teardown order: output, service, encoders.
func (g *outputGroup) release() {
	if g == nil {
		return
	}
	g.output.Release()
	g.service.Release()
	g.video.Release()
	g.audio.Release()
}

// stop halts an active output before releasing the group.
func (g *outputGroup) stop(e engine.Engine) {
	if g == nil {
		return
	}
	if !g.output.IsZero() {
		e.OutputStop(g.output.ID())
	}
	g.release()
}

func (st *state) lastError(out engine.Output) string {
	if msg := strings.TrimSpace(st.eng.OutputLastError(out.ID())); msg != "" {
		return msg
	}
	return "unknown error"
}

// bindPipelines attaches fresh encoders when out needs them, otherwise the
// raw media pipelines.
func (st *state) bindPipelines(g *outputGroup, typ string) bool {
	if st.eng.OutputFlags(typ)&engine.OutputEncoded == 0 {
		st.eng.OutputSetMedia(g.output.ID())
		return true
	}
	video, audio, ok := st.createEncoderPair()
	if !ok {
		return false
	}
	g.video, g.audio = video, audio
	st.attachEncoders(g.output, video, audio)
	return true
}

func (st *state) recordOutput(path string, preferred bool) (engine.Output, string) {
	typ := genericOutputType
	if preferred {
		typ = muxerOutputType
	}
	settings := st.eng.OutputDefaults(typ)
	if settings == nil {
		settings = engine.NewData()
	}
	settings.SetString("path", path)
	settings.SetString("url", path)
	settings.SetString("format", "mp4")
	settings.SetString("format_name", "mp4")
	if !preferred {
		settings.SetString("video_encoder", "libx264")
		settings.SetString("audio_encoder", "aac")
		settings.SetInt("video_bitrate", videoBitrate)
		settings.SetInt("audio_bitrate", audioBitrate)
		settings.SetInt("gop_size", recordGOP)
	}
	return engine.CreateOutput(st.eng, typ, recordOutputName, settings), typ
}

// recordAttempt builds and starts one recording output. startErr is set when
// construction succeeded but the engine refused to start; the group is
// released in that case.
func (st *state) recordAttempt(path string, preferred bool) (g *outputGroup, startErr string, err error) {
	out, typ := st.recordOutput(path, preferred)
	if out.IsZero() {
		return nil, "", errRecordOutput
	}
	g = &outputGroup{output: out, path: path}
	st.eng.OutputSetMixers(out.ID(), 1)
	if !st.bindPipelines(g, typ) {
		g.release()
		return nil, "", services.Fail(services.ErrEngine, "failed to create encoders")
	}
	if !st.eng.OutputStart(out.ID()) {
		msg := st.lastError(out)
		g.release()
		return nil, msg, nil
	}
	return g, "", nil
}

// StartRecording records the program output to a fresh file derived from
// path. A refused start is retried once with the generic muxer.
func (r *Runtime) StartRecording(ctx context.Context, path string) (string, error) {
	return r.message(ctx, "start_recording", func(st *state) (string, error) {
		if st.record != nil {
			return "Recording already active", nil
		}
		resolved, err := resolveRecordPath(path)
		if err != nil {
			return "", err
		}
		g, startErr, err := st.recordAttempt(resolved, true)
		if err != nil {
			r.engineWarn(ctx, "start_recording", "recording output construction failed", logging.Error(err))
			return "", err
		}
		if g == nil {
			r.engineWarn(ctx, "start_recording", "preferred muxer refused to start",
				logging.String("last_error", startErr),
				logging.String(logging.FieldImpact, "retrying with generic muxer"),
			)
			firstErr := startErr
			g, startErr, err = st.recordAttempt(resolved, false)
			switch {
			case errors.Is(err, errRecordOutput):
				return "", services.Failf(services.ErrEngine, "recording start failed: %s", firstErr)
			case err != nil:
				return "", err
			case g == nil:
				return "", services.Failf(services.ErrEngine, "recording start failed: %s", startErr)
			}
		}
		st.record = g
		r.queue(ctx, "start_recording", map[string]any{"path": resolved})
		return "Recording started: " + resolved, nil
	})
}

// StopRecording stops the active recording.
func (r *Runtime) StopRecording(ctx context.Context) (string, error) {
	var msg string
	err := r.locked(func(st *state) error {
		msg = st.stopRecording()
		return nil
	})
	if err == nil && msg != "Recording not active" {
		r.record(ctx, "stop_recording", nil)
	}
	r.logResult(ctx, "stop_recording", msg, err)
	return msg, err
}

func (st *state) stopRecording() string {
	if st.record == nil {
		return "Recording not active"
	}
	path := st.record.path
	st.record.stop(st.eng)
	st.record = nil
	if path == "" {
		return "Recording stopped"
	}
	return "Recording stopped: " + path
}

// splitStreamURL splits an ingest URL at its last slash into server and key.
func splitStreamURL(raw string) (server, key string) {
	idx := strings.LastIndex(raw, "/")
	if idx <= 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+1:]
}

// serviceStream builds the service-bound output chain. Nothing is left
// allocated when it fails.
func (st *state) serviceStream(url string) *outputGroup {
	server, key := splitStreamURL(url)
	settings := engine.NewData()
	settings.SetString("server", server)
	settings.SetString("key", key)
	svc := engine.CreateService(st.eng, rtmpServiceType, streamServiceName, settings)
	if svc.IsZero() {
		return nil
	}
	out := engine.CreateOutput(st.eng, rtmpOutputType, streamOutputName, nil)
	if out.IsZero() {
		svc.Release()
		return nil
	}
	g := &outputGroup{output: out, service: svc}
	video, audio, ok := st.createEncoderPair()
	if !ok {
		g.release()
		return nil
	}
	g.video, g.audio = video, audio
	st.attachEncoders(out, video, audio)
	st.eng.OutputSetService(out.ID(), svc.ID())
	return g
}

// directStream builds the generic output that pushes to url itself.
func (st *state) directStream(url string) (*outputGroup, error) {
	settings := engine.NewData()
	settings.SetString("path", url)
	settings.SetString("url", url)
	settings.SetString("format", "flv")
	settings.SetString("format_name", "flv")
	settings.SetString("protocol", "rtmp")
	settings.SetString("video_encoder", "libx264")
	settings.SetString("audio_encoder", "aac")
	settings.SetInt("video_bitrate", videoBitrate)
	settings.SetInt("audio_bitrate", audioBitrate)
	settings.SetInt("gop_size", streamGOP)
	out := engine.CreateOutput(st.eng, genericOutputType, streamOutputName, settings)
	if out.IsZero() {
		return nil, services.Fail(services.ErrEngine, "failed to create stream output")
	}
	g := &outputGroup{output: out}
	if !st.bindPipelines(g, genericOutputType) {
		g.release()
		return nil, services.Fail(services.ErrEngine, "failed to create encoders")
	}
	return g, nil
}

// StartStreaming pushes the program output to an RTMP URL. The service-bound
// chain is tried first and the direct output is the only fallback.
func (r *Runtime) StartStreaming(ctx context.Context, url string) (string, error) {
	return r.message(ctx, "start_streaming", func(st *state) (string, error) {
		if st.stream != nil {
			return "Streaming already active", nil
		}
		url = strings.TrimSpace(url)
		if url == "" {
			return "", services.Fail(services.ErrValidation, "stream URL required")
		}
		g := st.serviceStream(url)
		if g == nil {
			r.engineWarn(ctx, "start_streaming", "service stream chain unavailable",
				logging.String(logging.FieldImpact, "falling back to direct output"))
			var err error
			if g, err = st.directStream(url); err != nil {
				return "", err
			}
		}
		if !st.eng.OutputStart(g.output.ID()) {
			msg := st.lastError(g.output)
			g.release()
			r.engineWarn(ctx, "start_streaming", "stream output refused to start", logging.String("last_error", msg))
			return "", services.Failf(services.ErrEngine, "stream start failed: %s", msg)
		}
		st.stream = g
		r.queue(ctx, "start_streaming", map[string]any{"stream_url": url})
		return "Streaming started", nil
	})
}

// StopStreaming stops the active stream.
func (r *Runtime) StopStreaming(ctx context.Context) (string, error) {
	var msg string
	err := r.locked(func(st *state) error {
		msg = st.stopStreaming()
		return nil
	})
	if err == nil && msg == "Streaming stopped" {
		r.record(ctx, "stop_streaming", nil)
	}
	r.logResult(ctx, "stop_streaming", msg, err)
	return msg, err
}

func (st *state) stopStreaming() string {
	if st.stream == nil {
		return "Streaming not active"
	}
	st.stream.stop(st.eng)
	st.stream = nil
	return "Streaming stopped"
}
