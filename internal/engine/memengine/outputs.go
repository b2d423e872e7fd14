package memengine

import (
	"strings"

	"revostream/internal/engine"
)

type encoder struct {
	id       engine.EncoderID
	typ      string
	name     string
	audio    bool
	mixer    int
	settings *engine.Data
	bound    bool
}

type service struct {
	id       engine.ServiceID
	typ      string
	settings *engine.Data
}

type output struct {
	id        engine.OutputID
	typ       string
	flags     engine.OutputFlags
	settings  *engine.Data
	mixers    uint32
	media     bool
	video     engine.EncoderID
	audio     [6]engine.EncoderID
	service   engine.ServiceID
	active    bool
	lastError string
}

func cloneSettings(settings *engine.Data) *engine.Data {
	if settings == nil {
		return engine.NewData()
	}
	return settings.Clone()
}

func (e *Engine) VideoEncoderCreate(typ, name string, settings *engine.Data) engine.EncoderID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookupType(typ, kindVideoEncoder) == nil {
		return 0
	}
	enc := &encoder{id: engine.EncoderID(e.id()), typ: typ, name: name, settings: cloneSettings(settings)}
	e.encoders[enc.id] = enc
	return enc.id
}

func (e *Engine) AudioEncoderCreate(typ, name string, settings *engine.Data, mixer int) engine.EncoderID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookupType(typ, kindAudioEncoder) == nil || mixer < 0 || mixer > 5 {
		return 0
	}
	enc := &encoder{id: engine.EncoderID(e.id()), typ: typ, name: name, audio: true, mixer: mixer, settings: cloneSettings(settings)}
	e.encoders[enc.id] = enc
	return enc.id
}

func (e *Engine) EncoderRelease(id engine.EncoderID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.encoders, id)
}

func (e *Engine) EncoderSetVideo(id engine.EncoderID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enc, ok := e.encoders[id]; ok && !enc.audio {
		enc.bound = true
	}
}

func (e *Engine) EncoderSetAudio(id engine.EncoderID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enc, ok := e.encoders[id]; ok && enc.audio {
		enc.bound = true
	}
}

func (e *Engine) ServiceCreate(typ, name string, settings *engine.Data) engine.ServiceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookupType(typ, kindService) == nil {
		return 0
	}
	s := cloneSettings(settings)
	if strings.TrimSpace(s.GetString("server")) == "" {
		return 0
	}
	svc := &service{id: engine.ServiceID(e.id()), typ: typ, settings: s}
	e.services[svc.id] = svc
	return svc.id
}

func (e *Engine) ServiceRelease(id engine.ServiceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.services, id)
}

func (e *Engine) OutputCreate(typ, name string, settings *engine.Data) engine.OutputID {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.lookupType(typ, kindOutput)
	if t == nil {
		return 0
	}
	out := &output{id: engine.OutputID(e.id()), typ: typ, flags: t.flags, settings: cloneSettings(settings), mixers: 1}
	e.outputs[out.id] = out
	return out.id
}

// OutputRelease stops the output first when it is still active.
func (e *Engine) OutputRelease(id engine.OutputID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.outputs, id)
}

func (e *Engine) OutputSetMixers(id engine.OutputID, mixers uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if out, ok := e.outputs[id]; ok {
		out.mixers = mixers
	}
}

func (e *Engine) OutputSetMedia(id engine.OutputID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if out, ok := e.outputs[id]; ok {
		out.media = true
	}
}

func (e *Engine) OutputSetVideoEncoder(id engine.OutputID, enc engine.EncoderID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.outputs[id]
	if !ok || out.flags&engine.OutputEncoded == 0 {
		return
	}
	if v, ok := e.encoders[enc]; ok && !v.audio {
		out.video = enc
	}
}

func (e *Engine) OutputSetAudioEncoder(id engine.OutputID, enc engine.EncoderID, idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.outputs[id]
	if !ok || out.flags&engine.OutputEncoded == 0 || idx < 0 || idx >= len(out.audio) {
		return
	}
	if a, ok := e.encoders[enc]; ok && a.audio {
		out.audio[idx] = enc
	}
}

func (e *Engine) OutputSetService(id engine.OutputID, svc engine.ServiceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.outputs[id]
	if !ok || out.flags&engine.OutputService == 0 {
		return
	}
	if _, ok := e.services[svc]; ok {
		out.service = svc
	}
}

func (e *Engine) OutputStart(id engine.OutputID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.outputs[id]
	if !ok {
		return false
	}
	if out.active {
		return true
	}
	if msg, fail := e.failStart[out.typ]; fail {
		out.lastError = msg
		return false
	}
	if !e.started || !e.videoSet {
		out.lastError = "video not initialized"
		return false
	}
	if out.flags&engine.OutputEncoded != 0 {
		if _, ok := e.encoders[out.video]; !ok {
			out.lastError = "no video encoder"
			return false
		}
		if _, ok := e.encoders[out.audio[0]]; !ok {
			out.lastError = "no audio encoder"
			return false
		}
	}
	if out.flags&engine.OutputService != 0 {
		if _, ok := e.services[out.service]; !ok {
			out.lastError = "no service"
			return false
		}
	}
	target := out.settings.GetString("path")
	if out.typ == "ffmpeg_output" {
		target = out.settings.GetString("url")
	}
	if out.flags&engine.OutputService == 0 && strings.TrimSpace(target) == "" {
		out.lastError = "no output target"
		return false
	}
	out.lastError = ""
	out.active = true
	return true
}

func (e *Engine) OutputStop(id engine.OutputID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if out, ok := e.outputs[id]; ok {
		out.active = false
	}
}

func (e *Engine) OutputActive(id engine.OutputID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if out, ok := e.outputs[id]; ok {
		return out.active
	}
	return false
}

func (e *Engine) OutputLastError(id engine.OutputID) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if out, ok := e.outputs[id]; ok {
		return out.lastError
	}
	return ""
}
