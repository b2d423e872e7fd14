package memengine

import (
	"fmt"
	"sort"
	"sync"

	"revostream/internal/engine"
)

// Option configures an Engine.
type Option func(*Engine)

// WithHardwareEncoders registers hardware video encoder types.
func WithHardwareEncoders(types ...string) Option {
	return func(e *Engine) {
		for _, typ := range types {
			e.types[typ] = &typeInfo{id: typ, label: typ, kind: kindVideoEncoder}
			e.typeOrder = append(e.typeOrder, typ)
		}
	}
}

// Engine is an in-memory compositor. Methods are safe for concurrent use but
// callers are expected to serialize access the way they would for a native engine.
type Engine struct {
	mu sync.Mutex

	started  bool
	root     string
	video    engine.VideoInfo
	videoSet bool
	audio    engine.AudioInfo
	channels map[int]engine.SourceID

	nextID   uint64
	sources  map[engine.SourceID]*source
	scenes   map[engine.SceneID]*scene
	items    map[engine.ItemID]*item
	encoders map[engine.EncoderID]*encoder
	outputs  map[engine.OutputID]*output
	services map[engine.ServiceID]*service
	views    map[engine.ViewID]*view
	targets  map[engine.TargetID]struct{}

	types     map[string]*typeInfo
	typeOrder []string

	failStart   map[string]string
	failCreate  map[string]bool
	failReorder bool
	failReset   bool
	noTargets   bool
}

// New returns an engine with the default type registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		channels:   make(map[int]engine.SourceID),
		sources:    make(map[engine.SourceID]*source),
		scenes:     make(map[engine.SceneID]*scene),
		items:      make(map[engine.ItemID]*item),
		encoders:   make(map[engine.EncoderID]*encoder),
		outputs:    make(map[engine.OutputID]*output),
		services:   make(map[engine.ServiceID]*service),
		views:      make(map[engine.ViewID]*view),
		targets:    make(map[engine.TargetID]struct{}),
		failStart:  make(map[string]string),
		failCreate: make(map[string]bool),
	}
	e.registerDefaults()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) id() uint64 {
	e.nextID++
	return e.nextID
}

// FailStart makes outputs of typ fail to start with the given last error.
func (e *Engine) FailStart(typ, lastError string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failStart[typ] = lastError
}

// FailCreate makes constructors for typ return a null handle.
func (e *Engine) FailCreate(typ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failCreate[typ] = true
}

// RemoveType drops typ from the registry.
func (e *Engine) RemoveType(typ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.types, typ)
	for i, id := range e.typeOrder {
		if id == typ {
			e.typeOrder = append(e.typeOrder[:i], e.typeOrder[i+1:]...)
			break
		}
	}
}

// FailReorder makes SceneReorderItems report failure.
func (e *Engine) FailReorder(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failReorder = fail
}

// FailReset makes ResetVideo and ResetAudio report failure.
func (e *Engine) FailReset(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failReset = fail
}

// DisableRenderTargets makes RenderTargetCreate return a null handle.
func (e *Engine) DisableRenderTargets(disable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.noTargets = disable
}

// Startup marks the engine running.
func (e *Engine) Startup(root string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.root = root
	return nil
}

// Shutdown stops the engine. Objects still held stay in the table so Live can
// report them.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false
	e.videoSet = false
	e.channels = make(map[int]engine.SourceID)
}

// Started reports whether Startup ran without a later Shutdown.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

func (e *Engine) ResetVideo(info engine.VideoInfo) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failReset || !e.started {
		return false
	}
	if info.BaseWidth == 0 || info.BaseHeight == 0 || info.FPSNum == 0 || info.FPSDen == 0 {
		return false
	}
	e.video = info
	e.videoSet = true
	return true
}

func (e *Engine) ResetAudio(info engine.AudioInfo) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failReset || !e.started || info.SampleRate == 0 {
		return false
	}
	e.audio = info
	return true
}

func (e *Engine) VideoInfo() (engine.VideoInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.video, e.videoSet
}

func (e *Engine) SetOutputSource(channel int, src engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if src == 0 {
		delete(e.channels, channel)
		return
	}
	if _, ok := e.sources[src]; ok {
		e.channels[channel] = src
	}
}

// OutputSource returns the source bound to a global output channel.
func (e *Engine) OutputSource(channel int) engine.SourceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channels[channel]
}

// Live counts objects still held, by category.
func (e *Engine) Live() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int)
	add := func(kind string, n int) {
		if n > 0 {
			out[kind] = n
		}
	}
	standalone := 0
	for _, src := range e.sources {
		if src.scene == 0 {
			standalone++
		}
	}
	add("source", standalone)
	add("scene", len(e.scenes))
	add("item", len(e.items))
	add("encoder", len(e.encoders))
	add("output", len(e.outputs))
	add("service", len(e.services))
	add("view", len(e.views))
	add("target", len(e.targets))
	return out
}

// LiveCount is the total of Live.
func (e *Engine) LiveCount() int {
	total := 0
	for _, n := range e.Live() {
		total += n
	}
	return total
}

// Showing returns the showing count of src.
func (e *Engine) Showing(src engine.SourceID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sources[src]; ok {
		return s.showing
	}
	return 0
}

// SourceInfo is an inspection snapshot of a source.
type SourceInfo struct {
	ID         engine.SourceID
	Name       string
	Type       string
	Refs       int
	Showing    int
	Enabled    bool
	Volume     float64
	Muted      bool
	Monitoring engine.Monitoring
	Mixers     uint32
}

// Sources lists live non-scene sources in creation order.
func (e *Engine) Sources() []SourceInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SourceInfo, 0, len(e.sources))
	for _, id := range sortedKeys(e.sources) {
		s := e.sources[id]
		if s.scene != 0 {
			continue
		}
		out = append(out, SourceInfo{
			ID: id, Name: s.name, Type: s.typ, Refs: s.refs, Showing: s.showing,
			Enabled: s.enabled, Volume: s.volume, Muted: s.muted,
			Monitoring: s.monitoring, Mixers: s.mixers,
		})
	}
	return out
}

// OutputInfo is an inspection snapshot of an output.
type OutputInfo struct {
	ID       engine.OutputID
	Type     string
	Active   bool
	Settings *engine.Data
	Video    engine.EncoderID
	Audio    engine.EncoderID
	Service  engine.ServiceID
	Mixers   uint32
}

// Outputs lists live outputs in creation order.
func (e *Engine) Outputs() []OutputInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]OutputInfo, 0, len(e.outputs))
	for _, id := range sortedKeys(e.outputs) {
		o := e.outputs[id]
		out = append(out, OutputInfo{
			ID: id, Type: o.typ, Active: o.active, Settings: o.settings.Clone(),
			Video: o.video, Audio: o.audio[0], Service: o.service, Mixers: o.mixers,
		})
	}
	return out
}

// EncoderInfo is an inspection snapshot of an encoder.
type EncoderInfo struct {
	ID       engine.EncoderID
	Type     string
	Name     string
	Audio    bool
	Mixer    int
	Settings *engine.Data
}

// Encoders lists live encoders in creation order.
func (e *Engine) Encoders() []EncoderInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]EncoderInfo, 0, len(e.encoders))
	for _, id := range sortedKeys(e.encoders) {
		enc := e.encoders[id]
		out = append(out, EncoderInfo{
			ID: id, Type: enc.typ, Name: enc.name, Audio: enc.audio,
			Mixer: enc.mixer, Settings: enc.settings.Clone(),
		})
	}
	return out
}

func sortedKeys[K ~uint64, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var _ engine.Engine = (*Engine)(nil)
