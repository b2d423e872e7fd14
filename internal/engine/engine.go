package engine

// VideoInfo describes the global video pipeline.
type VideoInfo struct {
	FPSNum       uint32
	FPSDen       uint32
	BaseWidth    uint32
	BaseHeight   uint32
	OutputWidth  uint32
	OutputHeight uint32
	Format       string
	Colorspace   string
	Range        string
	ScaleType    string
}

// AudioInfo describes the global audio pipeline.
type AudioInfo struct {
	SampleRate uint32
	Speakers   int
}

// Vec2 is a 2D vector in scene pixels.
type Vec2 struct {
	X float64
	Y float64
}

// Crop trims pixels from each edge of an item.
type Crop struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Transform is the placement of an item within its scene.
type Transform struct {
	Pos   Vec2
	Scale Vec2
	Rot   float64
	Crop  Crop
}

// OrderMovement moves an item within its scene's z-order.
type OrderMovement int

const (
	OrderMoveUp OrderMovement = iota
	OrderMoveDown
	OrderMoveTop
	OrderMoveBottom
)

// OutputFlags describes what an output type consumes.
type OutputFlags uint32

const (
	OutputVideo OutputFlags = 1 << iota
	OutputAudio
	OutputEncoded
	OutputService
)

// Monitoring is a source's audio monitoring mode.
type Monitoring int

const (
	MonitorNone Monitoring = iota
	MonitorOnly
	MonitorAndOutput
)

// PropertyKind classifies a source property.
type PropertyKind string

const (
	PropBool         PropertyKind = "bool"
	PropInt          PropertyKind = "int"
	PropFloat        PropertyKind = "float"
	PropText         PropertyKind = "text"
	PropPath         PropertyKind = "path"
	PropList         PropertyKind = "list"
	PropColor        PropertyKind = "color"
	PropColorAlpha   PropertyKind = "color_alpha"
	PropButton       PropertyKind = "button"
	PropFont         PropertyKind = "font"
	PropEditableList PropertyKind = "editable_list"
	PropGroup        PropertyKind = "group"
	PropInfo         PropertyKind = "info"
	PropInvalid      PropertyKind = "invalid"
)

// PropertyOption is one choice of a list property.
type PropertyOption struct {
	Label string
	Value string
}

// Property describes one configurable setting of a source type.
type Property struct {
	Key     string
	Label   string
	Hint    string
	Kind    PropertyKind
	Options []PropertyOption
	// Group holds child properties when Kind is PropGroup.
	Group []Property
}

// Frame is a rendered image.
type Frame struct {
	Width  uint32
	Height uint32
	Format string
	Stride int
	Pix    []byte
}

// Frame formats.
const (
	FormatRGBA = "rgba"
	FormatBGRA = "bgra"
)

// Lifecycle starts and stops the engine and its global pipelines.
type Lifecycle interface {
	Startup(root string) error
	Shutdown()
	ResetVideo(info VideoInfo) bool
	ResetAudio(info AudioInfo) bool
	VideoInfo() (VideoInfo, bool)
	// SetOutputSource binds src to a global output channel; zero clears it.
	SetOutputSource(channel int, src SourceID)
}

// Registry describes the types the engine can instantiate.
type Registry interface {
	InputTypes() []string
	EncoderTypes() []string
	SourceTypeLabel(typ string) string
	OutputFlags(typ string) OutputFlags
	OutputDefaults(typ string) *Data
	SourceProperties(typ string) []Property
	// SaveSources returns the engine-native description of every live source.
	SaveSources() []*Data
}

// Sources manages sources and their filters.
type Sources interface {
	SourceCreate(typ, name string, settings *Data) SourceID
	SourceRelease(src SourceID)
	SourceName(src SourceID) string
	SourceSetName(src SourceID, name string)
	SourceType(src SourceID) string
	// SourceSettings returns a copy; SourceUpdate merges user values back.
	SourceSettings(src SourceID) *Data
	SourceUpdate(src SourceID, settings *Data)
	SourceSize(src SourceID) (uint32, uint32)
	SourceIncShowing(src SourceID)
	SourceDecShowing(src SourceID)
	SourceEnabled(src SourceID) bool
	SourceSetEnabled(src SourceID, enabled bool)
	SourceSetVolume(src SourceID, volume float64)
	SourceSetMuted(src SourceID, muted bool)
	SourceSetMonitoring(src SourceID, mode Monitoring)
	SourceSetAudioMixers(src SourceID, mixers uint32)
	SourceFilters(src SourceID) []SourceRef
	SourceFilterByName(src SourceID, name string) SourceRef
	SourceFilterAdd(src, filter SourceID)
	SourceFilterRemove(src, filter SourceID)
}

// Scenes manages scenes and scene items.
type Scenes interface {
	SceneCreate(name string) SceneID
	SceneRelease(scene SceneID)
	SceneSource(scene SceneID) SourceRef
	SceneItems(scene SceneID) []ItemRef
	SceneAdd(scene SceneID, src SourceID) ItemID
	SceneItemRemove(item ItemID)
	SceneReorderItems(scene SceneID, order []ItemID) bool
	ItemSource(item ItemID) SourceRef
	ItemVisible(item ItemID) bool
	ItemSetVisible(item ItemID, visible bool)
	ItemTransform(item ItemID) Transform
	ItemSetTransform(item ItemID, t Transform)
	ItemSetOrder(item ItemID, move OrderMovement)
}

// Encoders manages encoders and services.
type Encoders interface {
	VideoEncoderCreate(typ, name string, settings *Data) EncoderID
	AudioEncoderCreate(typ, name string, settings *Data, mixer int) EncoderID
	EncoderRelease(enc EncoderID)
	// EncoderSetVideo and EncoderSetAudio bind an encoder to the global pipeline.
	EncoderSetVideo(enc EncoderID)
	EncoderSetAudio(enc EncoderID)
	ServiceCreate(typ, name string, settings *Data) ServiceID
	ServiceRelease(svc ServiceID)
}

// Outputs manages outputs.
type Outputs interface {
	OutputCreate(typ, name string, settings *Data) OutputID
	OutputRelease(out OutputID)
	OutputSetMixers(out OutputID, mixers uint32)
	OutputSetMedia(out OutputID)
	OutputSetVideoEncoder(out OutputID, enc EncoderID)
	OutputSetAudioEncoder(out OutputID, enc EncoderID, idx int)
	OutputSetService(out OutputID, svc ServiceID)
	OutputStart(out OutputID) bool
	OutputStop(out OutputID)
	OutputActive(out OutputID) bool
	OutputLastError(out OutputID) string
}

// Views manages offscreen rendering.
type Views interface {
	ViewCreate() ViewID
	ViewDestroy(view ViewID)
	ViewSetSource(view ViewID, channel int, src SourceID)
	RenderTargetCreate() TargetID
	RenderTargetDestroy(target TargetID)
	// RenderView renders view into target at the given size.
	RenderView(view ViewID, target TargetID, width, height uint32) (Frame, bool)
}

// Engine is the full contract the runtime drives. Implementations are not
// safe for concurrent use; callers serialize every call.
type Engine interface {
	Lifecycle
	Registry
	Sources
	Scenes
	Encoders
	Outputs
	Views
}
