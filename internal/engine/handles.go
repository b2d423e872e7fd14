package engine

// Typed engine object IDs. Zero is the null handle.
type (
	SceneID   uint64
	ItemID    uint64
	SourceID  uint64
	EncoderID uint64
	OutputID  uint64
	ServiceID uint64
	ViewID    uint64
	TargetID  uint64
)

// handle holds the release state shared by every copy of an owned handle.
type handle struct {
	id      uint64
	release func(uint64)
}

func newHandle(id uint64, release func(uint64)) *handle {
	if id == 0 {
		return nil
	}
	return &handle{id: id, release: release}
}

func (h *handle) get() uint64 {
	if h == nil {
		return 0
	}
	return h.id
}

func (h *handle) close() {
	if h == nil || h.id == 0 {
		return
	}
	id := h.id
	h.id = 0
	if h.release != nil {
		h.release(id)
	}
}

// Scene is an owned engine scene.
type Scene struct{ h *handle }

func (s Scene) ID() SceneID { return SceneID(s.h.get()) }
func (s Scene) IsZero() bool { return s.h.get() == 0 }
func (s Scene) Release() { s.h.close() }

// Source is an owned engine source reference.
type Source struct{ h *handle }

func (s Source) ID() SourceID { return SourceID(s.h.get()) }
func (s Source) IsZero() bool { return s.h.get() == 0 }
func (s Source) Release() { s.h.close() }

// Borrow returns a non-owning alias.
func (s Source) Borrow() SourceRef { return SourceRef(s.ID()) }

// Item is an owned scene item; releasing it removes it from its scene.
type Item struct{ h *handle }

func (i Item) ID() ItemID { return ItemID(i.h.get()) }
func (i Item) IsZero() bool { return i.h.get() == 0 }
func (i Item) Release() { i.h.close() }

// Borrow returns a non-owning alias.
func (i Item) Borrow() ItemRef { return ItemRef(i.ID()) }

// Encoder is an owned video or audio encoder.
type Encoder struct{ h *handle }

func (e Encoder) ID() EncoderID { return EncoderID(e.h.get()) }
func (e Encoder) IsZero() bool { return e.h.get() == 0 }
func (e Encoder) Release() { e.h.close() }

// Output is an owned output.
type Output struct{ h *handle }

func (o Output) ID() OutputID { return OutputID(o.h.get()) }
func (o Output) IsZero() bool { return o.h.get() == 0 }
func (o Output) Release() { o.h.close() }

// Service is an owned streaming service.
type Service struct{ h *handle }

func (s Service) ID() ServiceID { return ServiceID(s.h.get()) }
func (s Service) IsZero() bool { return s.h.get() == 0 }
func (s Service) Release() { s.h.close() }

// View is an owned offscreen view.
type View struct{ h *handle }

func (v View) ID() ViewID { return ViewID(v.h.get()) }
func (v View) IsZero() bool { return v.h.get() == 0 }
func (v View) Release() { v.h.close() }

// RenderTarget is an owned texture render target.
type RenderTarget struct{ h *handle }

func (r RenderTarget) ID() TargetID { return TargetID(r.h.get()) }
func (r RenderTarget) IsZero() bool { return r.h.get() == 0 }
func (r RenderTarget) Release() { r.h.close() }

// ItemRef is a borrowed scene item. It is never released by its holder.
type ItemRef ItemID

func (r ItemRef) ID() ItemID { return ItemID(r) }
func (r ItemRef) IsZero() bool { return r == 0 }

// SourceRef is a borrowed source. It is never released by its holder.
type SourceRef SourceID

func (r SourceRef) ID() SourceID { return SourceID(r) }
func (r SourceRef) IsZero() bool { return r == 0 }

// CreateScene creates an owned scene. The result is zero on failure.
func CreateScene(e Engine, name string) Scene {
	id := e.SceneCreate(name)
	return Scene{newHandle(uint64(id), func(v uint64) { e.SceneRelease(SceneID(v)) })}
}

// CreateSource creates an owned source. The result is zero on failure.
func CreateSource(e Engine, typ, name string, settings *Data) Source {
	id := e.SourceCreate(typ, name, settings)
	return Source{newHandle(uint64(id), func(v uint64) { e.SourceRelease(SourceID(v)) })}
}

// AddToScene places src into scene. Releasing the item removes it from the scene.
func AddToScene(e Engine, scene SceneID, src SourceID) Item {
	id := e.SceneAdd(scene, src)
	return Item{newHandle(uint64(id), func(v uint64) { e.SceneItemRemove(ItemID(v)) })}
}

// AdoptItem takes ownership of an item already present in a scene.
func AdoptItem(e Engine, item ItemRef) Item {
	return Item{newHandle(uint64(item), func(v uint64) { e.SceneItemRemove(ItemID(v)) })}
}

// CreateVideoEncoder creates an owned video encoder.
func CreateVideoEncoder(e Engine, typ, name string, settings *Data) Encoder {
	id := e.VideoEncoderCreate(typ, name, settings)
	return Encoder{newHandle(uint64(id), func(v uint64) { e.EncoderRelease(EncoderID(v)) })}
}

// CreateAudioEncoder creates an owned audio encoder on the given mixer.
func CreateAudioEncoder(e Engine, typ, name string, settings *Data, mixer int) Encoder {
	id := e.AudioEncoderCreate(typ, name, settings, mixer)
	return Encoder{newHandle(uint64(id), func(v uint64) { e.EncoderRelease(EncoderID(v)) })}
}

// CreateOutput creates an owned output.
func CreateOutput(e Engine, typ, name string, settings *Data) Output {
	id := e.OutputCreate(typ, name, settings)
	return Output{newHandle(uint64(id), func(v uint64) { e.OutputRelease(OutputID(v)) })}
}

// CreateService creates an owned service.
func CreateService(e Engine, typ, name string, settings *Data) Service {
	id := e.ServiceCreate(typ, name, settings)
	return Service{newHandle(uint64(id), func(v uint64) { e.ServiceRelease(ServiceID(v)) })}
}

// CreateView creates an owned offscreen view.
func CreateView(e Engine) View {
	id := e.ViewCreate()
	return View{newHandle(uint64(id), func(v uint64) { e.ViewDestroy(ViewID(v)) })}
}

// CreateRenderTarget creates an owned BGRA render target.
func CreateRenderTarget(e Engine) RenderTarget {
	id := e.RenderTargetCreate()
	return RenderTarget{newHandle(uint64(id), func(v uint64) { e.RenderTargetDestroy(TargetID(v)) })}
}
