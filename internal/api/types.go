package api

import "time"

// MessageResponse carries the human-readable result of a mutating call.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Status aggregates runtime and daemon state.
type Status struct {
	Initialized       bool   `json:"initialized"`
	Poisoned          bool   `json:"poisoned"`
	CurrentScene      string `json:"current_scene,omitempty"`
	SceneCount        int    `json:"scene_count"`
	Recording         bool   `json:"recording"`
	RecordingPath     string `json:"recording_path,omitempty"`
	Streaming         bool   `json:"streaming"`
	EncoderPreference string `json:"encoder_preference"`
	EncoderDefaults   string `json:"encoder_defaults"`
	SceneResolution   string `json:"scene_resolution"`
	Daemon            Daemon `json:"daemon"`
}

// Daemon describes the serving process.
type Daemon struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid"`
	LockPath       string `json:"lock_path"`
	JournalPath    string `json:"journal_path,omitempty"`
	LogPath        string `json:"log_path,omitempty"`
	DeviceMonitor  bool   `json:"device_monitor"`
	StartedAt      string `json:"started_at"`
	JournalEntries int    `json:"journal_entries"`
}

// Scene is one entry of the scene list.
type Scene struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Locked bool   `json:"locked"`
}

// SceneListResponse wraps the scene list.
type SceneListResponse struct {
	Scenes []Scene `json:"scenes"`
}

// SceneRequest names a scene to create, rename to or switch to.
type SceneRequest struct {
	Name string `json:"name"`
}

// LockRequest sets a scene lock.
type LockRequest struct {
	Locked bool `json:"locked"`
}

// OrderRequest moves a scene or item to a list index.
type OrderRequest struct {
	Index int `json:"index"`
}

// ResolutionResponse reports the canvas size as WxH.
type ResolutionResponse struct {
	Resolution string `json:"resolution"`
}

// Source is one item of the current scene.
type Source struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Visible    bool              `json:"visible"`
	SourceType string            `json:"source_type"`
	Params     map[string]string `json:"params"`
}

// SourceListResponse wraps the item list.
type SourceListResponse struct {
	Sources []Source `json:"sources"`
}

// CreateSourceRequest creates an item in the current scene.
type CreateSourceRequest struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	SourceType string            `json:"source_type"`
	Params     map[string]string `json:"params"`
	Visible    *bool             `json:"visible,omitempty"`
}

// UpdateSourceRequest changes an existing item. The id comes from the path.
type UpdateSourceRequest struct {
	Name       string            `json:"name"`
	SourceType string            `json:"source_type"`
	Params     map[string]string `json:"params"`
}

// VisibleRequest shows or hides an item.
type VisibleRequest struct {
	Visible bool `json:"visible"`
}

// MoveRequest moves an item one of up, down, top or bottom.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// Property describes one editable setting of a source type.
type Property struct {
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Kind    string           `json:"kind"`
	Hint    string           `json:"hint,omitempty"`
	Options []PropertyOption `json:"options,omitempty"`
}

// PropertyOption is one choice of a list property.
type PropertyOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SourceSettings is the editable view of one item.
type SourceSettings struct {
	Name       string            `json:"name"`
	SourceType string            `json:"source_type"`
	Params     map[string]string `json:"params"`
	Properties []Property        `json:"source_properties"`
}

// PropertyListResponse wraps the properties of a source type.
type PropertyListResponse struct {
	Properties []Property `json:"properties"`
}

// SourceType is one instantiable input type.
type SourceType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SourceTypeListResponse wraps the input type list.
type SourceTypeListResponse struct {
	Types []SourceType `json:"types"`
}

// Filter is one entry of a source filter chain.
type Filter struct {
	Name    string            `json:"name"`
	Kind    string            `json:"kind"`
	Enabled bool              `json:"enabled"`
	Params  map[string]string `json:"params"`
}

// FiltersPayload carries a whole filter chain in either direction.
type FiltersPayload struct {
	Filters []Filter `json:"filters"`
}

// RecordingRequest starts a recording. An empty path uses the configured one.
type RecordingRequest struct {
	Path string `json:"path"`
}

// StreamingRequest starts streaming. An empty URL uses the configured target.
type StreamingRequest struct {
	URL string `json:"url"`
}

// EncoderPreferenceRequest selects hardware or software encoding.
type EncoderPreferenceRequest struct {
	Preference string `json:"preference"`
}

// ExportRequest writes the collection to a file on the daemon host.
type ExportRequest struct {
	Path   string `json:"path"`
	UIJSON string `json:"ui_json,omitempty"`
	Native bool   `json:"native"`
}

// ImportSkip is one source an import could not create.
type ImportSkip struct {
	Scene  string `json:"scene"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// ImportResponse summarizes a collection import.
type ImportResponse struct {
	Message string       `json:"message"`
	Scenes  int          `json:"scenes"`
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Skips   []ImportSkip `json:"skips,omitempty"`
}

// Violation is one schema failure.
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ValidateResponse reports whether a collection document matches the schema.
type ValidateResponse struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// PreviewResponse carries a PNG data URL.
type PreviewResponse struct {
	DataURL string `json:"data_url"`
}

// Device is one capture device.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DeviceListResponse wraps a device list.
type DeviceListResponse struct {
	Devices []Device `json:"devices"`
}

// JournalEntry is one recorded action.
type JournalEntry struct {
	Seq         uint64         `json:"seq"`
	ID          string         `json:"id"`
	TimestampMS int64          `json:"timestamp_ms"`
	Action      string         `json:"action"`
	Detail      map[string]any `json:"detail,omitempty"`
}

// JournalResponse wraps journal entries oldest first.
type JournalResponse struct {
	Entries []JournalEntry `json:"entries"`
}

// Event is one message of the websocket event stream.
type Event struct {
	Type    string        `json:"type"`
	Journal *JournalEntry `json:"journal,omitempty"`
}

// EventTypeJournal marks a journal entry event.
const EventTypeJournal = "journal"

// LogEvent is one daemon log line.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Operation     string            `json:"operation,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse wraps log events with the cursor for the next fetch.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
