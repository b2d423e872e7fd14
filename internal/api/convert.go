package api

import (
	"revostream/internal/collection"
	"revostream/internal/devices"
	"revostream/internal/journal"
	"revostream/internal/logging"
	"revostream/internal/params"
	"revostream/internal/studio"
)

// FromStatus converts the runtime status.
func FromStatus(s studio.Status) Status {
	return Status{
		Initialized:       s.Initialized,
		CurrentScene:      s.CurrentScene,
		SceneCount:        s.SceneCount,
		Recording:         s.Recording,
		RecordingPath:     s.RecordingPath,
		Streaming:         s.Streaming,
		EncoderPreference: s.EncoderPreference,
		EncoderDefaults:   s.EncoderDefaults,
		SceneResolution:   s.SceneResolution,
	}
}

// FromScenes converts the scene list. The result is never nil.
func FromScenes(in []studio.SceneInfo) []Scene {
	out := make([]Scene, 0, len(in))
	for _, s := range in {
		out = append(out, Scene{Name: s.Name, Active: s.Active, Locked: s.Locked})
	}
	return out
}

// FromSources converts the item list. The result is never nil.
func FromSources(in []studio.SourceInfo) []Source {
	out := make([]Source, 0, len(in))
	for _, s := range in {
		out = append(out, Source{
			ID:         s.ID,
			Name:       s.Name,
			Visible:    s.Visible,
			SourceType: s.SourceType,
			Params:     nonNilParams(s.Params),
		})
	}
	return out
}

// ToSourceCreate converts a create request.
func ToSourceCreate(req CreateSourceRequest) studio.SourceCreate {
	return studio.SourceCreate{
		ID:      req.ID,
		Name:    req.Name,
		Type:    req.SourceType,
		Params:  req.Params,
		Visible: req.Visible,
	}
}

// ToSourceUpdate converts an update request for item id.
func ToSourceUpdate(id string, req UpdateSourceRequest) studio.SourceUpdate {
	return studio.SourceUpdate{
		ID:     id,
		Name:   req.Name,
		Type:   req.SourceType,
		Params: req.Params,
	}
}

// FromProperties converts property specs.
func FromProperties(in []params.PropertySpec) []Property {
	out := make([]Property, 0, len(in))
	for _, p := range in {
		prop := Property{Key: p.Key, Label: p.Label, Kind: p.Kind, Hint: p.Hint}
		for _, o := range p.Options {
			prop.Options = append(prop.Options, PropertyOption{Value: o.Value, Label: o.Label})
		}
		out = append(out, prop)
	}
	return out
}

// FromSourceSettings converts the editable view of an item.
func FromSourceSettings(s studio.SourceSettings) SourceSettings {
	return SourceSettings{
		Name:       s.Name,
		SourceType: s.SourceType,
		Params:     nonNilParams(s.Params),
		Properties: FromProperties(s.Properties),
	}
}

// FromSourceTypes converts the input type list.
func FromSourceTypes(in []studio.SourceType) []SourceType {
	out := make([]SourceType, 0, len(in))
	for _, t := range in {
		out = append(out, SourceType{ID: t.ID, Label: t.Label})
	}
	return out
}

// FromFilters converts a filter chain.
func FromFilters(in []studio.FilterSpec) []Filter {
	out := make([]Filter, 0, len(in))
	for _, f := range in {
		out = append(out, Filter{Name: f.Name, Kind: f.Kind, Enabled: f.Enabled, Params: nonNilParams(f.Params)})
	}
	return out
}

// ToFilterSpecs converts a requested filter chain.
func ToFilterSpecs(in []Filter) []studio.FilterSpec {
	out := make([]studio.FilterSpec, 0, len(in))
	for _, f := range in {
		out = append(out, studio.FilterSpec{Name: f.Name, Kind: f.Kind, Enabled: f.Enabled, Params: f.Params})
	}
	return out
}

// FromImportResult converts an import summary.
func FromImportResult(res collection.Result) ImportResponse {
	out := ImportResponse{
		Message: res.Message,
		Scenes:  res.Scenes,
		Created: res.Created,
		Skipped: res.Skipped,
	}
	for _, s := range res.Skips {
		out.Skips = append(out.Skips, ImportSkip{Scene: s.Scene, Source: s.Source, Reason: s.Reason})
	}
	return out
}

// FromViolations converts schema violations.
func FromViolations(in []collection.Violation) ValidateResponse {
	out := ValidateResponse{Valid: len(in) == 0}
	for _, v := range in {
		out.Violations = append(out.Violations, Violation{Location: v.Location, Message: v.Message})
	}
	return out
}

// FromDevices converts a device list. The result is never nil.
func FromDevices(in []devices.Device) []Device {
	out := make([]Device, 0, len(in))
	for _, d := range in {
		out = append(out, Device{ID: d.ID, Label: d.Label})
	}
	return out
}

// FromJournalEntry converts one journal entry.
func FromJournalEntry(e journal.Entry) JournalEntry {
	return JournalEntry{
		Seq:         e.Seq,
		ID:          e.ID,
		TimestampMS: e.TimestampMS,
		Action:      e.Action,
		Detail:      e.Detail,
	}
}

// FromJournal converts journal entries. The result is never nil.
func FromJournal(in []journal.Entry) []JournalEntry {
	out := make([]JournalEntry, 0, len(in))
	for _, e := range in {
		out = append(out, FromJournalEntry(e))
	}
	return out
}

// FromLogEvents converts log stream events.
func FromLogEvents(in []logging.LogEvent) []LogEvent {
	out := make([]LogEvent, 0, len(in))
	for _, evt := range in {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     evt.Timestamp,
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			Operation:     evt.Operation,
			RequestID:     evt.RequestID,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}

func nonNilParams(p map[string]string) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return p
}
