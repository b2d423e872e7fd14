package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"revostream/internal/api"
)

func (c *Client) message(ctx context.Context, method, path string, payload any) (string, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, method, path, nil, payload, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Health reports whether the daemon answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

// Status returns runtime and daemon state.
func (c *Client) Status(ctx context.Context) (api.Status, error) {
	var status api.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &status)
	return status, err
}

// Start brings the engine up with the daemon's configured options.
func (c *Client) Start(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/runtime/start", nil)
}

// Shutdown tears the engine down.
func (c *Client) Shutdown(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/runtime/shutdown", nil)
}

// Scenes lists scenes in display order.
func (c *Client) Scenes(ctx context.Context) ([]api.Scene, error) {
	var resp api.SceneListResponse
	err := c.do(ctx, http.MethodGet, "/api/scenes", nil, nil, &resp)
	return resp.Scenes, err
}

func (c *Client) CreateScene(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/scenes", api.SceneRequest{Name: name})
}

func (c *Client) CurrentScene(ctx context.Context) (string, error) {
	var resp api.SceneRequest
	err := c.do(ctx, http.MethodGet, "/api/scenes/current", nil, nil, &resp)
	return resp.Name, err
}

func (c *Client) SetCurrentScene(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodPut, "/api/scenes/current", api.SceneRequest{Name: name})
}

func (c *Client) RenameScene(ctx context.Context, name, newName string) (string, error) {
	return c.message(ctx, http.MethodPatch, scenePath(name), api.SceneRequest{Name: newName})
}

func (c *Client) RemoveScene(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodDelete, scenePath(name), nil)
}

func (c *Client) SetSceneLock(ctx context.Context, name string, locked bool) (string, error) {
	return c.message(ctx, http.MethodPut, scenePath(name)+"/lock", api.LockRequest{Locked: locked})
}

func (c *Client) ReorderScene(ctx context.Context, name string, index int) (string, error) {
	return c.message(ctx, http.MethodPut, scenePath(name)+"/order", api.OrderRequest{Index: index})
}

// SceneResolution returns the canvas size as "WxH".
func (c *Client) SceneResolution(ctx context.Context) (string, error) {
	var resp api.ResolutionResponse
	err := c.do(ctx, http.MethodGet, "/api/scenes/resolution", nil, nil, &resp)
	return resp.Resolution, err
}

func scenePath(name string) string {
	return "/api/scenes/" + url.PathEscape(name)
}

func sourcePath(id string) string {
	return "/api/sources/" + url.PathEscape(id)
}

// Sources lists the items of the current scene.
func (c *Client) Sources(ctx context.Context) ([]api.Source, error) {
	var resp api.SourceListResponse
	err := c.do(ctx, http.MethodGet, "/api/sources", nil, nil, &resp)
	return resp.Sources, err
}

func (c *Client) CreateSource(ctx context.Context, req api.CreateSourceRequest) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/sources", req)
}

func (c *Client) UpdateSource(ctx context.Context, id string, req api.UpdateSourceRequest) (string, error) {
	return c.message(ctx, http.MethodPatch, sourcePath(id), req)
}

func (c *Client) RemoveSource(ctx context.Context, id string) (string, error) {
	return c.message(ctx, http.MethodDelete, sourcePath(id), nil)
}

// SourceSettings returns the stored params and property sheet of id.
func (c *Client) SourceSettings(ctx context.Context, id string) (api.SourceSettings, error) {
	var resp api.SourceSettings
	err := c.do(ctx, http.MethodGet, sourcePath(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) SetSourceVisible(ctx context.Context, id string, visible bool) (string, error) {
	return c.message(ctx, http.MethodPut, sourcePath(id)+"/visible", api.VisibleRequest{Visible: visible})
}

// MoveSource shifts id one step; direction is "up" or "down".
func (c *Client) MoveSource(ctx context.Context, id, direction string) (string, error) {
	return c.message(ctx, http.MethodPost, sourcePath(id)+"/move", api.MoveRequest{Direction: direction})
}

func (c *Client) ReorderSource(ctx context.Context, id string, index int) (string, error) {
	return c.message(ctx, http.MethodPut, sourcePath(id)+"/order", api.OrderRequest{Index: index})
}

func (c *Client) Filters(ctx context.Context, id string) ([]api.Filter, error) {
	var resp api.FiltersPayload
	err := c.do(ctx, http.MethodGet, sourcePath(id)+"/filters", nil, nil, &resp)
	return resp.Filters, err
}

func (c *Client) SetFilters(ctx context.Context, id string, filters []api.Filter) (string, error) {
	if filters == nil {
		filters = []api.Filter{}
	}
	return c.message(ctx, http.MethodPut, sourcePath(id)+"/filters", api.FiltersPayload{Filters: filters})
}

func (c *Client) SourceTypes(ctx context.Context) ([]api.SourceType, error) {
	var resp api.SourceTypeListResponse
	err := c.do(ctx, http.MethodGet, "/api/source-types", nil, nil, &resp)
	return resp.Types, err
}

func (c *Client) SourceProperties(ctx context.Context, sourceType string) ([]api.Property, error) {
	var resp api.PropertyListResponse
	err := c.do(ctx, http.MethodGet, "/api/source-types/"+url.PathEscape(sourceType)+"/properties", nil, nil, &resp)
	return resp.Properties, err
}

// StartRecording records to path, or to the daemon's configured path when
// path is empty.
func (c *Client) StartRecording(ctx context.Context, path string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/recording", api.RecordingRequest{Path: path})
}

func (c *Client) StopRecording(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodDelete, "/api/recording", nil)
}

// StartStreaming streams to target, or to the configured target when empty.
func (c *Client) StartStreaming(ctx context.Context, target string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/streaming", api.StreamingRequest{URL: target})
}

func (c *Client) StopStreaming(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodDelete, "/api/streaming", nil)
}

func (c *Client) SetEncoderPreference(ctx context.Context, preference string) (string, error) {
	return c.message(ctx, http.MethodPut, "/api/encoder-preference", api.EncoderPreferenceRequest{Preference: preference})
}

// Preview returns a PNG data URL of source, or of the program output when
// source is empty. Zero dimensions select the default size.
func (c *Client) Preview(ctx context.Context, source string, width, height uint32) (string, error) {
	query := url.Values{}
	if source != "" {
		query.Set("source", source)
	}
	if width > 0 {
		query.Set("width", strconv.FormatUint(uint64(width), 10))
	}
	if height > 0 {
		query.Set("height", strconv.FormatUint(uint64(height), 10))
	}
	var resp api.PreviewResponse
	err := c.do(ctx, http.MethodGet, "/api/preview", query, nil, &resp)
	return resp.DataURL, err
}

func (c *Client) VideoDevices(ctx context.Context) ([]api.Device, error) {
	var resp api.DeviceListResponse
	err := c.do(ctx, http.MethodGet, "/api/devices/video", nil, nil, &resp)
	return resp.Devices, err
}

// AudioDevices lists PulseAudio sources; kind "output" selects monitors.
func (c *Client) AudioDevices(ctx context.Context, kind string) ([]api.Device, error) {
	query := url.Values{}
	if kind != "" {
		query.Set("kind", kind)
	}
	var resp api.DeviceListResponse
	err := c.do(ctx, http.MethodGet, "/api/devices/audio", query, nil, &resp)
	return resp.Devices, err
}

// Journal returns the last tail entries. tail <= 0 uses the daemon default.
func (c *Client) Journal(ctx context.Context, tail int) ([]api.JournalEntry, error) {
	query := url.Values{}
	if tail > 0 {
		query.Set("tail", strconv.Itoa(tail))
	}
	var resp api.JournalResponse
	err := c.do(ctx, http.MethodGet, "/api/journal", query, nil, &resp)
	return resp.Entries, err
}

// JournalSince returns buffered entries with a sequence above since.
func (c *Client) JournalSince(ctx context.Context, since uint64) ([]api.JournalEntry, error) {
	query := url.Values{"since": {strconv.FormatUint(since, 10)}}
	var resp api.JournalResponse
	err := c.do(ctx, http.MethodGet, "/api/journal", query, nil, &resp)
	return resp.Entries, err
}
