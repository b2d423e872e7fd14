package params

import (
	"math"
	"strconv"
	"strings"

	"revostream/internal/engine"
)

// Audio holds the runtime audio controls present in a parameter map. Nil
// fields were not requested.
type Audio struct {
	Volume     *float64
	Monitoring *engine.Monitoring
	Mixers     *uint32
	Muted      *bool
}

// ParseAudio reads volume_db (preferred over volume_percent), monitoring,
// audio_tracks and muted.
func ParseAudio(params map[string]string) Audio {
	var a Audio
	if db, ok := parseRawFloat(params, "volume_db"); ok {
		v := math.Max(math.Pow(10, db/20), 0)
		a.Volume = &v
	} else if pct, ok := parseRawFloat(params, "volume_percent"); ok {
		v := math.Max(pct/100, 0)
		a.Volume = &v
	}
	if raw, ok := params["monitoring"]; ok {
		m := ParseMonitoring(raw)
		a.Monitoring = &m
	}
	if raw, ok := params["audio_tracks"]; ok {
		mask := ParseAudioTracks(raw)
		a.Mixers = &mask
	}
	if raw, ok := params["muted"]; ok {
		muted := ParseBoolish(raw)
		a.Muted = &muted
	}
	return a
}

// Apply pushes the requested controls to src.
func (a Audio) Apply(e engine.Sources, src engine.SourceID) {
	if src == 0 {
		return
	}
	if a.Volume != nil {
		e.SourceSetVolume(src, *a.Volume)
	}
	if a.Monitoring != nil {
		e.SourceSetMonitoring(src, *a.Monitoring)
	}
	if a.Mixers != nil {
		e.SourceSetAudioMixers(src, *a.Mixers)
	}
	if a.Muted != nil {
		e.SourceSetMuted(src, *a.Muted)
	}
}

// ParseMonitoring maps monitor_only/monitor and on/monitor_and_output/output;
// anything else disables monitoring.
func ParseMonitoring(raw string) engine.Monitoring {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monitor_only", "monitor":
		return engine.MonitorOnly
	case "on", "monitor_and_output", "output":
		return engine.MonitorAndOutput
	}
	return engine.MonitorNone
}

// ParseAudioTracks turns a comma list of track numbers 1..6 into a mixer
// bitmask, defaulting to track 1.
func ParseAudioTracks(raw string) uint32 {
	var mask uint32
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.ParseUint(token, 10, 32)
		if err != nil || n < 1 || n > 6 {
			continue
		}
		mask |= 1 << (n - 1)
	}
	if mask == 0 {
		mask = 1
	}
	return mask
}

func parseRawFloat(params map[string]string, key string) (float64, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
