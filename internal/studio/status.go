package studio

import "context"

// Status is a snapshot of the runtime.
type Status struct {
	Initialized       bool   `json:"initialized"`
	CurrentScene      string `json:"current_scene,omitempty"`
	SceneCount        int    `json:"scene_count"`
	Recording         bool   `json:"recording"`
	RecordingPath     string `json:"recording_path,omitempty"`
	Streaming         bool   `json:"streaming"`
	EncoderPreference string `json:"encoder_preference"`
	EncoderDefaults   string `json:"encoder_defaults"`
	SceneResolution   string `json:"scene_resolution"`
}

// Status reports the runtime state. It never requires Start.
func (r *Runtime) Status(ctx context.Context) (Status, error) {
	var s Status
	err := r.locked(func(st *state) error {
		s = Status{
			Initialized:       st.initialized,
			CurrentScene:      st.current,
			SceneCount:        len(st.scenes),
			Recording:         st.record != nil,
			Streaming:         st.stream != nil,
			EncoderPreference: string(st.preference),
			EncoderDefaults:   EncoderDefaultsVersion,
			SceneResolution:   st.sceneResolution(),
		}
		if st.record != nil {
			s.RecordingPath = st.record.path
		}
		return nil
	})
	return s, err
}
