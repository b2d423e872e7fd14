package config

const (
	defaultStateDir          = "~/.local/share/revostream"
	defaultLogDir            = "~/.local/share/revostream/logs"
	defaultRootDir           = "~/.local/share/revostream/engine"
	defaultAPIBind           = "127.0.0.1:7487"
	defaultEncoderPreference = "hardware"
	defaultSceneResolution   = "1280x720"
	defaultFPS               = 30
	defaultRecordPath        = "~/Videos/RevoStream/Output/record.mp4"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultJournalBuffer     = 500
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			RootDir:  defaultRootDir,
			APIBind:  defaultAPIBind,
		},
		Engine: Engine{
			EncoderPreference: defaultEncoderPreference,
			SceneResolution:   defaultSceneResolution,
			FPS:               defaultFPS,
		},
		Recording: Recording{
			Path: defaultRecordPath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Journal: Journal{
			Enabled: true,
			Buffer:  defaultJournalBuffer,
			Persist: true,
		},
	}
}
