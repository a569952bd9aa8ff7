package config

const (
	defaultAPIBaseURL          = "http://127.0.0.1:8000"
	defaultRequestTimeout      = 15
	defaultUploadTimeout       = 600
	defaultStateDir            = "~/.local/share/podcastplus"
	defaultLogDir              = "~/.local/share/podcastplus/logs"
	defaultPollIntervalSeconds = 5
	defaultUploadCategory      = "main_content"
	defaultCoverCategory       = "episode_cover"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			RequestTimeout: defaultRequestTimeout,
			UploadTimeout:  defaultUploadTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Wizard: Wizard{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			UploadCategory:      defaultUploadCategory,
			CoverCategory:       defaultCoverCategory,
			RemovePauses:        true,
			RemoveFillers:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
	}
}
