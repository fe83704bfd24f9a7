package config

const (
	defaultDataDir             = "~/.local/share/clearcart"
	defaultDownloadDir         = "~/Downloads/clearcart"
	defaultLogDir              = "~/.local/share/clearcart/logs"
	defaultURNPrefix           = "urn:mediaasset:"
	defaultPollIntervalSeconds = 5
	defaultPollMaxAttempts     = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Rights: Rights{
			URNPrefix: defaultURNPrefix,
		},
		Archive: Archive{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollMaxAttempts:     defaultPollMaxAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
