package config

const (
	defaultDataDir         = "~/.local/share/autoqueue"
	defaultLogDir          = "~/.local/share/autoqueue/logs"
	defaultAPIBind         = "127.0.0.1:7688"
	defaultDesiredLength   = 15 * 60
	defaultNumber          = 20
	defaultBlockHours      = 24
	defaultProviderBaseURL = "https://ws.audioscrobbler.com/2.0/"
	defaultThrottleMillis  = 1000
	defaultCacheDays       = 90
	defaultTimeoutSeconds  = 10
	defaultNeighbours      = 20
	defaultRPCTimeout      = 3000
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Queue: Queue{
			DesiredLength: defaultDesiredLength,
			Number:        defaultNumber,
			WholeAlbums:   true,
			FavorNew:      true,
			BlockHours:    defaultBlockHours,
		},
		Context: Context{
			Contextualize: true,
		},
		Provider: Provider{
			Enabled:        true,
			BaseURL:        defaultProviderBaseURL,
			ThrottleMillis: defaultThrottleMillis,
			CacheDays:      defaultCacheDays,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Acoustic: Acoustic{
			Enabled:    true,
			Neighbours: defaultNeighbours,
		},
		RPC: RPC{
			TimeoutMillis: defaultRPCTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
