package config

const (
	defaultDataDir    = "~/.local/share/bookherald"
	defaultLogDir     = "~/.local/share/bookherald/logs"
	defaultBaseURL    = "https://www.googleapis.com/books/v1"
	defaultPageSize   = 40
	defaultProvider   = "google_books"
	defaultDailyLimit = 95
	defaultTimezone   = "Asia/Tokyo"
	defaultChannel    = "combined"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		GoogleBooks: GoogleBooks{
			BaseURL:  defaultBaseURL,
			PageSize: defaultPageSize,
		},
		Quota: Quota{
			Provider:   defaultProvider,
			DailyLimit: defaultDailyLimit,
			Timezone:   defaultTimezone,
		},
		Delivery: Delivery{
			Channel: defaultChannel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
