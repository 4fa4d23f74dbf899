package config

const (
	defaultLogDir             = "~/.local/share/quill/logs"
	defaultStateDir           = "~/.local/share/quill"
	defaultBackend            = BackendSheets
	defaultSheetName          = "TwitterBot Content"
	defaultCredentialsFile    = "credentials.json"
	defaultWorkbookPath       = "content.xlsx"
	defaultDatabaseFile       = "content.db"
	defaultContentColumn      = "Content"
	defaultStatusColumn       = "Status"
	defaultPendingValue       = "Pending"
	defaultDoneValue          = "Done"
	defaultXBaseURL           = "https://api.twitter.com"
	defaultXDailyCap          = 17
	defaultPostsPerDay        = 15
	defaultIdleInterval       = 3600
	defaultRateLimitBackoff   = 900
	defaultErrorRetryInterval = 60
	defaultOnExhausted        = ExhaustedRetryLater
	defaultMarkPolicy         = MarkBeforePost
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Store: Store{
			Backend:         defaultBackend,
			SheetName:       defaultSheetName,
			CredentialsFile: defaultCredentialsFile,
			WorkbookPath:    defaultWorkbookPath,
			ContentColumn:   defaultContentColumn,
			StatusColumn:    defaultStatusColumn,
			PendingValue:    defaultPendingValue,
			DoneValue:       defaultDoneValue,
		},
		X: X{
			BaseURL:  defaultXBaseURL,
			DailyCap: defaultXDailyCap,
		},
		Schedule: Schedule{
			PostsPerDay:        defaultPostsPerDay,
			IdleInterval:       defaultIdleInterval,
			RateLimitBackoff:   defaultRateLimitBackoff,
			ErrorRetryInterval: defaultErrorRetryInterval,
			OnExhausted:        defaultOnExhausted,
			MarkPolicy:         defaultMarkPolicy,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
