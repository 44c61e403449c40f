package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `toml:"enabled"`
	UseConsoleWriter bool
}

// Rotation defines the lumberjack limits of one log file.
type Rotation struct {
	MaxSize    int `toml:"maxSize"` // megabytes
	MaxBackups int `toml:"maxBackups"`
	MaxAge     int `toml:"maxAge"` // days
}

// LogFile implements a file based logger.
type LogFile struct {
	// Non docker env file logging.
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	AccessLog string `toml:"access"`
	ErrorLog  string `toml:"error"`
	InfoLog   string `toml:"info"`
	TraceLog  string `toml:"trace"`
	WarnLog   string `toml:"warn"`

	// Rotation applies to every file above.
	Rotation Rotation `toml:"rotation"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole if true the webserver access log is written to the console.
	// Does not overrule flag Console.Enabled!
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	// Console used mainly for docker and dev.
	Console Console

	File LogFile `toml:"file"`
}
