package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// ErrorLogFormat defines the formatting string for error log messages.
const ErrorLogFormat = "Error: %v"

const (
	// ApplicationName is the executable name.
	ApplicationName = "slw"
	// ConfigFileName is the name of the per-directory configuration file.
	ConfigFileName = ".slw.toml"
	// GlobalConfigDirectoryName is the directory below the user configuration root holding the global file.
	GlobalConfigDirectoryName = "slw"
	// GlobalConfigFileName is the name of the global configuration file.
	GlobalConfigFileName = "config.toml"
	// EnvironmentPrefix prefixes every configuration environment variable.
	EnvironmentPrefix = "SLW"
)
