package tag

import "l5xkit/logging"

var verboseLogging bool // Controls detailed construction/codec logs

// SetVerboseLogging enables or disables detailed construction logs.
func SetVerboseLogging(verbose bool) {
	verboseLogging = verbose
}

// debugLog logs a message if debug logging is enabled.
func debugLog(format string, args ...interface{}) {
	logging.DebugLog("Tag", format, args...)
}

// debugLogVerbose logs detailed messages only when verbose logging is enabled.
func debugLogVerbose(format string, args ...interface{}) {
	if verboseLogging {
		logging.DebugLog("Tag", format, args...)
	}
}
