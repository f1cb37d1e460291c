package tui

import "l5xkit/logging"

func debugLog(format string, args ...interface{}) {
	logging.DebugLog("TUI", format, args...)
}
