package web

import "l5xkit/logging"

func debugLog(format string, args ...interface{}) {
	logging.DebugLog("Web", format, args...)
}
