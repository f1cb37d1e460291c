package project

import "l5xkit/logging"

func debugLog(format string, args ...interface{}) {
	logging.DebugLog("Project", format, args...)
}
