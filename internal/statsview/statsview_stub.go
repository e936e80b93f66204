//go:build !statsview
// +build !statsview

package statsview

import "github.com/retroenv/retrogolib/log"

// Launch reports that the stats server is not part of this build.
func Launch(logger *log.Logger) {
	logger.Info("Stats server not available, rebuild with -tags statsview")
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return false
}
