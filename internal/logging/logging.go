package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, command string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("bouncemarker.%s.%s.log", command, sessionStart.Format("20060102_150405")),
	)
}
