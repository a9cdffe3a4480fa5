//go:build !linux && !darwin

package scanner

import (
	"os"
	"time"
)

// changeTime falls back to modification time on platforms where the
// status-change time is not exposed through FileInfo.Sys().
func changeTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
