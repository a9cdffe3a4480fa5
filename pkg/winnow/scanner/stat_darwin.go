//go:build darwin

package scanner

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the file's status-change time (st_ctime).
func changeTime(info os.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Ctimespec.Sec, stat.Ctimespec.Nsec)
}
