package scanner

import (
	"os"
	"time"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
)

// fileTime returns the timestamp selected by the criteria's time field.
func fileTime(info os.FileInfo, field criteria.TimeField) time.Time {
	if field == criteria.ChangeTime {
		return changeTime(info)
	}
	return info.ModTime()
}
