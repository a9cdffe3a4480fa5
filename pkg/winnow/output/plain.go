package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// PlainFormatter formats output as a tab-separated table with a summary
// line, suitable for scripting and piping. No colors or styling.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("WHEN\tSIZE\tPATH\n")); err != nil {
		return err
	}
	for _, h := range r.Hits {
		line := h.When.Format("2006-01-02 15:04:05") + "\t" +
			h.HumanSize() + "\t" + h.Path + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.TotalHits > len(r.Hits) {
		fmt.Fprintf(w, "... showing %d of %d hits\n", len(r.Hits), r.TotalHits)
	}
	fmt.Fprintf(w, "visited %d files, matched %d (%s)\n",
		r.FilesVisited, r.TotalHits, types.FormatSize(r.BytesMatched))

	if r.Outcome != nil {
		fmt.Fprintf(w, "succeeded %d, failed %d\n",
			r.Outcome.Succeeded, r.Outcome.Failed)
		if r.Outcome.QuarantineRoot != "" {
			fmt.Fprintf(w, "quarantine: %s\n", r.Outcome.QuarantineRoot)
		}
		for _, fl := range r.Outcome.Failures {
			fmt.Fprintf(w, "  %s -> %s\n", fl.Path, fl.Reason)
		}
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
