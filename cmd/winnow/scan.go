package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/output"
	"github.com/jamesainslie/winnow/pkg/winnow/session"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runScan is the root command handler: scan and preview, touch nothing.
func runScan(_ *cobra.Command, args []string) error {
	c, err := buildCriteria(args, criteria.Quarantine)
	if err != nil {
		return err
	}

	sess := session.New(session.DefaultEventBuffer)
	result, err := drainScan(sess, c)
	if err != nil {
		return err
	}

	return printResult(c, result, nil)
}

// drainScan launches a scan on the session and consumes its event channel
// until the terminal event, echoing progress to stderr.
func drainScan(sess *session.Session, c *criteria.Criteria) (*types.ScanResult, error) {
	events, err := sess.Scan(c)
	if err != nil {
		return nil, err
	}

	var result *types.ScanResult
	for ev := range events {
		switch ev.Kind {
		case session.EventScanProgress:
			printStatus("\rscanning... %d files, %d hits",
				ev.ScanProgress.FilesVisited, ev.ScanProgress.Matched)
		case session.EventScanDone:
			result = ev.Result
		case session.EventError:
			printStatus("\n")
			return nil, fmt.Errorf("scan failed: %w", ev.Err)
		}
	}
	printStatus("\r\033[K")
	return result, nil
}

// printResult renders a scan result (and optional outcome) with the
// selected formatter. The hit list is truncated for display only.
func printResult(c *criteria.Criteria, result *types.ScanResult, outcome *types.ExecutionOutcome) error {
	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return err
	}

	shown := result.Hits
	if limit := previewLimit(); len(shown) > limit {
		shown = shown[:limit]
	}

	r := &output.Result{
		Root:         c.Root(),
		Hits:         shown,
		TotalHits:    len(result.Hits),
		FilesVisited: result.FilesVisited,
		BytesMatched: result.BytesMatched,
		Outcome:      outcome,
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = os.Stdout.Write(buf.Bytes())
	return err
}
