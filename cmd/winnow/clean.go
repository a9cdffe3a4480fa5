package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/session"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// deleteToken is what the operator must type to confirm a permanent delete.
const deleteToken = "DELETE"

// ErrAborted indicates the operator declined a confirmation prompt.
var ErrAborted = errors.New("aborted")

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Scan and act on the matches",
	Long: `Scan the tree, preview the match set, then quarantine or permanently
delete the matched files.

Quarantine (the default action) moves hits into a fresh _trash_* directory
under the scanned root, preserving relative paths; undo is moving them
back. Permanent delete has no undo and therefore requires typing DELETE at
the prompt; --yes does not bypass that.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringP("action", "a", "trash", "what to do with hits: trash or delete")
	cleanCmd.Flags().BoolP("yes", "y", false, "skip the quarantine confirmation prompt")

	_ = viper.BindPFlag("action", cleanCmd.Flags().Lookup("action"))
	_ = viper.BindPFlag("yes", cleanCmd.Flags().Lookup("yes"))

	rootCmd.AddCommand(cleanCmd)
}

// runClean runs the full scan -> confirm -> execute pipeline through one
// session, so the staleness invariant holds end to end.
func runClean(_ *cobra.Command, args []string) error {
	action, err := criteria.ParseAction(viper.GetString("action"))
	if err != nil {
		return err
	}
	c, err := buildCriteria(args, action)
	if err != nil {
		return err
	}

	sess := session.New(session.DefaultEventBuffer)
	result, err := drainScan(sess, c)
	if err != nil {
		return err
	}

	if len(result.Hits) == 0 {
		if err := printResult(c, result, nil); err != nil {
			return err
		}
		printStatus("nothing to do\n")
		return nil
	}

	if err := printResult(c, result, nil); err != nil {
		return err
	}
	if err := confirm(action, len(result.Hits)); err != nil {
		return err
	}

	outcome, err := drainExecute(sess, c)
	if err != nil {
		return err
	}

	recordManifest(c, result, outcome)
	return printResult(c, result, outcome)
}

// confirm applies the confirmation boundary. Quarantine is reversible and
// takes a y/N (or --yes); permanent delete demands the literal token.
func confirm(action criteria.Action, hits int) error {
	if action == criteria.Delete {
		fmt.Fprintf(os.Stderr, "About to PERMANENTLY delete %d files. There is no undo.\n", hits)
		fmt.Fprintf(os.Stderr, "Type %s to continue: ", deleteToken)
		line, err := readLine()
		if err != nil {
			return err
		}
		if line != deleteToken {
			return fmt.Errorf("%w: confirmation token not entered", ErrAborted)
		}
		return nil
	}

	if viper.GetBool("yes") {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Move %d files into a _trash_* directory? [y/N] ", hits)
	line, err := readLine()
	if err != nil {
		return err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return nil
	default:
		return ErrAborted
	}
}

// readLine reads one trimmed line from stdin.
func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// drainExecute launches the execute on the session and consumes its event
// channel until the terminal event.
func drainExecute(sess *session.Session, c *criteria.Criteria) (*types.ExecutionOutcome, error) {
	events, err := sess.Execute(c)
	if err != nil {
		return nil, err
	}

	var outcome *types.ExecutionOutcome
	for ev := range events {
		switch ev.Kind {
		case session.EventExecProgress:
			printStatus("\r%s... %d/%d", c.Action(), ev.ExecProgress.Done, ev.ExecProgress.Total)
		case session.EventExecDone:
			outcome = ev.Outcome
		case session.EventError:
			printStatus("\n")
			return nil, fmt.Errorf("execute failed: %w", ev.Err)
		}
	}
	printStatus("\r\033[K")
	return outcome, nil
}
