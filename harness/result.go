package harness

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/func/agentcore/agent"
)

// State is the state of a case.
type State uint8

// Case states. A case starts Pending, becomes Invoked when the request is
// sent and ends in one of the remaining states.
const (
	Pending State = iota
	Invoked
	ParsedOK       // Response was structured, or carried no content to parse.
	ParsedFallback // Response was not JSON and is shown as plain text.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Invoked:
		return "invoked"
	case ParsedOK:
		return "ok"
	case ParsedFallback:
		return "ok (text)"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// A Result is the outcome of a single case.
type Result struct {
	Case    Case
	State   State
	Passed  bool
	Summary string // Extracted response content.
	Err     error  // Set if the case failed.

	Duration time.Duration
}

func (r *Result) fail(err error) {
	r.State = Failed
	r.Passed = false
	r.Err = err
}

// A Report is the outcome of a validation run.
type Report struct {
	Name   string
	ID     string
	ARN    string
	Status agent.Status

	// Reason is set if the run stopped before invoking any case.
	Reason string

	Results []Result
	Passed  bool
}

// Failed returns the number of failed cases.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

const maxSummary = 72

// Write writes a human readable summary of the report.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Runtime:\t%s\n", r.Name)
	if r.ARN != "" {
		fmt.Fprintf(tw, "ARN:\t%s\n", r.ARN)
	}
	if r.Status != "" {
		fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	}
	if r.Reason != "" {
		fmt.Fprintf(tw, "Result:\tFAILED: %s\n", r.Reason)
		return tw.Flush()
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATE\tPROMPT\tRESPONSE")
	for i, res := range r.Results {
		detail := res.Summary
		if res.Err != nil {
			detail = res.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, res.State, res.Case.Prompt, oneLine(detail, maxSummary))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if r.Passed {
		_, err := fmt.Fprintf(w, "All %d cases passed\n", len(r.Results))
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d cases failed\n", r.Failed(), len(r.Results))
	return err
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
