package renumber

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind classifies one line of a renumbering report.
type Kind string

const (
	KindRenamed        Kind = "renamed"
	KindPlanned        Kind = "planned"
	KindAlreadyCorrect Kind = "already-correct"
	KindSkipped        Kind = "skipped"
	KindCollision      Kind = "collision"
	KindFailed         Kind = "failed"
	KindNotFound       Kind = "not-found"
	KindUnreadable     Kind = "unreadable"
	KindNoMatches      Kind = "no-matches"
)

var (
	ErrDirectoryNotFound   = errors.New("directory not found")
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	ErrRenameCollision     = errors.New("destination already exists")
	ErrInvalidSuffix       = errors.New("id suffix is not purely numeric")
	ErrStagingAborted      = errors.New("staging aborted")
)

// Outcome is a single reported action or condition.
type Outcome struct {
	Kind   Kind
	Source string
	Target string
	Detail string
	Err    error
}

// Report is the result of one renumbering pass.
type Report struct {
	Directory  string
	Pattern    Pattern
	Candidates int
	DryRun     bool
	Staged     bool
	Outcomes   []Outcome
}

// OK is false when the pass soft-failed or any file could not be renamed.
func (r Report) OK() bool {
	for _, outcome := range r.Outcomes {
		switch outcome.Kind {
		case KindNotFound, KindUnreadable, KindCollision, KindFailed:
			return false
		}
	}
	return true
}

func (r Report) Count(kind Kind) int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Kind == kind {
			count++
		}
	}
	return count
}

func (r *Report) add(outcome Outcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// Render writes the report as human-readable text.
func (r Report) Render(w io.Writer) error {
	var sb strings.Builder
	mode := "in place"
	switch {
	case r.DryRun && r.Staged:
		mode = "dry-run, staged"
	case r.DryRun:
		mode = "dry-run"
	case r.Staged:
		mode = "staged"
	}
	sb.WriteString(fmt.Sprintf("renumber %s (%s, %s)\n", r.Directory, r.Pattern.Glob(), mode))
	for _, outcome := range r.Outcomes {
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", outcome.Kind, describe(outcome)))
	}
	sb.WriteString(fmt.Sprintf("summary: %d candidates, %d renamed, %d planned, %d already correct, %d skipped, %d collisions, %d failed\n",
		r.Candidates,
		r.Count(KindRenamed),
		r.Count(KindPlanned),
		r.Count(KindAlreadyCorrect),
		r.Count(KindSkipped),
		r.Count(KindCollision),
		r.Count(KindFailed),
	))
	_, err := io.WriteString(w, sb.String())
	return err
}

func describe(outcome Outcome) string {
	var text string
	switch {
	case outcome.Source != "" && outcome.Target != "":
		text = outcome.Source + " -> " + outcome.Target
	case outcome.Source != "":
		text = outcome.Source
	}
	if outcome.Detail != "" {
		if text != "" {
			text += ": "
		}
		text += outcome.Detail
	}
	if outcome.Err != nil && outcome.Kind != KindSkipped {
		text += " (" + outcome.Err.Error() + ")"
	}
	return text
}
