// Package item defines the persisted work item and its requirements document.
//
// Values in this package are immutable by convention: every builder method
// has a value receiver and returns a new value, leaving the receiver intact.
package item

import (
	"regexp"
	"strings"
	"time"

	"github.com/colonyops/wreckit/internal/core/state"
)

// SchemaVersion is the current on-disk schema version for item.json.
const SchemaVersion = 1

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to a URL-safe slug.
// "Add Dark Mode!" -> "add-dark-mode"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// PriorityHint is an optional scheduling hint attached at ingestion time.
// ENUM(low, medium, high, critical).
type PriorityHint string

const (
	PriorityLow      PriorityHint = "low"
	PriorityMedium   PriorityHint = "medium"
	PriorityHigh     PriorityHint = "high"
	PriorityCritical PriorityHint = "critical"
)

// Rank orders hints for scheduling. Items without a hint rank below low.
func (p PriorityHint) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether p is empty or one of the defined hints.
func (p PriorityHint) IsValid() bool {
	return p == "" || p.Rank() > 0
}

// Item is a single unit of engineering work tracked through the lifecycle.
type Item struct {
	SchemaVersion int         `json:"schema_version"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Section       string      `json:"section,omitempty"`
	State         state.State `json:"state"`
	Overview      string      `json:"overview"`
	Branch        string      `json:"branch,omitempty"`
	PRURL         string      `json:"pr_url,omitempty"`
	PRNumber      int         `json:"pr_number,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	ProblemStatement     string       `json:"problem_statement,omitempty"`
	Motivation           string       `json:"motivation,omitempty"`
	SuccessCriteria      []string     `json:"success_criteria,omitempty"`
	TechnicalConstraints []string     `json:"technical_constraints,omitempty"`
	ScopeInScope         []string     `json:"scope_in_scope,omitempty"`
	ScopeOutOfScope      []string     `json:"scope_out_of_scope,omitempty"`
	PriorityHint         PriorityHint `json:"priority_hint,omitempty"`
	UrgencyHint          string       `json:"urgency_hint,omitempty"`
}

// New creates an item in the Idea state with both timestamps set to now.
func New(id, title, overview string) Item {
	ts := now()
	return Item{
		SchemaVersion: SchemaVersion,
		ID:            id,
		Title:         title,
		State:         state.Idea,
		Overview:      overview,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
}

// HasReviewRequest reports whether a review request has been recorded.
func (i Item) HasReviewRequest() bool {
	return i.PRURL != "" || i.PRNumber > 0
}

// Clone returns a deep copy of i.
func (i Item) Clone() Item {
	i.SuccessCriteria = cloneStrings(i.SuccessCriteria)
	i.TechnicalConstraints = cloneStrings(i.TechnicalConstraints)
	i.ScopeInScope = cloneStrings(i.ScopeInScope)
	i.ScopeOutOfScope = cloneStrings(i.ScopeOutOfScope)
	return i
}

// WithState returns a copy of i in state s.
func (i Item) WithState(s state.State) Item {
	out := i.Clone()
	out.State = s
	return out.touch(i.UpdatedAt)
}

// WithBranch returns a copy of i recording the working branch.
func (i Item) WithBranch(branch string) Item {
	out := i.Clone()
	out.Branch = branch
	return out.touch(i.UpdatedAt)
}

// WithReview returns a copy of i recording the review request location.
func (i Item) WithReview(url string, number int) Item {
	out := i.Clone()
	out.PRURL = url
	out.PRNumber = number
	return out.touch(i.UpdatedAt)
}

// WithError returns a copy of i with LastError set. An empty message clears it.
func (i Item) WithError(msg string) Item {
	out := i.Clone()
	out.LastError = msg
	return out.touch(i.UpdatedAt)
}

// touch sets UpdatedAt to the current time, nudged forward when the clock has
// not advanced past prev so that every mutation strictly increases it.
func (i Item) touch(prev time.Time) Item {
	ts := now()
	if !ts.After(prev) {
		ts = prev.Add(time.Nanosecond)
	}
	i.UpdatedAt = ts
	return i
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
