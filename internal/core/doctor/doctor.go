// Package doctor runs health checks over the tool setup and the .wreckit
// directory.
package doctor

import "context"

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Entry is one line of a check's report.
type Entry struct {
	Label   string `json:"label"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Fixable bool   `json:"fixable,omitempty"`
}

// Result is the report of one check.
type Result struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// Fixer is a Check that can repair what it reports. Fix describes each
// action it took.
type Fixer interface {
	Check
	Fix(ctx context.Context) ([]string, error)
}

// RunAll runs checks in order.
func RunAll(ctx context.Context, checks []Check) []Result {
	out := make([]Result, len(checks))
	for i, c := range checks {
		out[i] = c.Run(ctx)
	}
	return out
}

// FixAll calls Fix on every Fixer, stopping at the first error. Actions
// taken before the error are still returned.
func FixAll(ctx context.Context, checks []Check) ([]string, error) {
	var actions []string
	for _, c := range checks {
		f, ok := c.(Fixer)
		if !ok {
			continue
		}
		done, err := f.Fix(ctx)
		actions = append(actions, done...)
		if err != nil {
			return actions, err
		}
	}
	return actions, nil
}

// Tally counts entries by status across a set of results. Fixable counts
// only entries that are not passing.
type Tally struct {
	Passed  int `json:"passed"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
	Fixable int `json:"fixable"`
}

func Count(results []Result) Tally {
	var t Tally
	for _, r := range results {
		for _, e := range r.Entries {
			switch e.Status {
			case StatusPass:
				t.Passed++
				continue
			case StatusWarn:
				t.Warned++
			case StatusFail:
				t.Failed++
			}
			if e.Fixable {
				t.Fixable++
			}
		}
	}
	return t
}

// Healthy reports whether no entry failed. Warnings do not count.
func (t Tally) Healthy() bool { return t.Failed == 0 }
