package item

import (
	"fmt"
	"sort"
)

// SubTaskStatus is the completion status of a single sub-task.
// ENUM(pending, done).
type SubTaskStatus string

const (
	SubTaskPending SubTaskStatus = "pending"
	SubTaskDone    SubTaskStatus = "done"
)

// IsValid reports whether s is a defined status.
func (s SubTaskStatus) IsValid() bool {
	return s == SubTaskPending || s == SubTaskDone
}

// SubTask is one unit of implementation work inside a requirements document.
type SubTask struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	AcceptanceCriteria []string      `json:"acceptance_criteria"`
	Priority           int           `json:"priority"` // lower runs first
	Status             SubTaskStatus `json:"status"`
	Notes              string        `json:"notes,omitempty"`
}

// Clone returns a deep copy of t.
func (t SubTask) Clone() SubTask {
	t.AcceptanceCriteria = cloneStrings(t.AcceptanceCriteria)
	return t
}

// WithStatus returns a copy of t with the given status.
func (t SubTask) WithStatus(s SubTaskStatus) SubTask {
	out := t.Clone()
	out.Status = s
	return out
}

// WithNotes returns a copy of t with the given notes.
func (t SubTask) WithNotes(notes string) SubTask {
	out := t.Clone()
	out.Notes = notes
	return out
}

// RequirementsDoc is the structured plan (prd.json) produced while planning.
type RequirementsDoc struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	BranchName    string    `json:"branch_name"`
	SubTasks      []SubTask `json:"user_stories"`
}

// Validate checks structural invariants: an owner id, unique sub-task ids and
// known statuses.
func (d RequirementsDoc) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("requirements document id is required")
	}

	seen := make(map[string]struct{}, len(d.SubTasks))
	for i, t := range d.SubTasks {
		if t.ID == "" {
			return fmt.Errorf("sub-task %d: id is required", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("sub-task %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}

		if !t.Status.IsValid() {
			return fmt.Errorf("sub-task %q: invalid status %q", t.ID, t.Status)
		}
	}

	return nil
}

// Clone returns a deep copy of d.
func (d RequirementsDoc) Clone() RequirementsDoc {
	if d.SubTasks != nil {
		tasks := make([]SubTask, len(d.SubTasks))
		for i, t := range d.SubTasks {
			tasks[i] = t.Clone()
		}
		d.SubTasks = tasks
	}
	return d
}

// SubTask returns the sub-task with the given id.
func (d RequirementsDoc) SubTask(id string) (SubTask, bool) {
	for _, t := range d.SubTasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return SubTask{}, false
}

// WithSubTaskStatus returns a copy of d with the named sub-task's status
// replaced. An unknown id yields an equal copy.
func (d RequirementsDoc) WithSubTaskStatus(id string, s SubTaskStatus) RequirementsDoc {
	out := d.Clone()
	for i := range out.SubTasks {
		if out.SubTasks[i].ID == id {
			out.SubTasks[i].Status = s
			break
		}
	}
	return out
}

// WithSubTask returns a copy of d with t inserted. A sub-task with the same
// id is replaced in place; otherwise t is appended.
func (d RequirementsDoc) WithSubTask(t SubTask) RequirementsDoc {
	out := d.Clone()
	for i := range out.SubTasks {
		if out.SubTasks[i].ID == t.ID {
			out.SubTasks[i] = t.Clone()
			return out
		}
	}
	out.SubTasks = append(out.SubTasks, t.Clone())
	return out
}

// WithAllDone returns a copy of d with every sub-task marked done.
func (d RequirementsDoc) WithAllDone() RequirementsDoc {
	out := d.Clone()
	for i := range out.SubTasks {
		out.SubTasks[i].Status = SubTaskDone
	}
	return out
}

// AllDone reports whether d has at least one sub-task and every sub-task is done.
func (d RequirementsDoc) AllDone() bool {
	if len(d.SubTasks) == 0 {
		return false
	}
	for _, t := range d.SubTasks {
		if t.Status != SubTaskDone {
			return false
		}
	}
	return true
}

// HasPending reports whether any sub-task is still pending.
func (d RequirementsDoc) HasPending() bool {
	for _, t := range d.SubTasks {
		if t.Status == SubTaskPending {
			return true
		}
	}
	return false
}

// PendingSubTasks returns pending sub-tasks ordered by priority, then id.
func (d RequirementsDoc) PendingSubTasks() []SubTask {
	var pending []SubTask
	for _, t := range d.SubTasks {
		if t.Status == SubTaskPending {
			pending = append(pending, t.Clone())
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority < pending[j].Priority
		}
		return pending[i].ID < pending[j].ID
	})

	return pending
}

// NextPending returns the highest-priority pending sub-task.
func (d RequirementsDoc) NextPending() (SubTask, bool) {
	pending := d.PendingSubTasks()
	if len(pending) == 0 {
		return SubTask{}, false
	}
	return pending[0], true
}

// Progress returns the number of done sub-tasks and the total.
func (d RequirementsDoc) Progress() (done, total int) {
	for _, t := range d.SubTasks {
		if t.Status == SubTaskDone {
			done++
		}
	}
	return done, len(d.SubTasks)
}
