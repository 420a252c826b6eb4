package wreckit

import (
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/state"
)

// Phase is the externally executed activity that moves an item out of its
// current state.
type Phase string

const (
	PhaseResearch  Phase = "research"
	PhasePlan      Phase = "plan"
	PhaseImplement Phase = "implement"
	PhaseReview    Phase = "pr"
	PhaseComplete  Phase = "complete"
)

var phaseBySource = map[state.State]Phase{
	state.Idea:         PhaseResearch,
	state.Researched:   PhasePlan,
	state.Planned:      PhaseImplement,
	state.Implementing: PhaseReview,
	state.InReview:     PhaseComplete,
}

// Phases lists every phase in lifecycle order.
func Phases() []Phase {
	return []Phase{PhaseResearch, PhasePlan, PhaseImplement, PhaseReview, PhaseComplete}
}

// ParsePhase converts a command name into a Phase.
func ParsePhase(name string) (Phase, bool) {
	for _, p := range Phases() {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// NextPhase returns the phase that produces the successor of the item's
// state. Done items have none.
func NextPhase(it item.Item) (Phase, bool) {
	p, ok := phaseBySource[it.State]
	return p, ok
}

func (p Phase) String() string { return string(p) }
