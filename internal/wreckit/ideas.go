package wreckit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/validate"
)

// Idea is one entry of an ideas file.
type Idea struct {
	Title                string            `json:"title" yaml:"title"`
	Section              string            `json:"section,omitempty" yaml:"section"`
	Overview             string            `json:"overview,omitempty" yaml:"overview"`
	ProblemStatement     string            `json:"problem_statement,omitempty" yaml:"problem_statement"`
	Motivation           string            `json:"motivation,omitempty" yaml:"motivation"`
	SuccessCriteria      []string          `json:"success_criteria,omitempty" yaml:"success_criteria"`
	TechnicalConstraints []string          `json:"technical_constraints,omitempty" yaml:"technical_constraints"`
	ScopeInScope         []string          `json:"scope_in_scope,omitempty" yaml:"scope_in_scope"`
	ScopeOutOfScope      []string          `json:"scope_out_of_scope,omitempty" yaml:"scope_out_of_scope"`
	PriorityHint         item.PriorityHint `json:"priority_hint,omitempty" yaml:"priority_hint"`
	UrgencyHint          string            `json:"urgency_hint,omitempty" yaml:"urgency_hint"`
}

// IdeasFile is the document accepted by `wreckit ideas`.
type IdeasFile struct {
	Ideas []Idea `json:"ideas" yaml:"ideas"`
}

// Validate reports every invalid field across all ideas.
func (f IdeasFile) Validate() error {
	if len(f.Ideas) == 0 {
		return errors.New("no ideas provided")
	}

	var errs criterio.FieldErrorsBuilder
	for i, idea := range f.Ideas {
		prefix := fmt.Sprintf("ideas[%d]", i)
		if err := validate.Title(idea.Title); err != nil {
			errs = errs.Append(prefix+".title", err)
		}
		if err := validate.PriorityHint(idea.PriorityHint); err != nil {
			errs = errs.Append(prefix+".priority_hint", err)
		}
	}
	return errs.ToError()
}

// Ingest creates one Idea item per entry with ids of the form NNN-slug,
// numbered after the highest existing number.
func Ingest(ctx context.Context, store item.Store, ideas []Idea) ([]item.Item, error) {
	if err := (IdeasFile{Ideas: ideas}).Validate(); err != nil {
		return nil, err
	}

	existing, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	next := 1
	for _, it := range existing {
		if n, ok := sequence(it.ID); ok && n >= next {
			next = n + 1
		}
	}

	created := make([]item.Item, 0, len(ideas))
	for _, idea := range ideas {
		it := item.New(fmt.Sprintf("%03d-%s", next, item.Slugify(idea.Title)), strings.TrimSpace(idea.Title), idea.Overview)
		it.Section = idea.Section
		it.ProblemStatement = idea.ProblemStatement
		it.Motivation = idea.Motivation
		it.SuccessCriteria = idea.SuccessCriteria
		it.TechnicalConstraints = idea.TechnicalConstraints
		it.ScopeInScope = idea.ScopeInScope
		it.ScopeOutOfScope = idea.ScopeOutOfScope
		it.PriorityHint = idea.PriorityHint
		it.UrgencyHint = idea.UrgencyHint
		it = it.Clone()

		if err := store.Create(ctx, it); err != nil {
			return created, err
		}
		created = append(created, it)
		next++
	}

	return created, nil
}

// sequence parses the numeric prefix of an NNN-slug id.
func sequence(id string) (int, bool) {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		prefix = id
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
