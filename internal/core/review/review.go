// Package review creates and observes review requests (pull requests) for
// item branches.
package review

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no review request exists for a branch.
var ErrNotFound = errors.New("review request not found")

// Status is the lifecycle state reported by the hosting service.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusMerged Status = "MERGED"
	StatusClosed Status = "CLOSED"
)

// Request identifies one review request.
type Request struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Status Status `json:"state,omitempty"`
	Draft  bool   `json:"isDraft,omitempty"`
}

// Merged reports whether the request has been merged.
func (r Request) Merged() bool { return r.Status == StatusMerged }

// CreateOptions describes a new review request.
type CreateOptions struct {
	Base  string
	Head  string
	Title string
	Body  string
}

// Provider talks to the review hosting service.
type Provider interface {
	// FindByBranch returns the request whose head is branch, or ErrNotFound.
	FindByBranch(ctx context.Context, branch string) (Request, error)
	// Create opens a request, returning the existing one for the same head
	// branch when present. created is false in that case.
	Create(ctx context.Context, opts CreateOptions) (req Request, created bool, err error)
	// Status returns the current status of request number.
	Status(ctx context.Context, number int) (Status, error)
}
