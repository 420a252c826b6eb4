package item

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrExists is returned when creating an item whose id is taken.
	ErrExists = errors.New("item already exists")
)

// Store persists items, their requirements documents and free-form
// artifacts. Writes of a single record are atomic; concurrent writers of the
// same record resolve last-write-wins.
type Store interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Save(ctx context.Context, it Item) error
	Create(ctx context.Context, it Item) error

	// GetRequirements returns nil without error when no document exists.
	GetRequirements(ctx context.Context, id string) (*RequirementsDoc, error)
	SaveRequirements(ctx context.Context, doc RequirementsDoc) error

	ArtifactExists(ctx context.Context, id, name string) (bool, error)
	ReadArtifact(ctx context.Context, id, name string) ([]byte, error)
	WriteArtifact(ctx context.Context, id, name string, data []byte) error
}

// StorageError wraps a persistence failure with the operation and item id.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
