// Package library models the media-server hierarchy the indexer reorders:
// shows contain seasons, seasons contain episodes.
//
// Implementations only read and update existing items. Creating or deleting
// items is out of scope.
package library

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifies an item's level in the hierarchy.
type Kind string

const (
	KindShow    Kind = "Series"
	KindSeason  Kind = "Season"
	KindEpisode Kind = "Episode"
)

// Item is a library entry. Index fields are nil when unset.
type Item struct {
	ID                string
	Kind              Kind
	Name              string
	Path              string
	ParentID          string
	PremiereDate      *time.Time
	IndexNumber       *int
	ParentIndexNumber *int
	ProviderIDs       map[string]string
	DateLastSaved     time.Time
}

// ProviderID returns the id stored under key.
func (i Item) ProviderID(key string) (string, bool) {
	if i.ProviderIDs == nil {
		return "", false
	}
	id, ok := i.ProviderIDs[key]
	return id, ok && id != ""
}

// Library is the collaborator the indexer reads from and writes to.
type Library interface {
	Shows(ctx context.Context) ([]Item, error)
	Seasons(ctx context.Context, showID string) ([]Item, error)
	Episodes(ctx context.Context, seasonID string) ([]Item, error)
	UpdateItem(ctx context.Context, item Item) error
}

// FatalError marks a write failure that should stop further writes for the
// current show.
type FatalError struct {
	ItemID string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("update %s: %v", e.ItemID, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
