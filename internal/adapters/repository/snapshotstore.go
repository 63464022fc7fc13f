package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/okian/triplecrown/internal/domain/types"
)

// Snapshot is an immutable leaderboard with a name index.
type Snapshot struct {
	Entries []types.Entry
	// ByName maps a folded runner name to its first entry index.
	ByName map[string]int
}

// SnapshotStore serves reads from an atomically swapped Snapshot. Readers
// never block a publish.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(&Snapshot{ByName: map[string]int{}})
	return s
}

// NameKey folds a runner name for lookups: lower case, single spaces.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Publish implements Store.
func (s *SnapshotStore) Publish(_ context.Context, entries []types.Entry) {
	snap := &Snapshot{
		Entries: make([]types.Entry, len(entries)),
		ByName:  make(map[string]int, len(entries)),
	}
	copy(snap.Entries, entries)
	for i, e := range snap.Entries {
		k := NameKey(e.Name)
		if _, dup := snap.ByName[k]; !dup {
			snap.ByName[k] = i
		}
	}
	s.current.Store(snap)
}

// Rank implements Store.
func (s *SnapshotStore) Rank(_ context.Context, name string) (types.Entry, error) {
	snap := s.current.Load()
	i, ok := snap.ByName[NameKey(name)]
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return snap.Entries[i], nil
}

// TopN implements Store.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	snap := s.current.Load()
	if n > len(snap.Entries) {
		n = len(snap.Entries)
	}
	out := make([]types.Entry, n)
	copy(out, snap.Entries[:n])
	return out, nil
}

// Count implements Store.
func (s *SnapshotStore) Count(_ context.Context) int {
	return len(s.current.Load().Entries)
}
