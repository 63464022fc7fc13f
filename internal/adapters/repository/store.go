// Package repository holds the published leaderboard.
package repository

import (
	"context"

	"github.com/okian/triplecrown/internal/domain/types"
)

// Store provides read access to the latest leaderboard and a way to
// replace it.
type Store interface {
	// Publish replaces the leaderboard. entries must be ordered by position.
	Publish(ctx context.Context, entries []types.Entry)

	// Rank returns the entry of the runner named name, case-insensitively.
	// Returns ErrNotFound if no runner matches.
	Rank(ctx context.Context, name string) (types.Entry, error)

	// TopN returns the first n entries.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of published entries.
	Count(ctx context.Context) int
}
