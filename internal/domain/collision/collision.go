// Package collision reports blocking keys that do not identify a single
// runner. Collisions are a data-quality signal, never an error.
package collision

import (
	"github.com/okian/triplecrown/internal/domain/model"
)

// Tracker records seen blocking keys.
type Tracker interface {
	// SeenAndRecord reports whether key was already recorded, then records it.
	SeenAndRecord(key model.BlockingKey) bool

	// Count returns how many times key was recorded.
	Count(key model.BlockingKey) int

	// Size returns the number of distinct keys.
	Size() int

	// Repeated returns the keys recorded more than once, in first-seen order.
	Repeated() []model.BlockingKey
}

// seenSet implements Tracker with a counting map and first-seen order.
type seenSet struct {
	seen  map[model.BlockingKey]int
	order []model.BlockingKey
}

// NewTracker creates an empty Tracker.
func NewTracker(opts ...Option) Tracker {
	cfg := trackerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &seenSet{
		seen:  make(map[model.BlockingKey]int, cfg.sizeHint),
		order: make([]model.BlockingKey, 0, cfg.sizeHint),
	}
}

func (s *seenSet) SeenAndRecord(key model.BlockingKey) bool {
	n := s.seen[key]
	if n == 0 {
		s.order = append(s.order, key)
	}
	s.seen[key] = n + 1
	return n > 0
}

func (s *seenSet) Count(key model.BlockingKey) int { return s.seen[key] }

func (s *seenSet) Size() int { return len(s.seen) }

func (s *seenSet) Repeated() []model.BlockingKey {
	var out []model.BlockingKey
	for _, k := range s.order {
		if s.seen[k] > 1 {
			out = append(out, k)
		}
	}
	return out
}

// Collision is a key shared by several rows of one source.
type Collision struct {
	Source string
	Key    model.BlockingKey
	Lines  []int
}

// Within returns the keys carried by more than one row of ds, in first-seen
// order.
func Within(ds model.KeyedDataset) []Collision {
	t := NewTracker(WithSizeHint(len(ds.Keys)))
	lines := make(map[model.BlockingKey][]int)
	for i, k := range ds.Keys {
		t.SeenAndRecord(k)
		lines[k] = append(lines[k], ds.Rows[i].Line)
	}

	dup := t.Repeated()
	out := make([]Collision, 0, len(dup))
	for _, k := range dup {
		out = append(out, Collision{Source: ds.Tag, Key: k, Lines: lines[k]})
	}
	return out
}

// Fanout is a key that produced several inner-join records.
type Fanout struct {
	Key     model.BlockingKey
	Records int
}

// Fanouts returns the keys of matched that occur more than once, in
// first-seen order.
func Fanouts(matched []model.MergedRecord) []Fanout {
	t := NewTracker(WithSizeHint(len(matched)))
	for _, m := range matched {
		t.SeenAndRecord(m.Key)
	}
	dup := t.Repeated()
	out := make([]Fanout, 0, len(dup))
	for _, k := range dup {
		out = append(out, Fanout{Key: k, Records: t.Count(k)})
	}
	return out
}
