// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package results

// Store holds the most recent batch and the selected result set.
// It is owned by the app loop and is not safe for concurrent use.
type Store struct {
	batch    Batch
	selected int
}

// NewStore returns an empty store with nothing selected.
func NewStore() *Store {
	return &Store{selected: -1}
}

// Replace discards the previous batch. The first result set becomes selected,
// or nothing when the batch has no result sets.
func (s *Store) Replace(b Batch) {
	s.batch = b
	if len(b.Sets) == 0 {
		s.selected = -1
		return
	}
	s.selected = 0
}

// SelectNext moves to the next result set. It does not wrap and reports whether
// the selection changed.
func (s *Store) SelectNext() bool {
	if s.selected < 0 || s.selected >= len(s.batch.Sets)-1 {
		return false
	}
	s.selected++
	return true
}

// SelectPrevious moves to the previous result set without wrapping.
func (s *Store) SelectPrevious() bool {
	if s.selected <= 0 {
		return false
	}
	s.selected--
	return true
}

// Current returns the selected result set.
func (s *Store) Current() (ResultSet, bool) {
	if s.selected < 0 {
		return ResultSet{}, false
	}
	return s.batch.Sets[s.selected], true
}

func (s *Store) Index() int   { return s.selected }
func (s *Store) Len() int     { return len(s.batch.Sets) }
func (s *Store) Batch() Batch { return s.batch }
