// Package store holds the collected, aligned and classified surface pairs and
// the index arithmetic used to browse them.
//
// A Store is immutable once built. Navigation is expressed as pure functions
// from (store, current index) to a new index; the only mutable state is the
// Cursor, which callers own.
package store

import (
	"errors"
	"sync"

	"github.com/banshee-data/jawviewer/internal/casefile"
	"github.com/banshee-data/jawviewer/internal/classify"
	"github.com/banshee-data/jawviewer/internal/mesh"
)

// ErrNoPairs reports an operation on an empty store.
var ErrNoPairs = errors.New("no pairs")

// Surface is one arch of a pair after alignment and classification.
type Surface struct {
	// File is the source filename, without directory.
	File   string
	Mesh   *mesh.Mesh
	Source classify.Source
	Teeth  int
}

// Pair is the unit of navigation.
type Pair struct {
	CaseID int
	Upper  Surface
	Lower  Surface
}

// Store is an ordered, read-only list of pairs.
type Store struct {
	pairs []Pair
}

// New copies pairs into a Store.
func New(pairs []Pair) *Store {
	return &Store{pairs: append([]Pair(nil), pairs...)}
}

// Len returns the number of pairs. A nil Store is empty.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// Empty reports whether the store has no pairs.
func (s *Store) Empty() bool { return s.Len() == 0 }

// Clamp maps i into [0, Len-1]. It returns 0 for an empty store.
func (s *Store) Clamp(i int) int {
	n := s.Len()
	if n == 0 {
		return 0
	}
	return max(0, min(n-1, i))
}

// Get returns the pair at the clamped index. ok is false only when the
// store is empty.
func (s *Store) Get(i int) (Pair, bool) {
	if s.Empty() {
		return Pair{}, false
	}
	return s.pairs[s.Clamp(i)], true
}

// Pairs returns a copy of the pair list.
func (s *Store) Pairs() []Pair {
	if s == nil {
		return nil
	}
	return append([]Pair(nil), s.pairs...)
}

// IndexOf returns the index of the pair with the given case id.
func (s *Store) IndexOf(caseID int) (int, bool) {
	if s == nil {
		return 0, false
	}
	for i, p := range s.pairs {
		if p.CaseID == caseID {
			return i, true
		}
	}
	return 0, false
}

// Direction is a relative navigation step.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// ParseDirection accepts "next" and "prev".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "next":
		return Next, true
	case "prev":
		return Prev, true
	}
	return 0, false
}

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	}
	return "none"
}

// Navigate returns the index one step from cur in direction d, clamped to
// the store. It does not wrap.
func Navigate(s *Store, cur int, d Direction) int {
	return s.Clamp(s.Clamp(cur) + int(d))
}

// Jump returns target clamped to the store.
func Jump(s *Store, target int) int {
	return s.Clamp(target)
}

// State describes the cursor position for display.
type State struct {
	Index  int  `json:"index"`
	CaseID *int `json:"case_id"`
	Count  int  `json:"count"`
	Empty  bool `json:"empty"`
}

// StateAt builds the State for index i.
func StateAt(s *Store, i int) State {
	st := State{Count: s.Len(), Empty: s.Empty()}
	if p, ok := s.Get(i); ok {
		st.Index = s.Clamp(i)
		id := p.CaseID
		st.CaseID = &id
	}
	return st
}

// Cursor is the single mutable "current index" cell. Reads and writes are
// serialised so a reader never sees a partial update.
type Cursor struct {
	mu    sync.Mutex
	store *Store
	index int
}

// NewCursor starts at index 0 of s.
func NewCursor(s *Store) *Cursor {
	return &Cursor{store: s}
}

// Store returns the store the cursor browses.
func (c *Cursor) Store() *Store { return c.store }

// Index returns the current index.
func (c *Cursor) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// State returns the State at the current index.
func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StateAt(c.store, c.index)
}

// Step moves one pair in direction d and returns the new state.
func (c *Cursor) Step(d Direction) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = Navigate(c.store, c.index, d)
	return StateAt(c.store, c.index)
}

// JumpTo moves to target, clamped, and returns the new state.
func (c *Cursor) JumpTo(target int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = Jump(c.store, target)
	return StateAt(c.store, c.index)
}

// JumpToCase moves to the pair for caseID. ok is false, and the cursor stays
// put, when no pair has that case id.
func (c *Cursor) JumpToCase(caseID int) (st State, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.store.IndexOf(caseID)
	if ok {
		c.index = idx
	}
	return StateAt(c.store, c.index), ok
}

// Current returns the pair under the cursor, or ErrNoPairs.
func (c *Cursor) Current() (Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.store.Get(c.index)
	if !ok {
		return Pair{}, ErrNoPairs
	}
	return p, nil
}

// Role returns the surface for the given role.
func (p Pair) Role(r casefile.Role) (Surface, bool) {
	switch r {
	case casefile.RoleUpper:
		return p.Upper, true
	case casefile.RoleLower:
		return p.Lower, true
	}
	return Surface{}, false
}
