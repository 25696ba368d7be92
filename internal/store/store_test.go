package store

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jawviewer/internal/casefile"
)

func threePairs() *Store {
	return New([]Pair{
		{CaseID: 3, Upper: Surface{File: "3_upper.stl"}, Lower: Surface{File: "3_lower.stl"}},
		{CaseID: 5, Upper: Surface{File: "5_upper.stl"}, Lower: Surface{File: "5_lower.stl"}},
		{CaseID: 9, Upper: Surface{File: "9_top.stl"}, Lower: Surface{File: "9_bottom.stl"}},
	})
}

func TestGet_Clamps(t *testing.T) {
	t.Parallel()

	s := threePairs()
	first, ok := s.Get(0)
	require.True(t, ok)
	last, ok := s.Get(2)
	require.True(t, ok)

	tests := []struct {
		index int
		want  Pair
	}{
		{-5, first},
		{-1, first},
		{0, first},
		{2, last},
		{3, last},
		{99, last},
	}
	for _, tt := range tests {
		got, ok := s.Get(tt.index)
		require.True(t, ok)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Get(%d) mismatch (-want +got):\n%s", tt.index, diff)
		}
	}
}

func TestEmptyStore(t *testing.T) {
	t.Parallel()

	for _, s := range []*Store{New(nil), nil} {
		assert.Zero(t, s.Len())
		assert.True(t, s.Empty())
		_, ok := s.Get(0)
		assert.False(t, ok)
		assert.Zero(t, s.Clamp(7))
		assert.Zero(t, Navigate(s, 0, Next))
		assert.Zero(t, Jump(s, -3))
		assert.Equal(t, State{Empty: true}, StateAt(s, 4))
		assert.Nil(t, s.Pairs())
	}
}

func TestNew_CopiesInput(t *testing.T) {
	t.Parallel()

	pairs := []Pair{{CaseID: 1}}
	s := New(pairs)
	pairs[0].CaseID = 42

	p, _ := s.Get(0)
	assert.Equal(t, 1, p.CaseID)

	out := s.Pairs()
	out[0].CaseID = 7
	p, _ = s.Get(0)
	assert.Equal(t, 1, p.CaseID)
}

func TestNavigate(t *testing.T) {
	t.Parallel()

	s := threePairs()
	tests := []struct {
		name string
		cur  int
		dir  Direction
		want int
	}{
		{"next from start", 0, Next, 1},
		{"next at end stays", 2, Next, 2},
		{"prev at start stays", 0, Prev, 0},
		{"prev from end", 2, Prev, 1},
		{"next from out of range", 50, Next, 2},
		{"prev from negative", -10, Prev, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Navigate(s, tt.cur, tt.dir))
		})
	}
	assert.Equal(t, 2, Jump(s, 1000))
	assert.Equal(t, 1, Jump(s, 1))
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	d, ok := ParseDirection("next")
	assert.True(t, ok)
	assert.Equal(t, Next, d)
	d, ok = ParseDirection("prev")
	assert.True(t, ok)
	assert.Equal(t, "prev", d.String())
	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}

func TestIndexOf(t *testing.T) {
	t.Parallel()

	s := threePairs()
	i, ok := s.IndexOf(9)
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = s.IndexOf(4)
	assert.False(t, ok)
}

func TestStateAt(t *testing.T) {
	t.Parallel()

	st := StateAt(threePairs(), 10)
	require.NotNil(t, st.CaseID)
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, 9, *st.CaseID)
	assert.Equal(t, 3, st.Count)
	assert.False(t, st.Empty)
}

func TestCursor(t *testing.T) {
	t.Parallel()

	c := NewCursor(threePairs())
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, 1, c.Step(Next).Index)
	assert.Equal(t, 2, c.Step(Next).Index)
	assert.Equal(t, 2, c.Step(Next).Index)
	assert.Equal(t, 0, c.JumpTo(-4).Index)

	p, err := c.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, p.CaseID)

	_, err = NewCursor(New(nil)).Current()
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestCursor_JumpToCase(t *testing.T) {
	t.Parallel()

	c := NewCursor(threePairs())
	st, ok := c.JumpToCase(9)
	require.True(t, ok)
	assert.Equal(t, 2, st.Index)
	require.NotNil(t, st.CaseID)
	assert.Equal(t, 9, *st.CaseID)

	st, ok = c.JumpToCase(4)
	assert.False(t, ok)
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, 2, c.Index())

	_, ok = NewCursor(New(nil)).JumpToCase(0)
	assert.False(t, ok)
}

func TestCursor_ConcurrentSteps(t *testing.T) {
	t.Parallel()

	c := NewCursor(threePairs())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); c.Step(Next) }()
		go func() { defer wg.Done(); _ = c.State() }()
	}
	wg.Wait()
	assert.Equal(t, 2, c.Index())
}

func TestPairRole(t *testing.T) {
	t.Parallel()

	p, _ := threePairs().Get(2)
	up, ok := p.Role(casefile.RoleUpper)
	assert.True(t, ok)
	assert.Equal(t, "9_top.stl", up.File)
	low, ok := p.Role(casefile.RoleLower)
	assert.True(t, ok)
	assert.Equal(t, "9_bottom.stl", low.File)
	_, ok = p.Role(casefile.RoleUnknown)
	assert.False(t, ok)
}
