package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jawviewer/internal/casefile"
	"github.com/banshee-data/jawviewer/internal/classify"
	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/pairing"
	"github.com/banshee-data/jawviewer/internal/store"
	"github.com/banshee-data/jawviewer/internal/testutil"
)

func init() {
	monitoring.Mute()
}

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleResult(started, finished time.Time) pairing.Result {
	return pairing.Result{
		Started:   started,
		Finished:  finished,
		FilesSeen: 5,
		Pairs: []store.Pair{{
			CaseID: 3,
			Upper:  store.Surface{File: "3_upper.stl", Mesh: testutil.FlatGrid(3, 3), Source: classify.SourceHeight, Teeth: 4},
			Lower:  store.Surface{File: "3_lower.stl", Mesh: testutil.FlatGrid(2, 2), Source: classify.SourceFallback, Teeth: 1},
		}},
		Skipped: []pairing.Skip{
			{Filename: "notes.txt", Reason: pairing.ReasonWrongExtension},
			{Filename: "4_upper.stl", CaseID: casefile.CaseID{Value: 4, Valid: true}, Role: casefile.RoleUpper, Reason: pairing.ReasonIncompleteCase},
		},
	}
}

func TestOpen_MigratesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)

	v, dirty, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
	assert.Equal(t, path, c.Path())
	require.NoError(t, c.Close())

	// Reopening an up-to-date database is a no-op.
	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	v, _, err = c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

func TestNewRun(t *testing.T) {
	t.Parallel()

	started := time.Unix(1_700_000_000, 0)
	run := NewRun("/srv/scans", sampleResult(started, started.Add(time.Second)), []byte(`{"a":1}`))

	assert.Empty(t, run.RunID)
	assert.Equal(t, 5, run.FilesSeen)
	assert.Equal(t, 1, run.PairCount)
	assert.Equal(t, 2, run.SkipCount)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, time.Second, run.FinishedAt.Sub(run.StartedAt))
	want := PairRecord{
		Index: 0, CaseID: 3,
		UpperFile: "3_upper.stl", LowerFile: "3_lower.stl",
		UpperPoints: 9, LowerPoints: 4,
		UpperSource: "height", LowerSource: "fallback",
		UpperTeeth: 4, LowerTeeth: 1,
	}
	if diff := cmp.Diff([]PairRecord{want}, run.Pairs); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, run.Skips, 2)
	assert.Nil(t, run.Skips[0].CaseID)
	require.NotNil(t, run.Skips[1].CaseID)
	assert.Equal(t, 4, *run.Skips[1].CaseID)
	assert.Equal(t, "upper", run.Skips[1].Role)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	t.Parallel()

	c := openTemp(t)
	ctx := context.Background()

	started := time.Unix(1_700_000_000, 500)
	run := NewRun("/srv/scans", sampleResult(started, started.Add(2*time.Second)), []byte(`{"bite_gap_y":-8}`))
	require.NoError(t, c.RecordRun(ctx, &run))
	require.NotEmpty(t, run.RunID)

	runs, err := c.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, "/srv/scans", got.DataDir)
	assert.True(t, started.Equal(got.StartedAt))
	assert.True(t, run.FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, 5, got.FilesSeen)
	assert.Equal(t, 1, got.PairCount)
	assert.Equal(t, 2, got.SkipCount)
	assert.Equal(t, `{"bite_gap_y":-8}`, got.ConfigJSON)
	assert.Nil(t, got.Pairs)

	pairs, err := c.RunPairs(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run.Pairs, pairs); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}

	skips, err := c.RunSkips(ctx, run.RunID)
	require.NoError(t, err)
	// Ordered by filename.
	want := []SkipRecord{run.Skips[1], run.Skips[0]}
	if diff := cmp.Diff(want, skips); diff != "" {
		t.Errorf("skips mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRun_DuplicateIDRollsBack(t *testing.T) {
	t.Parallel()

	c := openTemp(t)
	ctx := context.Background()

	run := NewRun("/a", sampleResult(time.Unix(10, 0), time.Time{}), nil)
	run.RunID = "fixed"
	require.NoError(t, c.RecordRun(ctx, &run))

	again := NewRun("/b", sampleResult(time.Unix(20, 0), time.Time{}), nil)
	again.RunID = "fixed"
	assert.Error(t, c.RecordRun(ctx, &again))

	runs, err := c.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/a", runs[0].DataDir)
	assert.True(t, runs[0].FinishedAt.IsZero())
	assert.Empty(t, runs[0].ConfigJSON)

	pairs, err := c.RunPairs(ctx, "fixed")
	require.NoError(t, err)
	assert.Len(t, pairs, 1, "failed insert must not leave extra rows")
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	t.Parallel()

	c := openTemp(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		run := NewRun("/d", pairing.Result{Started: time.Unix(int64(i*100), 0)}, nil)
		require.NoError(t, c.RecordRun(ctx, &run))
	}

	runs, err := c.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(300), runs[0].StartedAt.Unix())
	assert.Equal(t, int64(200), runs[1].StartedAt.Unix())

	pairs, err := c.RunPairs(ctx, runs[0].RunID)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
