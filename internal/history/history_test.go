package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jisp-lang/conformance/internal/runner"
	"github.com/jisp-lang/conformance/internal/verify"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string, started time.Time) *runner.Report {
	return &runner.Report{
		RunID:      id,
		FailFast:   true,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Total:      2,
		Passed:     1,
		Skipped:    1,
		Results: []runner.CheckResult{
			{Source: "tests/a.json", Description: "check #1", Status: runner.StatusPass},
			{
				Source:      "tests/a.json",
				Description: "check #2",
				Status:      runner.StatusFail,
				Diagnostic: &verify.Diagnostic{
					Kind:     verify.KindMessageMismatch,
					Expected: "division by zero",
					Actual:   "stack underflow",
				},
			},
			{Source: "tests/a.json", Description: "check #3", Status: runner.StatusSkip, SkipReason: "no jisp_program"},
		},
	}
}

func TestStore_RecordAndListRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, sampleReport("run-1", started)))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 1, got.Skipped)
	assert.True(t, got.FailFast)
	assert.False(t, got.Aborted)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestStore_ResultsPreserveOrderAndDiagnostics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, sampleReport("run-1", started)))

	results, err := s.Results(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, runner.StatusPass, results[0].Status)
	assert.Nil(t, results[0].Diagnostic)

	require.NotNil(t, results[1].Diagnostic)
	assert.Equal(t, verify.KindMessageMismatch, results[1].Diagnostic.Kind)
	assert.Equal(t, "division by zero", results[1].Diagnostic.Expected)

	assert.Equal(t, runner.StatusSkip, results[2].Status)
	assert.Equal(t, "no jisp_program", results[2].SkipReason)
}

func TestStore_RecentOrdersNewestFirstAndLimits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Record(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, sampleReport("run-1", time.Now().UTC())))
	require.NoError(t, s.Close())

	// Schema application is idempotent; existing rows survive.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
