package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numpex/exa-di-g5k-dashboard/internal/gitlab"
)

const testFile = "results/app/cfg.json"

var errCommitsDown = errors.New("commit listing down")

func TestReconstructOrdersByTimestamp(t *testing.T) {
	t.Parallel()

	// Revisions listed in arbitrary store order: t3, t1, t2.
	store := &fakeStore{
		commits: []gitlab.Commit{{ID: "r3"}, {ID: "r1"}, {ID: "r2"}},
		files: map[string][]byte{
			"r3": recordJSON("2024-03-01T10:00:00+01:00", 3, 30),
			"r1": recordJSON("2024-01-01T10:00:00+01:00", 1, 10),
			"r2": recordJSON("2024-02-01T10:00:00+01:00", 2, 20),
		},
	}

	reconstructor := NewReconstructor(store, 1, discardLogger())

	h, err := reconstructor.Reconstruct(context.Background(), testFile)

	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, "r1", h[0].Revision)
	assert.Equal(t, "r2", h[1].Revision)
	assert.Equal(t, "r3", h[2].Revision)
	assert.True(t, h[0].Time.Before(h[1].Time))
	assert.True(t, h[1].Time.Before(h[2].Time))
}

func TestReconstructDropsUnusableRevisions(t *testing.T) {
	t.Parallel()

	// "missing" is absent at its revision; "broken" is malformed JSON;
	// "undated" has no timestamp field; "baddate" has an unparseable one.
	store := &fakeStore{
		commits: []gitlab.Commit{
			{ID: "ok"},
			{ID: "missing"},
			{ID: "broken"},
			{ID: "undated"},
			{ID: "baddate"},
			{ID: "ok2"},
		},
		files: map[string][]byte{
			"ok":      recordJSON("2024-01-01T10:00:00+01:00", 1, 10),
			"broken":  []byte(`{"date": "2024-01-02"`),
			"undated": []byte(`{"initial_time": 1, "compute_time": 2}`),
			"baddate": []byte(`{"date": "not a date", "compute_time": 2}`),
			"ok2":     recordJSON("2024-01-03T10:00:00+01:00", 2, 20),
		},
	}

	reconstructor := NewReconstructor(store, 1, discardLogger())

	h, err := reconstructor.Reconstruct(context.Background(), testFile)

	require.NoError(t, err)

	// 6 revisions, 1 not found, 3 unparseable: 2 survive.
	require.Len(t, h, 2)
	assert.Equal(t, "ok", h[0].Revision)
	assert.Equal(t, "ok2", h[1].Revision)
}

func TestReconstructConcurrencyDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	store := &fakeStore{files: map[string][]byte{}}

	for i := range 40 {
		id := fmt.Sprintf("r%02d", i)
		store.commits = append(store.commits, gitlab.Commit{ID: id})
		store.files[id] = recordJSON(
			fmt.Sprintf("2024-01-%02dT10:00:00+01:00", i%28+1),
			float64(i),
			float64(i*2),
		)
	}

	sequential, err := NewReconstructor(store, 1, discardLogger()).Reconstruct(context.Background(), testFile)
	require.NoError(t, err)

	parallel, err := NewReconstructor(store, 8, discardLogger()).Reconstruct(context.Background(), testFile)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestReconstructListingFailureIsFatal(t *testing.T) {
	t.Parallel()

	reconstructor := NewReconstructor(&fakeStore{listErr: errCommitsDown}, 1, discardLogger())

	_, err := reconstructor.Reconstruct(context.Background(), testFile)

	assert.ErrorIs(t, err, errCommitsDown)
}

func TestReconstructEmptyHistory(t *testing.T) {
	t.Parallel()

	reconstructor := NewReconstructor(&fakeStore{}, 4, discardLogger())

	h, err := reconstructor.Reconstruct(context.Background(), testFile)

	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestReconstructCanceledContext(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		commits: []gitlab.Commit{{ID: "r1"}, {ID: "r2"}},
		files: map[string][]byte{
			"r1": recordJSON("2024-01-01T10:00:00+01:00", 1, 10),
			"r2": recordJSON("2024-01-02T10:00:00+01:00", 2, 20),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReconstructor(store, 2, discardLogger()).Reconstruct(ctx, testFile)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestHistorySeriesExtraction(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		commits: []gitlab.Commit{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}},
		files: map[string][]byte{
			"r1": recordJSON("2024-01-01T10:00:00+01:00", 1.5, 10),
			"r2": []byte(`{"date": "2024-01-02T10:00:00+01:00", "compute_time": 20}`),
			"r3": recordJSON("2024-01-03T10:00:00+01:00", 3.5, 30),
		},
	}

	h, err := NewReconstructor(store, 1, discardLogger()).Reconstruct(context.Background(), testFile)
	require.NoError(t, err)

	// A revision without the field contributes 0, keeping series aligned.
	assert.InDeltaSlice(t, []float64{1.5, 0, 3.5}, h.Series("initial_time"), 0.0001)
	assert.InDeltaSlice(t, []float64{10, 20, 30}, h.Series("compute_time"), 0.0001)
	assert.InDeltaSlice(t, []float64{11.5, 20, 33.5}, h.TotalSeries("initial_time", "compute_time"), 0.0001)

	times := h.Times()
	require.Len(t, times, 3)
	assert.Equal(t, time.January, times[0].Month())
}

// fakeStore serves canned commits and per-revision content.
type fakeStore struct {
	commits []gitlab.Commit
	files   map[string][]byte
	listErr error
}

func (f *fakeStore) ListCommits(_ context.Context, _ string) ([]gitlab.Commit, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	return f.commits, nil
}

func (f *fakeStore) FileAt(_ context.Context, _, ref string) ([]byte, error) {
	data, ok := f.files[ref]
	if !ok {
		return nil, gitlab.ErrNotFound
	}

	return data, nil
}

func recordJSON(date string, initial, compute float64) []byte {
	return fmt.Appendf(nil, `{"machine":"grisou","date":%q,"initial_time":%g,"compute_time":%g}`, date, initial, compute)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
