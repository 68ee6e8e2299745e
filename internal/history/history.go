// Package history reconstructs a configuration file's benchmark series from
// its revision history: every revision touching the file is fetched, decoded,
// and the usable records are ordered by their own timestamps. The store's
// commit order is never trusted.
package history

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/numpex/exa-di-g5k-dashboard/internal/gitlab"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
)

// DefaultConcurrency bounds the parallel per-revision fetches. Fetches are
// independent and the final sort restores order, so workers need no
// coordination beyond the result collection.
const DefaultConcurrency = 4

// RevisionStore lists the revisions touching a file and fetches its content
// at one of them.
type RevisionStore interface {
	ListCommits(ctx context.Context, path string) ([]gitlab.Commit, error)
	FileAt(ctx context.Context, path, ref string) ([]byte, error)
}

// Entry is one usable revision of a result file.
type Entry struct {
	Revision string         `json:"revision"`
	Time     time.Time      `json:"time"`
	Record   results.Record `json:"record"`
}

// History is a series of entries ordered ascending by timestamp.
type History []Entry

// Times returns the entry timestamps in series order.
func (h History) Times() []time.Time {
	times := make([]time.Time, len(h))

	for i, entry := range h {
		times[i] = entry.Time
	}

	return times
}

// Series extracts one numeric field across the history. A revision missing
// the field (or holding it as a non-number) contributes 0, so the series
// always has one point per entry.
func (h History) Series(field string) []float64 {
	series := make([]float64, len(h))

	for i, entry := range h {
		series[i] = entry.Record.Float(field)
	}

	return series
}

// TotalSeries returns the pointwise sum of two fields, computed on the raw
// series before any segmentation is applied.
func (h History) TotalSeries(fieldA, fieldB string) []float64 {
	total := make([]float64, len(h))

	for i, entry := range h {
		total[i] = entry.Record.Float(fieldA) + entry.Record.Float(fieldB)
	}

	return total
}

// Reconstructor assembles histories from a revision store.
type Reconstructor struct {
	store       RevisionStore
	concurrency int
	logger      *slog.Logger
}

// NewReconstructor wires a [Reconstructor]. concurrency bounds the fetch
// fan-out; values below 1 fall back to [DefaultConcurrency], and 1 means
// strictly sequential fetching.
func NewReconstructor(store RevisionStore, concurrency int, logger *slog.Logger) *Reconstructor {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Reconstructor{store: store, concurrency: concurrency, logger: logger}
}

// Reconstruct builds the time-ordered history of one result file. Revisions
// whose content is absent ([gitlab.ErrNotFound]), malformed, or carries no
// parseable timestamp are dropped, never recorded as holes. Only the
// revision-listing call can fail the operation.
func (r *Reconstructor) Reconstruct(ctx context.Context, filePath string) (History, error) {
	commits, err := r.store.ListCommits(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("reconstructing %q: %w", filePath, err)
	}

	entries := r.fetchAll(ctx, filePath, commits)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("reconstructing %q: %w", filePath, ctxErr)
	}

	// Ties on the timestamp break on the revision id, so the result is
	// deterministic regardless of worker interleaving.
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}

		return cmp.Compare(a.Revision, b.Revision)
	})

	return entries, nil
}

func (r *Reconstructor) fetchAll(ctx context.Context, filePath string, commits []gitlab.Commit) []Entry {
	workers := min(r.concurrency, len(commits))
	if workers < 1 {
		return nil
	}

	jobs := make(chan gitlab.Commit)

	var (
		mu      sync.Mutex
		entries []Entry
		wg      sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for commit := range jobs {
				entry, ok := r.fetchOne(ctx, filePath, commit)
				if !ok {
					continue
				}

				mu.Lock()
				entries = append(entries, entry)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, commit := range commits {
		select {
		case jobs <- commit:
		case <-ctx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	return entries
}

// fetchOne fetches and decodes one revision. ok is false when the revision
// is unusable for any reason; the caller drops it.
func (r *Reconstructor) fetchOne(ctx context.Context, filePath string, commit gitlab.Commit) (Entry, bool) {
	data, err := r.store.FileAt(ctx, filePath, commit.ID)
	if err != nil {
		if errors.Is(err, gitlab.ErrNotFound) {
			r.logger.Debug("revision skipped", "file", filePath, "revision", commit.ID, "reason", "absent at revision")
		} else {
			r.logger.Warn("revision fetch failed", "file", filePath, "revision", commit.ID, "error", err)
		}

		return Entry{}, false
	}

	record, decodeErr := results.DecodeRecord(data)
	if decodeErr != nil {
		r.logger.Warn("revision skipped", "file", filePath, "revision", commit.ID, "error", decodeErr)

		return Entry{}, false
	}

	ts, ok := record.Timestamp()
	if !ok {
		r.logger.Debug("revision skipped", "file", filePath, "revision", commit.ID, "reason", "no parseable timestamp")

		return Entry{}, false
	}

	record.File = path.Base(filePath)

	return Entry{Revision: commit.ID, Time: ts, Record: record}, true
}
