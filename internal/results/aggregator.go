package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/numpex/exa-di-g5k-dashboard/internal/gitlab"
)

// ErrNoData marks the legitimate "nothing to show" outcome: an application
// with no loadable result files. Surfaces report it as an informational
// state, never as a failure.
var ErrNoData = errors.New("no results to show")

// FileLister lists the result files of one application folder.
type FileLister interface {
	ListResultFiles(ctx context.Context, app string) ([]gitlab.TreeEntry, error)
}

// ContentFetcher fetches the latest raw content of a repository file.
type ContentFetcher interface {
	RawFileURL(path string) string
	FetchRaw(ctx context.Context, url string) ([]byte, error)
}

// Aggregator loads the current result record of every configuration of an
// application.
type Aggregator struct {
	files   FileLister
	fetcher ContentFetcher
	logger  *slog.Logger
}

// NewAggregator wires an [Aggregator] from its collaborators.
func NewAggregator(files FileLister, fetcher ContentFetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{files: files, fetcher: fetcher, logger: logger}
}

// LoadCurrent fetches and decodes the latest record of every result file in
// the application folder. A fetch or parse failure on one file drops that
// file with a warning; the batch never fails part-way. Only the listing call
// itself can fail the operation. An empty slice means "no data", which
// callers distinguish from an error via [ErrNoData] at the surface layer.
func (a *Aggregator) LoadCurrent(ctx context.Context, app string) ([]Record, error) {
	entries, err := a.files.ListResultFiles(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("loading results for %q: %w", app, err)
	}

	records := make([]Record, 0, len(entries))

	for _, entry := range entries {
		data, fetchErr := a.fetcher.FetchRaw(ctx, a.fetcher.RawFileURL(entry.Path))
		if fetchErr != nil {
			a.logger.Warn("skipping unreadable result file", "file", entry.Path, "error", fetchErr)

			continue
		}

		record, decodeErr := DecodeRecord(data)
		if decodeErr != nil {
			a.logger.Warn("skipping malformed result file", "file", entry.Path, "error", decodeErr)

			continue
		}

		record.File = entry.Name
		records = append(records, record)
	}

	return records, nil
}

// wellKnownColumns orders the standard fields ahead of ad-hoc ones.
var wellKnownColumns = []string{
	FieldMachine,
	FieldDate,
	FieldInitialTime,
	FieldComputeTime,
	FieldTestResult,
}

// Columns returns the union of field names across records: well-known
// columns first, in their canonical order, then the rest sorted.
func Columns(records []Record) []string {
	seen := make(map[string]bool)

	for _, record := range records {
		for name := range record.Fields {
			seen[name] = true
		}
	}

	columns := make([]string, 0, len(seen))

	for _, name := range wellKnownColumns {
		if seen[name] {
			columns = append(columns, name)
			delete(seen, name)
		}
	}

	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}

	slices.Sort(rest)

	return append(columns, rest...)
}
