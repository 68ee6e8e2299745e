// Package discovery finds application folders in the benchmark results tree.
// A folder counts as an application iff it is not the results root and holds
// at least one direct result file; the walk still descends below qualifying
// folders, so nested applications are reported independently.
package discovery

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/numpex/exa-di-g5k-dashboard/internal/gitlab"
)

// TreeLister lists the direct children of a folder in the store.
type TreeLister interface {
	ListTree(ctx context.Context, path string) ([]gitlab.TreeEntry, error)
}

// Walker traverses the results tree of a revision store.
type Walker struct {
	lister    TreeLister
	root      string
	extension string
}

// NewWalker returns a [Walker] rooted at root, recognizing result files by
// the given name extension (".json" in the stock deployment).
func NewWalker(lister TreeLister, root, extension string) *Walker {
	return &Walker{lister: lister, root: root, extension: extension}
}

// ListApplications walks the results tree depth first and returns the
// root-relative names of every folder holding at least one direct result
// file, sorted lexicographically. The walk uses an explicit worklist rather
// than recursion; the store is an append-only tree, so no cycle guard is
// needed. A listing failure anywhere aborts the whole walk.
func (w *Walker) ListApplications(ctx context.Context) ([]string, error) {
	var apps []string

	stack := []string{w.root}

	for len(stack) > 0 {
		folder := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := w.lister.ListTree(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", folder, err)
		}

		hasResultFile := false

		for _, entry := range entries {
			switch {
			case entry.IsTree():
				stack = append(stack, entry.Path)
			case entry.IsBlob() && strings.HasSuffix(entry.Name, w.extension):
				hasResultFile = true
			}
		}

		if folder != w.root && hasResultFile {
			apps = append(apps, strings.TrimPrefix(folder, w.root+"/"))
		}
	}

	slices.Sort(apps)

	return apps, nil
}

// ListResultFiles returns the direct result files of one application folder,
// sorted by name. An application without result files yields an empty slice,
// not an error.
func (w *Walker) ListResultFiles(ctx context.Context, app string) ([]gitlab.TreeEntry, error) {
	folder := path.Join(w.root, app)

	entries, err := w.lister.ListTree(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("listing result files of %q: %w", app, err)
	}

	var files []gitlab.TreeEntry

	for _, entry := range entries {
		if entry.IsBlob() && strings.HasSuffix(entry.Name, w.extension) {
			files = append(files, entry)
		}
	}

	slices.SortFunc(files, func(a, b gitlab.TreeEntry) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return files, nil
}
