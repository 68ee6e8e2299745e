package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Tree entry kinds reported by the store.
const (
	KindBlob = "blob"
	KindTree = "tree"
)

// TreeEntry is one node of a repository tree listing.
type TreeEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// IsTree reports whether the entry is a sub-folder.
func (e TreeEntry) IsTree() bool {
	return e.Type == KindTree
}

// IsBlob reports whether the entry is a file.
func (e TreeEntry) IsBlob() bool {
	return e.Type == KindBlob
}

// Commit is one revision touching a path.
type Commit struct {
	ID            string    `json:"id"`
	CommittedDate time.Time `json:"committed_date"`
}

// ListTree returns the direct children of path on the configured branch,
// following pagination until the store reports no next page. An empty result
// means the folder has no entries; it is not an error.
func (c *Client) ListTree(ctx context.Context, path string) ([]TreeEntry, error) {
	var entries []TreeEntry

	page := "1"

	for page != "" {
		query := url.Values{}
		query.Set("path", path)
		query.Set("ref", c.branch)
		query.Set("recursive", "false")
		query.Set("per_page", strconv.Itoa(c.perPage))
		query.Set("page", page)

		body, next, err := c.getListing(ctx, c.repositoryURL("tree", query))
		if err != nil {
			return nil, fmt.Errorf("listing tree %q: %w", path, err)
		}

		var pageEntries []TreeEntry

		decodeErr := json.Unmarshal(body, &pageEntries)
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: decoding tree %q: %v", ErrRemoteUnavailable, path, decodeErr)
		}

		entries = append(entries, pageEntries...)
		page = next
	}

	return entries, nil
}

// ListCommits returns every revision touching path on the configured branch.
// The store usually emits newest-first, but the order is store-defined and
// callers must not rely on it.
func (c *Client) ListCommits(ctx context.Context, path string) ([]Commit, error) {
	var commits []Commit

	page := "1"

	for page != "" {
		query := url.Values{}
		query.Set("path", path)
		query.Set("ref_name", c.branch)
		query.Set("per_page", strconv.Itoa(c.perPage))
		query.Set("page", page)

		body, next, err := c.getListing(ctx, c.repositoryURL("commits", query))
		if err != nil {
			return nil, fmt.Errorf("listing commits for %q: %w", path, err)
		}

		var pageCommits []Commit

		decodeErr := json.Unmarshal(body, &pageCommits)
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: decoding commits for %q: %v", ErrRemoteUnavailable, path, decodeErr)
		}

		commits = append(commits, pageCommits...)
		page = next
	}

	return commits, nil
}

// FileAt fetches the raw content of path at the given revision.
// Returns [ErrNotFound] when the file did not exist at that revision.
func (c *Client) FileAt(ctx context.Context, path, ref string) ([]byte, error) {
	query := url.Values{}
	query.Set("ref", ref)

	resource := "files/" + url.PathEscape(path) + "/raw"

	data, err := c.getContent(ctx, c.repositoryURL(resource, query))
	if err != nil {
		return nil, fmt.Errorf("fetching %q at %s: %w", path, shortRef(ref), err)
	}

	return data, nil
}

// FetchRaw fetches the content behind an absolute URL, typically one built
// with [Client.RawFileURL]. Returns [ErrNotFound] on any non-200 status.
func (c *Client) FetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	data, err := c.getContent(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching raw %s: %w", rawURL, err)
	}

	return data, nil
}

// RawFileURL returns the web URL serving the latest content of path on the
// configured branch.
func (c *Client) RawFileURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/-/raw/%s/%s", c.baseURL, c.namespace, c.repository, c.branch, path)
}

// shortRef abbreviates a revision id for error messages.
func shortRef(ref string) string {
	const shortLen = 12

	if len(ref) <= shortLen {
		return ref
	}

	return ref[:shortLen]
}
