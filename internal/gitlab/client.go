// Package gitlab provides a read-only client for the GitLab REST API v4
// repository endpoints the dashboard consumes: tree listing, commit listing,
// raw file content at a revision, and raw file content at the branch head.
package gitlab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Default client settings, matching the deployment the result store lives in.
const (
	DefaultBaseURL = "https://gitlab.inria.fr"
	DefaultPerPage = 100

	defaultTimeout = 30 * time.Second
)

var (
	// ErrRemoteUnavailable reports a transport failure or an unexpected HTTP
	// status from the store. It is fatal to the operation that issued the
	// call and is surfaced to the user, not retried.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrNotFound reports content absent at the requested revision. The file
	// may simply not have existed yet; callers skip and continue.
	ErrNotFound = errors.New("content not found")
)

// Config carries the coordinates of one GitLab project.
type Config struct {
	BaseURL    string
	ProjectID  string
	Namespace  string
	Repository string
	Branch     string
	Token      string
	PerPage    int

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client issues read-only requests against a single GitLab project.
// All methods honor context cancellation. Client is safe for concurrent use.
type Client struct {
	baseURL    string
	projectID  string
	namespace  string
	repository string
	branch     string
	token      string
	perPage    int
	httpClient *http.Client
}

// NewClient builds a [Client] from cfg, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    trimTrailingSlash(cfg.BaseURL),
		projectID:  cfg.ProjectID,
		namespace:  cfg.Namespace,
		repository: cfg.Repository,
		branch:     cfg.Branch,
		token:      cfg.Token,
		perPage:    cfg.PerPage,
		httpClient: cfg.HTTPClient,
	}
}

// Branch returns the configured branch name.
func (c *Client) Branch() string {
	return c.branch
}

// repositoryURL builds an API URL under /projects/{id}/repository.
func (c *Client) repositoryURL(resource string, query url.Values) string {
	full := fmt.Sprintf("%s/api/v4/projects/%s/repository/%s", c.baseURL, c.projectID, resource)

	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	return full
}

// getListing issues one GET against a listing endpoint. Any transport error
// or non-2xx status maps to [ErrRemoteUnavailable]. The second return value
// is the X-Next-Page header, empty on the last page.
func (c *Client) getListing(ctx context.Context, fullURL string) (data []byte, nextPage string, err error) {
	resp, err := c.do(ctx, fullURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("%w: GET %s: status %d", ErrRemoteUnavailable, fullURL, resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, "", fmt.Errorf("%w: reading response: %v", ErrRemoteUnavailable, readErr)
	}

	return body, resp.Header.Get("X-Next-Page"), nil
}

// getContent issues one GET against a content endpoint. A 200 yields the
// body; any other status yields [ErrNotFound], which callers treat as an
// expected outcome, not a failure.
func (c *Client) getContent(ctx context.Context, fullURL string) ([]byte, error) {
	resp, err := c.do(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrNotFound, fullURL, resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRemoteUnavailable, readErr)
	}

	return body, nil
}

func (c *Client) do(ctx context.Context, fullURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", fullURL, err)
	}

	if c.token != "" {
		req.Header.Set("PRIVATE-TOKEN", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrRemoteUnavailable, fullURL, err)
	}

	return resp, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}

	return s
}
