package gitlabapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Header carrying the declared page count on listing responses.
const totalPagesHeader = "X-Total-Pages"

// Fork is one fork of a reference repository, as reported by the listing
// endpoint. Forks are transient: they exist only for the matching pass.
type Fork struct {
	CloneURL      string
	NamespaceName string
	NamespacePath string
}

// ForksClient lists forks of projects on one GitLab instance.
type ForksClient struct {
	baseURL string
	client  *Client
	perPage int
}

// NewForksClient creates a fork listing client for the given API base URL
// (e.g. "https://gitlab.example.edu/api/v4").
func NewForksClient(baseURL string, client *Client, perPage int) (*ForksClient, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse gitlab api base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("request client is required")
	}
	if perPage <= 0 {
		perPage = 50
	}
	return &ForksClient{
		baseURL: trimmed,
		client:  client,
		perPage: perPage,
	}, nil
}

// ListForks walks every page of the fork listing for the URL-escaped
// repository path and returns the concatenated descriptors in page order.
// Pages are 1-indexed; each response's X-Total-Pages header declares how
// many pages exist. An unreachable endpoint or malformed pagination header
// aborts the listing with an error. An empty token means unauthenticated
// access.
func (c *ForksClient) ListForks(ctx context.Context, escapedRepo, token string) ([]Fork, error) {
	if strings.TrimSpace(escapedRepo) == "" {
		return nil, fmt.Errorf("repository is required")
	}

	var forks []Fork
	totalPages := 0
	for page := 1; ; page++ {
		pageForks, declaredTotal, err := c.listPage(ctx, escapedRepo, token, page)
		if err != nil {
			return nil, err
		}
		forks = append(forks, pageForks...)
		totalPages = declaredTotal
		if page >= totalPages {
			break
		}
	}
	return forks, nil
}

func (c *ForksClient) listPage(ctx context.Context, escapedRepo, token string, page int) ([]Fork, int, error) {
	// The repository path arrives pre-escaped; building the URL textually
	// keeps the %2F separators intact.
	reqURL := fmt.Sprintf("%s/projects/%s/forks?per_page=%d&page=%d", c.baseURL, escapedRepo, c.perPage, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build fork listing request: %w", err)
	}
	if token != "" {
		req.Header.Set("PRIVATE-TOKEN", token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fork listing request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, fmt.Errorf("fork listing page %d: unexpected status %d", page, resp.StatusCode)
	}

	rawTotal := resp.Header.Get(totalPagesHeader)
	totalPages, err := strconv.Atoi(strings.TrimSpace(rawTotal))
	if err != nil || totalPages < 0 {
		return nil, 0, fmt.Errorf("fork listing page %d: malformed %s header %q", page, totalPagesHeader, rawTotal)
	}

	var payload []forkPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("decode fork listing page %d: %w", page, err)
	}

	forks := make([]Fork, 0, len(payload))
	for _, entry := range payload {
		forks = append(forks, Fork{
			CloneURL:      entry.HTTPURLToRepo,
			NamespaceName: entry.Namespace.Name,
			NamespacePath: entry.Namespace.Path,
		})
	}
	return forks, totalPages, nil
}

type forkPayload struct {
	HTTPURLToRepo string `json:"http_url_to_repo"`
	Namespace     struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"namespace"`
}
