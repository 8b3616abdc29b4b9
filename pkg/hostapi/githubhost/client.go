// Package githubhost provides a hostapi.Client implementation backed by a
// GitHub-like REST search/listing API.
package githubhost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"repocrawler/pkg/hostapi"
	"repocrawler/pkg/serrors"
	"strconv"
	"strings"
	"time"
)

const baseURL = "https://api.github.com"

// Client talks to the host's REST API and fulfills the hostapi.Client
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	token      string
}

// New constructs a Client that uses the provided http.Client and bearer
// token to interact with the host API.
func New(httpClient *http.Client, token string) *Client {
	return &Client{httpClient: httpClient, token: token}
}

// parseRateLimit extracts the host's rate-limit information from the HTTP
// response headers and converts it into a hostapi.RateLimitSnapshot.
func parseRateLimit(h http.Header) hostapi.RateLimitSnapshot {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s) //nolint: errcheck

		return n
	}

	var resetAt time.Time
	if epoch := atoi(h.Get("X-RateLimit-Reset")); epoch > 0 {
		resetAt = time.Unix(int64(epoch), 0)
	}

	return hostapi.RateLimitSnapshot{
		Limit:     atoi(h.Get("X-RateLimit-Limit")),
		Remaining: atoi(h.Get("X-RateLimit-Remaining")),
		ResetAt:   resetAt,
	}
}

// classifyStatus maps an HTTP status code to the semantic error kind the
// crawler's worker dispatches on.
func classifyStatus(statusCode int, body string) error {
	switch {
	case statusCode == http.StatusTooManyRequests || statusCode == http.StatusForbidden && strings.Contains(body, "rate limit"):
		return serrors.With(serrors.ErrRateLimited, "rate limited: %s", body)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return serrors.With(serrors.ErrAuthDenied, "auth denied: %s", body)
	case statusCode == http.StatusNotFound:
		return serrors.With(serrors.ErrNotFound, "not found: %s", body)
	case statusCode >= 500 || statusCode == 0:
		return serrors.With(serrors.ErrUpstream, "upstream error (%d): %s", statusCode, body)
	case statusCode < 200 || statusCode >= 300:
		return serrors.With(serrors.ErrUpstream, "unexpected status %d: %s", statusCode, body)
	default:
		return nil
	}
}

func (c *Client) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrTransport, err, "could not send request")
	}

	return resp, nil
}

// SearchOrganizations enumerates owners matching a free-text host query.
func (c *Client) SearchOrganizations(
	ctx context.Context,
	req hostapi.SearchOrganizationsRequest,
) (hostapi.SearchOrganizationsResponse, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("per_page", strconv.Itoa(req.PageSize))
	page := 1
	if req.Cursor != "" {
		if n, err := strconv.Atoi(req.Cursor); err == nil {
			page = n
		}
	}
	q.Set("page", strconv.Itoa(page))

	resp, err := c.do(ctx, http.MethodGet, baseURL+"/search/users?"+q.Encode())
	if err != nil {
		return hostapi.SearchOrganizationsResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	rl := parseRateLimit(resp.Header)
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return hostapi.SearchOrganizationsResponse{RateLimit: rl},
			serrors.Wrap(serrors.ErrTransport, err, "could not read response body")
	}
	if classifyErr := classifyStatus(resp.StatusCode, strings.TrimSpace(string(b))); classifyErr != nil {
		return hostapi.SearchOrganizationsResponse{RateLimit: rl}, classifyErr
	}

	var parsed struct {
		Items []struct {
			Login string `json:"login"`
		} `json:"items"`
	}
	if err := json.Unmarshal(b, &parsed); err != nil {
		return hostapi.SearchOrganizationsResponse{RateLimit: rl},
			serrors.Wrap(serrors.ErrUpstream, err, "could not decode response")
	}

	owners := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		owners = append(owners, item.Login)
	}

	nextCursor := ""
	if len(owners) == req.PageSize && req.PageSize > 0 {
		nextCursor = strconv.Itoa(page + 1)
	}

	return hostapi.SearchOrganizationsResponse{
		Owners:     owners,
		NextCursor: nextCursor,
		RateLimit:  rl,
	}, nil
}

// ListRepositoriesOfOrganization enumerates a given owner's public repositories.
func (c *Client) ListRepositoriesOfOrganization(
	ctx context.Context,
	req hostapi.ListRepositoriesRequest,
) (hostapi.ListRepositoriesResponse, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(req.PageSize))
	q.Set("type", "public")
	page := 1
	if req.Cursor != "" {
		if n, err := strconv.Atoi(req.Cursor); err == nil {
			page = n
		}
	}
	q.Set("page", strconv.Itoa(page))

	target := fmt.Sprintf("%s/users/%s/repos?%s", baseURL, url.PathEscape(req.Owner), q.Encode())
	resp, err := c.do(ctx, http.MethodGet, target)
	if err != nil {
		return hostapi.ListRepositoriesResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	rl := parseRateLimit(resp.Header)
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return hostapi.ListRepositoriesResponse{RateLimit: rl},
			serrors.Wrap(serrors.ErrTransport, err, "could not read response body")
	}
	if classifyErr := classifyStatus(resp.StatusCode, strings.TrimSpace(string(b))); classifyErr != nil {
		return hostapi.ListRepositoriesResponse{RateLimit: rl}, classifyErr
	}

	var parsed []struct {
		Name            string `json:"name"`
		StargazersCount int    `json:"stargazers_count"`
	}
	if err := json.Unmarshal(b, &parsed); err != nil {
		return hostapi.ListRepositoriesResponse{RateLimit: rl},
			serrors.Wrap(serrors.ErrUpstream, err, "could not decode response")
	}

	items := make([]hostapi.RepositoryItem, 0, len(parsed))
	for _, repo := range parsed {
		items = append(items, hostapi.RepositoryItem{Name: repo.Name, Stars: repo.StargazersCount})
	}

	nextCursor := ""
	if len(items) == req.PageSize && req.PageSize > 0 {
		nextCursor = strconv.Itoa(page + 1)
	}

	return hostapi.ListRepositoriesResponse{
		Repositories: items,
		NextCursor:   nextCursor,
		RateLimit:    rl,
	}, nil
}

// Ensure Client conforms to the hostapi.Client interface at compile time.
var _ hostapi.Client = (*Client)(nil)
