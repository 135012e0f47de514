package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RepoInfo is the subset of GitHub repository metadata kept on a bug.
type RepoInfo struct {
	Stars         int    `json:"stargazers_count"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
}

// RepoMetadataClient fetches repository metadata. The resty implementation
// talks to the GitHub API; tests stub the interface.
type RepoMetadataClient interface {
	GetRepo(ctx context.Context, owner, name string) (*RepoInfo, error)
}

type githubClient struct {
	client  *resty.Client
	baseURL string
}

// NewGitHubClient builds a metadata client. token may be empty for
// unauthenticated (rate-limited) access.
func NewGitHubClient(baseURL, token string) RepoMetadataClient {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/vnd.github+json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &githubClient{client: client, baseURL: baseURL}
}

func (g *githubClient) GetRepo(ctx context.Context, owner, name string) (*RepoInfo, error) {
	var info RepoInfo
	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&info).
		Get(fmt.Sprintf("%s/repos/%s/%s", g.baseURL, owner, name))
	if err != nil {
		return nil, fmt.Errorf("github repo request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github repo request: status %d", resp.StatusCode())
	}
	return &info, nil
}
