// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/autochangelog/internal/config"
	"github.com/danielolaszy/autochangelog/internal/logging"
	"github.com/danielolaszy/autochangelog/pkg/models"
)

const perPage = 100

// Client encapsulates the GitHub API client for a single repository.
type Client struct {
	client        *github.Client
	owner         string
	repo          string
	defaultBranch string
}

// apiURLForDomain returns the REST endpoint of github.com or of a GitHub
// Enterprise server.
func apiURLForDomain(domain string) string {
	if domain == "" || domain == config.DefaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// NewClient creates a GitHub API client for the repository ("owner/repo").
// It authenticates with the configured token, points the client at the
// configured domain, and checks that the repository is accessible.
func NewClient(ctx context.Context, cfg config.GitHubConfig, repository string) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	apiURL := apiURLForDomain(cfg.Domain)
	logging.Info("github configuration",
		"domain", cfg.Domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.Token))

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if cfg.Domain != "" && cfg.Domain != config.DefaultDomain {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	return newClient(ctx, client, repository)
}

func newClient(ctx context.Context, client *github.Client, repository string) (*Client, error) {
	owner, repo, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}

	r, resp, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		err = wrapError(err, resp)
		logging.Error("failed to access github repository",
			"repository", repository,
			"error", err)
		return nil, fmt.Errorf("failed to access repository %s: %w", repository, err)
	}

	logging.Info("github repository found",
		"repository", repository,
		"default_branch", r.GetDefaultBranch())

	return &Client{
		client:        client,
		owner:         owner,
		repo:          repo,
		defaultBranch: r.GetDefaultBranch(),
	}, nil
}

func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// DefaultBranch returns the repository's default branch.
func (c *Client) DefaultBranch() string {
	return c.defaultBranch
}

// paginate calls fetch for every page of a list endpoint and concatenates
// the results.
func paginate[T any](fetch func(opts github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	opts := github.ListOptions{PerPage: perPage}
	var all []T
	for {
		items, resp, err := fetch(opts)
		if err != nil {
			return nil, wrapError(err, resp)
		}
		all = append(all, items...)

		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListReleases retrieves the published releases of the repository, most
// recent first. Draft releases are skipped since their tag may not exist yet.
func (c *Client) ListReleases(ctx context.Context) ([]models.Release, error) {
	releases, err := paginate(func(opts github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error) {
		return c.client.Repositories.ListReleases(ctx, c.owner, c.repo, &opts)
	})
	if err != nil {
		logging.Error("failed to fetch github releases", "error", err)
		return nil, fmt.Errorf("failed to fetch releases: %w", err)
	}

	result := make([]models.Release, 0, len(releases))
	for _, release := range releases {
		if release.GetDraft() {
			logging.Debug("skipping draft release", "tag", release.GetTagName())
			continue
		}
		result = append(result, models.Release{
			TagName:     release.GetTagName(),
			URL:         release.GetHTMLURL(),
			Description: release.GetBody(),
			CreatedAt:   release.GetCreatedAt().Time,
		})
	}

	logging.Debug("fetched releases", "count", len(result))
	return result, nil
}

// ListTagCommits maps every tag of the repository to the SHA of the commit
// it points to.
func (c *Client) ListTagCommits(ctx context.Context) (map[string]string, error) {
	tags, err := paginate(func(opts github.ListOptions) ([]*github.RepositoryTag, *github.Response, error) {
		return c.client.Repositories.ListTags(ctx, c.owner, c.repo, &opts)
	})
	if err != nil {
		logging.Error("failed to fetch github tags", "error", err)
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}

	result := make(map[string]string, len(tags))
	for _, tag := range tags {
		result[tag.GetName()] = tag.GetCommit().GetSHA()
	}
	return result, nil
}

// ListCommits retrieves the commits reachable from branch, most recent
// first. If the branch does not exist or has no commits, the default branch
// is used instead. It returns ErrNotFound if that has no commits either.
func (c *Client) ListCommits(ctx context.Context, branch string) ([]models.Commit, error) {
	commits, err := c.listCommits(ctx, branch)
	if err == nil {
		return commits, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch commits of %s: %w", branch, err)
	}

	logging.Warn("no commits found on branch, using the default branch",
		"branch", branch,
		"default_branch", c.defaultBranch)
	commits, err = c.listCommits(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commits of the default branch: %w", err)
	}
	return commits, nil
}

func (c *Client) listCommits(ctx context.Context, branch string) ([]models.Commit, error) {
	commits, err := paginate(func(opts github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
		return c.client.Repositories.ListCommits(ctx, c.owner, c.repo, &github.CommitsListOptions{
			SHA:         branch,
			ListOptions: opts,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("no commits on branch %q: %w", branch, ErrNotFound)
	}

	result := make([]models.Commit, 0, len(commits))
	for _, commit := range commits {
		result = append(result, models.Commit{
			SHA:     commit.GetSHA(),
			Message: strings.ReplaceAll(commit.GetCommit().GetMessage(), "\r\n", "\n"),
			URL:     commit.GetHTMLURL(),
		})
	}

	logging.Debug("fetched commits", "branch", branch, "count", len(result))
	return result, nil
}

// PullRequestsForCommit retrieves the pull requests associated with a commit.
func (c *Client) PullRequestsForCommit(ctx context.Context, sha string) ([]models.PullRequestLink, error) {
	pulls, err := paginate(func(opts github.ListOptions) ([]*github.PullRequest, *github.Response, error) {
		return c.client.PullRequests.ListPullRequestsWithCommit(ctx, c.owner, c.repo, sha, &github.PullRequestListOptions{
			ListOptions: opts,
		})
	})
	if err != nil {
		return nil, err
	}

	links := make([]models.PullRequestLink, 0, len(pulls))
	for _, pull := range pulls {
		links = append(links, models.PullRequestLink{
			Number: pull.GetNumber(),
			URL:    pull.GetHTMLURL(),
		})
	}
	return links, nil
}
