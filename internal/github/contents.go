package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v41/github"

	"github.com/danielolaszy/autochangelog/internal/logging"
	"github.com/danielolaszy/autochangelog/pkg/models"
)

// GetFile retrieves a file at branch. An empty branch means the default
// branch. It returns an error matching ErrNotFound if the file does not exist.
func (c *Client) GetFile(ctx context.Context, path, branch string) (*models.RepositoryFile, error) {
	content, _, resp, err := c.client.Repositories.GetContents(ctx, c.owner, c.repo, path, &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, wrapError(err, resp))
	}
	if content == nil {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &models.RepositoryFile{
		Path:    content.GetPath(),
		SHA:     content.GetSHA(),
		Content: decoded,
	}, nil
}

// CreateFile commits a new file to branch.
func (c *Client) CreateFile(ctx context.Context, path, branch, message, content string, author *models.Author) error {
	opts := fileOptions(branch, message, content, author)

	_, resp, err := c.client.Repositories.CreateFile(ctx, c.owner, c.repo, path, opts)
	if err != nil {
		err = wrapError(err, resp)
		logging.Error("error creating file", "path", path, "branch", branch, "error", err)
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	logging.Info("created file", "path", path, "branch", branch)
	return nil
}

// UpdateFile commits new content for an existing file whose blob SHA is sha.
func (c *Client) UpdateFile(ctx context.Context, path, branch, sha, message, content string, author *models.Author) error {
	opts := fileOptions(branch, message, content, author)
	opts.SHA = github.String(sha)

	_, resp, err := c.client.Repositories.UpdateFile(ctx, c.owner, c.repo, path, opts)
	if err != nil {
		err = wrapError(err, resp)
		logging.Error("error updating file", "path", path, "branch", branch, "error", err)
		return fmt.Errorf("failed to update %s: %w", path, err)
	}

	logging.Info("updated file", "path", path, "branch", branch)
	return nil
}

func fileOptions(branch, message, content string, author *models.Author) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
	}
	if branch != "" {
		opts.Branch = github.String(branch)
	}
	if author != nil {
		commitAuthor := &github.CommitAuthor{
			Name:  github.String(author.Name),
			Email: github.String(author.Email),
		}
		opts.Author = commitAuthor
		opts.Committer = commitAuthor
	}
	return opts
}

// CreateBranch creates branch pointing at the tip of base.
func (c *Client) CreateBranch(ctx context.Context, branch, base string) error {
	if base == "" {
		base = c.defaultBranch
	}

	baseRef, resp, err := c.client.Git.GetRef(ctx, c.owner, c.repo, "heads/"+base)
	if err != nil {
		return fmt.Errorf("failed to get branch %s: %w", base, wrapError(err, resp))
	}

	_, resp, err = c.client.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref: github.String("refs/heads/" + branch),
		Object: &github.GitObject{
			SHA: baseRef.GetObject().SHA,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, wrapError(err, resp))
	}

	logging.Info("created branch", "branch", branch, "base", base, "sha", baseRef.GetObject().GetSHA())
	return nil
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, head, base, title, body string) (*models.PullRequestLink, error) {
	pull, resp, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title:               github.String(title),
		Head:                github.String(head),
		Base:                github.String(base),
		Body:                github.String(body),
		MaintainerCanModify: github.Bool(true),
		Draft:               github.Bool(false),
	})
	if err != nil {
		err = wrapError(err, resp)
		logging.Error("error creating pull request", "head", head, "base", base, "error", err)
		return nil, fmt.Errorf("failed to create pull request from %s to %s: %w", head, base, err)
	}

	logging.Info("created pull request", "number", pull.GetNumber(), "url", pull.GetHTMLURL())
	return &models.PullRequestLink{Number: pull.GetNumber(), URL: pull.GetHTMLURL()}, nil
}
