// Package cmd provides the command-line interface for the autochangelog tool.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielolaszy/autochangelog/internal/changelog"
	"github.com/danielolaszy/autochangelog/internal/config"
	"github.com/danielolaszy/autochangelog/internal/github"
	"github.com/danielolaszy/autochangelog/internal/logging"
	"github.com/danielolaszy/autochangelog/pkg/models"
)

// repositoryClient is the part of the GitHub client the commands use.
type repositoryClient interface {
	DefaultBranch() string
	ListReleases(ctx context.Context) ([]models.Release, error)
	ListTagCommits(ctx context.Context) (map[string]string, error)
	ListCommits(ctx context.Context, branch string) ([]models.Commit, error)
	PullRequestsForCommit(ctx context.Context, sha string) ([]models.PullRequestLink, error)
	GetFile(ctx context.Context, path, branch string) (*models.RepositoryFile, error)
	CreateFile(ctx context.Context, path, branch, message, content string, author *models.Author) error
	UpdateFile(ctx context.Context, path, branch, sha, message, content string, author *models.Author) error
	CreateBranch(ctx context.Context, branch, base string) error
	CreatePullRequest(ctx context.Context, head, base, title, body string) (*models.PullRequestLink, error)
}

// existingChangelog is the changelog file as found in the repository.
type existingChangelog struct {
	// file is nil when the changelog does not exist yet.
	file   *models.RepositoryFile
	blocks map[string]string
}

// readChangelog fetches and parses the current changelog. A missing file
// yields an empty changelog; a malformed one is logged and treated as empty.
func readChangelog(ctx context.Context, client repositoryClient, cfg *config.Config) (*existingChangelog, error) {
	file, err := client.GetFile(ctx, cfg.Path, cfg.Branch)
	if errors.Is(err, github.ErrNotFound) {
		logging.Info("changelog does not exist yet", "path", cfg.Path, "branch", cfg.Branch)
		return &existingChangelog{blocks: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}

	blocks, err := changelog.ParseDocument(file.Content)
	if err != nil {
		logging.Warn("the changelog is not in the correct format, it will be regenerated",
			"path", file.Path,
			"error", err)
	}

	logging.Info("found existing changelog", "path", file.Path, "releases", len(blocks))
	return &existingChangelog{file: file, blocks: blocks}, nil
}

// generateChangelog collects releases, tags, and commits and reconciles them
// with the existing changelog. A reconciliation that stopped early is not an
// error: the releases rendered so far are still in the result.
func generateChangelog(ctx context.Context, client repositoryClient, cfg *config.Config) (*changelog.Result, *existingChangelog, error) {
	if cfg.Branch == "" {
		cfg.Branch = client.DefaultBranch()
	}

	existing, err := readChangelog(ctx, client, cfg)
	if err != nil {
		return nil, nil, err
	}

	releases, err := client.ListReleases(ctx)
	if err != nil {
		return nil, nil, err
	}

	tags, err := client.ListTagCommits(ctx)
	if err != nil {
		return nil, nil, err
	}

	commits, err := client.ListCommits(ctx, cfg.Branch)
	if err != nil {
		return nil, nil, err
	}

	logging.Info("collected repository history",
		"repository", cfg.Repository,
		"releases", len(releases),
		"tags", len(tags),
		"commits", len(commits))

	engine := changelog.NewEngine(cfg.Changelog(), client)
	result := engine.Reconcile(ctx, changelog.Input{
		Releases:   releases,
		TagCommits: tags,
		Previous:   existing.blocks,
		Commits:    commits,
	})
	if result.Err != nil {
		logging.Warn("changelog is only partially regenerated", "error", result.Err)
	}

	return result, existing, nil
}

// writeChangelog commits the document unless it is unchanged, creating the
// branch from the pull request target when it does not exist, and opens a
// pull request if one is configured.
func writeChangelog(ctx context.Context, client repositoryClient, cfg *config.Config, existing *existingChangelog, doc string) error {
	if existing.file != nil && existing.file.Content == doc {
		logging.Warn("same changelog, not pushing", "path", existing.file.Path)
		return nil
	}

	if existing.file != nil {
		logging.Info("updating changelog", "path", existing.file.Path, "branch", cfg.Branch)
		if err := client.UpdateFile(ctx, existing.file.Path, cfg.Branch, existing.file.SHA, cfg.CommitMessage, doc, cfg.Committer); err != nil {
			return err
		}
	} else {
		logging.Info("creating changelog", "path", cfg.Path, "branch", cfg.Branch)
		if err := createChangelog(ctx, client, cfg, doc); err != nil {
			return err
		}
	}

	if cfg.PullRequest == "" || cfg.PullRequest == cfg.Branch {
		return nil
	}

	logging.Info("creating pull request", "head", cfg.Branch, "base", cfg.PullRequest)
	_, err := client.CreatePullRequest(ctx, cfg.Branch, cfg.PullRequest, cfg.CommitMessage, cfg.CommitMessage)
	return err
}

func createChangelog(ctx context.Context, client repositoryClient, cfg *config.Config, doc string) error {
	err := client.CreateFile(ctx, cfg.Path, cfg.Branch, cfg.CommitMessage, doc, cfg.Committer)
	if !errors.Is(err, github.ErrNotFound) {
		return err
	}

	logging.Info("branch does not exist, creating it", "branch", cfg.Branch, "base", cfg.PullRequest)
	if err := client.CreateBranch(ctx, cfg.Branch, cfg.PullRequest); err != nil {
		return err
	}

	file, err := client.GetFile(ctx, cfg.Path, cfg.Branch)
	if errors.Is(err, github.ErrNotFound) {
		return client.CreateFile(ctx, cfg.Path, cfg.Branch, cfg.CommitMessage, doc, cfg.Committer)
	}
	if err != nil {
		return fmt.Errorf("failed to read changelog on new branch: %w", err)
	}
	return client.UpdateFile(ctx, file.Path, cfg.Branch, file.SHA, cfg.CommitMessage, doc, cfg.Committer)
}
