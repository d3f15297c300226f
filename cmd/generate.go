package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/autochangelog/internal/config"
	"github.com/danielolaszy/autochangelog/internal/github"
	"github.com/danielolaszy/autochangelog/internal/logging"
)

// generateCmd regenerates the changelog and commits it to the repository.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the CHANGELOG and commit it to the repository",
	Long: `Generate the CHANGELOG and commit it to the repository.

Configuration is read from the GitHub Actions inputs (INPUT_* environment variables):

  ACCESS_TOKEN                token used to read the repository and push the CHANGELOG
  REPO_NAME                   owner/repo, defaults to GITHUB_REPOSITORY
  PATH                        path of the CHANGELOG file
  BRANCH                      branch to commit to, defaults to the default branch
  PULL_REQUEST                open a pull request from BRANCH into this branch
  COMMIT_MESSAGE              message of the CHANGELOG commit
  COMMITTER                   "Name email" of the committer
  TYPE                        comma separated type:Heading pairs, e.g. feat:Feature
  DEFAULT_SCOPE               scope of commits without one
  SUPPRESS_UNSCOPED           leave out commits without a scope
  UNRELEASED_COMMITS          add an Unreleased section
  REGENERATE_COUNT            number of recent releases to render again, -1 for all
  REPLACE_EMPTY_RELEASE_INFO  text of releases without a description

The CHANGELOG is only committed when its content changes.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	repository, err := cmd.Flags().GetString("repository")
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(config.WithRepository(repository))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()
	client, err := github.NewClient(ctx, cfg.GitHub, cfg.Repository)
	if err != nil {
		return fmt.Errorf("failed to initialize github client: %w", err)
	}

	logging.Info("generating changelog",
		"repository", cfg.Repository,
		"path", cfg.Path,
		"branch", cfg.Branch,
		"pull_request", cfg.PullRequest)

	result, existing, err := generateChangelog(ctx, client, cfg)
	if err != nil {
		return err
	}

	if err := writeChangelog(ctx, client, cfg, existing, result.Changelog()); err != nil {
		return err
	}

	logging.Info("changelog generation complete",
		"regenerated", result.Regenerated,
		"remaining", result.Remaining)
	return nil
}
