package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorkflow = `name: Generate changelog
on:
  release:
    types: [published]
jobs:
  lint:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
  changelog:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: BobAnkh/auto-generate-changelog@v1.2.5
        with:
          REPO_NAME: 'octo/cat'
          ACCESS_TOKEN: ${{secrets.GITHUB_TOKEN}}
          PATH: 'CHANGES.md'
          COMMIT_MESSAGE: 'docs(CHANGELOG): update'
          TYPE: 'feat:Feature,fix:Fix'
          REGENERATE_COUNT: -1
          UNRELEASED_COMMITS: true
          SUPPRESS_UNSCOPED: ''
`

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "changelog.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWorkflowConfig(t *testing.T) {
	clearInputs(t)
	path := writeWorkflow(t, sampleWorkflow)

	config, err := LoadWorkflowConfig(path, WorkflowOptions{Token: "flag-token"})
	require.NoError(t, err)

	assert.Equal(t, "flag-token", config.GitHub.Token)
	assert.Equal(t, "octo/cat", config.Repository)
	assert.Equal(t, "CHANGES.md", config.Path)
	assert.Equal(t, "docs(CHANGELOG): update", config.CommitMessage)
	assert.Equal(t, []string{"feat:Feature", "fix:Fix"}, config.Types)
	assert.Equal(t, -1, config.RegenerateCount)
	assert.True(t, config.UnreleasedCommits)
	assert.False(t, config.SuppressUnscoped)
	assert.Equal(t, DefaultScope, config.DefaultScope)
}

func TestLoadWorkflowConfigPrompts(t *testing.T) {
	clearInputs(t)
	path := writeWorkflow(t, `jobs:
  changelog:
    steps:
      - uses: BobAnkh/auto-generate-changelog@master
        with:
          ACCESS_TOKEN: ${{ secrets.TOKEN }}
`)

	var asked []string
	prompt := func(key string) (string, error) {
		asked = append(asked, key)
		return " answer-" + key + "\n", nil
	}
	detect := func() (string, error) {
		return "", errors.New("not a git repository")
	}

	_, err := LoadWorkflowConfig(path, WorkflowOptions{Prompt: prompt, DetectRepository: detect})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid repository format: answer-REPO_NAME")
	assert.Equal(t, []string{KeyAccessToken, KeyRepoName}, asked)

	config, err := LoadWorkflowConfig(path, WorkflowOptions{
		Prompt:           prompt,
		DetectRepository: func() (string, error) { return "detected/repo", nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "detected/repo", config.Repository)
	assert.Equal(t, "answer-ACCESS_TOKEN", config.GitHub.Token)
}

func TestLoadWorkflowConfigRepositoryOverride(t *testing.T) {
	clearInputs(t)
	path := writeWorkflow(t, sampleWorkflow)

	config, err := LoadWorkflowConfig(path, WorkflowOptions{Token: "t", Repository: "other/repo"})
	require.NoError(t, err)
	assert.Equal(t, "other/repo", config.Repository)
}

func TestLoadWorkflowConfigErrors(t *testing.T) {
	clearInputs(t)

	_, err := LoadWorkflowConfig(filepath.Join(t.TempDir(), "missing.yml"), WorkflowOptions{})
	assert.Error(t, err)

	path := writeWorkflow(t, "jobs:\n  build:\n    steps:\n      - uses: actions/checkout@v4\n")
	_, err = LoadWorkflowConfig(path, WorkflowOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no step uses "+ActionName)

	path = writeWorkflow(t, "name: empty\n")
	_, err = LoadWorkflowConfig(path, WorkflowOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no jobs defined")
}
