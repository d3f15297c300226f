// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/danielolaszy/autochangelog/internal/changelog"
	"github.com/danielolaszy/autochangelog/pkg/models"
)

// Input names, as used in the action's "with:" block. In remote mode each is
// read from the environment variable INPUT_<NAME>.
const (
	KeyAccessToken             = "ACCESS_TOKEN"
	KeyRepoName                = "REPO_NAME"
	KeyPath                    = "PATH"
	KeyBranch                  = "BRANCH"
	KeyPullRequest             = "PULL_REQUEST"
	KeyCommitMessage           = "COMMIT_MESSAGE"
	KeyCommitter               = "COMMITTER"
	KeyType                    = "TYPE"
	KeyDefaultScope            = "DEFAULT_SCOPE"
	KeySuppressUnscoped        = "SUPPRESS_UNSCOPED"
	KeyUnreleasedCommits       = "UNRELEASED_COMMITS"
	KeyRegenerateCount         = "REGENERATE_COUNT"
	KeyReplaceEmptyReleaseInfo = "REPLACE_EMPTY_RELEASE_INFO"

	keyGitHubRepository = "github_repository"
	keyGitHubDomain     = "github_domain"
)

// Defaults for optional inputs.
const (
	DefaultPath                    = "CHANGELOG.md"
	DefaultCommitMessage           = "docs(CHANGELOG): update release notes"
	DefaultType                    = "feat:Feature,fix:Bug Fixes,docs:Documentation,refactor:Refactor,perf:Performance Improvements"
	DefaultScope                   = "general"
	DefaultReplaceEmptyReleaseInfo = "The release note of this version is empty"
	DefaultDomain                  = "github.com"
)

var typeSeparator = regexp.MustCompile(`\s?,\s?`)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub GitHubConfig

	// Repository is the "owner/repo" the changelog is generated for.
	Repository string
	// Path of the changelog file in the repository.
	Path string
	// Branch the changelog is read from and committed to. Empty means the
	// repository's default branch.
	Branch string
	// PullRequest is the target branch of a pull request opened from Branch.
	// Empty means no pull request is opened.
	PullRequest   string
	CommitMessage string
	// Committer is nil when the API's default author should be used.
	Committer *models.Author

	Types                   []string
	DefaultScope            string
	SuppressUnscoped        bool
	UnreleasedCommits       bool
	RegenerateCount         int
	ReplaceEmptyReleaseInfo string

	sections []changelog.Section
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// Option adjusts configuration before it is validated.
type Option func(v *viper.Viper)

// WithRepository overrides REPO_NAME unless repository is empty.
func WithRepository(repository string) Option {
	return func(v *viper.Viper) {
		if repository != "" {
			v.Set(KeyRepoName, repository)
		}
	}
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig(opts ...Option) (*Config, error) {
	v := newViper()
	for _, opt := range opts {
		opt(v)
	}
	return fromViper(v)
}

// newViper returns a viper instance reading INPUT_* environment variables
// with defaults for every optional input.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INPUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv(keyGitHubRepository, "GITHUB_REPOSITORY")
	v.BindEnv(keyGitHubDomain, "GITHUB_DOMAIN")

	v.SetDefault(KeyPath, DefaultPath)
	v.SetDefault(KeyCommitMessage, DefaultCommitMessage)
	v.SetDefault(KeyType, DefaultType)
	v.SetDefault(KeyDefaultScope, DefaultScope)
	v.SetDefault(KeySuppressUnscoped, false)
	v.SetDefault(KeyUnreleasedCommits, false)
	v.SetDefault(KeyRegenerateCount, 0)
	v.SetDefault(KeyReplaceEmptyReleaseInfo, DefaultReplaceEmptyReleaseInfo)
	v.SetDefault(keyGitHubDomain, DefaultDomain)

	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString(KeyAccessToken),
			Domain: v.GetString(keyGitHubDomain),
		},
		Repository:              v.GetString(KeyRepoName),
		Path:                    v.GetString(KeyPath),
		Branch:                  v.GetString(KeyBranch),
		PullRequest:             v.GetString(KeyPullRequest),
		CommitMessage:           v.GetString(KeyCommitMessage),
		DefaultScope:            v.GetString(KeyDefaultScope),
		ReplaceEmptyReleaseInfo: v.GetString(KeyReplaceEmptyReleaseInfo),
	}
	if config.Repository == "" {
		config.Repository = v.GetString(keyGitHubRepository)
	}
	if config.GitHub.Domain == "" {
		config.GitHub.Domain = DefaultDomain
	}

	var err error
	if config.SuppressUnscoped, err = cast.ToBoolE(v.Get(KeySuppressUnscoped)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeySuppressUnscoped, err)
	}
	if config.UnreleasedCommits, err = cast.ToBoolE(v.Get(KeyUnreleasedCommits)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyUnreleasedCommits, err)
	}
	if config.RegenerateCount, err = cast.ToIntE(v.Get(KeyRegenerateCount)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyRegenerateCount, err)
	}
	if config.Committer, err = ParseCommitter(v.GetString(KeyCommitter)); err != nil {
		return nil, err
	}

	if types := strings.TrimSpace(v.GetString(KeyType)); types != "" {
		config.Types = typeSeparator.Split(types, -1)
	}
	if config.sections, err = changelog.ParseSections(config.Types); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyType, err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, KeyAccessToken)
	}
	if config.Repository == "" {
		missingVars = append(missingVars, KeyRepoName)
	}
	if config.Path == "" {
		missingVars = append(missingVars, KeyPath)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required inputs: %v", missingVars)
	}

	if owner, repo, ok := strings.Cut(config.Repository, "/"); !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("invalid repository format: %s, expected format: owner/repo", config.Repository)
	}
	if len(config.sections) == 0 {
		return fmt.Errorf("%s must name at least one type", KeyType)
	}
	return nil
}

// ParseCommitter parses a "Name email" pair. The last field is the email,
// optionally in angle brackets, and everything before it is the name. An
// empty value yields a nil author.
func ParseCommitter(value string) (*models.Author, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid %s %q, expected format: Name email", KeyCommitter, value)
	}

	return &models.Author{
		Name:  strings.Join(fields[:len(fields)-1], " "),
		Email: strings.Trim(fields[len(fields)-1], "<>"),
	}, nil
}

// Changelog returns the options of the changelog engine.
func (c *Config) Changelog() changelog.Options {
	return changelog.Options{
		Sections:          c.sections,
		DefaultScope:      c.DefaultScope,
		SuppressUnscoped:  c.SuppressUnscoped,
		EmptyReleaseInfo:  c.ReplaceEmptyReleaseInfo,
		RegenerateCount:   c.RegenerateCount,
		IncludeUnreleased: c.UnreleasedCommits,
	}
}
