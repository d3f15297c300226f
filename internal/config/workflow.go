package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/autochangelog/internal/logging"
)

// ActionName identifies the workflow step that runs the changelog action.
const ActionName = "auto-generate-changelog"

var secretReference = regexp.MustCompile(`^\$\{\{\s*secrets\.`)

// WorkflowOptions supplies the values a workflow file cannot provide when
// running locally.
type WorkflowOptions struct {
	// Token replaces an ACCESS_TOKEN that refers to a workflow secret.
	Token string

	// Repository overrides REPO_NAME when set.
	Repository string

	// DetectRepository is called when no repository is configured.
	DetectRepository func() (string, error)

	// Prompt asks the user for a required input that is still missing.
	Prompt func(key string) (string, error)
}

type workflowFile struct {
	Jobs yaml.Node `yaml:"jobs"`
}

type workflowJob struct {
	Steps []workflowStep `yaml:"steps"`
}

type workflowStep struct {
	Uses string         `yaml:"uses"`
	With map[string]any `yaml:"with"`
}

// LoadWorkflowConfig loads configuration from the inputs of the changelog
// step of a GitHub Actions workflow file. Environment variables fill in
// inputs the step does not set.
func LoadWorkflowConfig(path string, opts WorkflowOptions) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	inputs, err := stepInputs(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, err)
	}

	v := newViper()
	for key, value := range inputs {
		if value == nil || value == "" {
			continue
		}
		v.Set(key, value)
	}

	token := v.GetString(KeyAccessToken)
	if token == "" || secretReference.MatchString(token) {
		token, err = resolve(KeyAccessToken, opts.Token, nil, opts.Prompt)
		if err != nil {
			return nil, err
		}
		v.Set(KeyAccessToken, token)
	}

	repository := opts.Repository
	if repository == "" {
		repository = v.GetString(KeyRepoName)
	}
	if repository == "" {
		repository, err = resolve(KeyRepoName, "", opts.DetectRepository, opts.Prompt)
		if err != nil {
			return nil, err
		}
	}
	v.Set(KeyRepoName, repository)

	logging.Debug("loaded workflow inputs", "path", path, "inputs", len(inputs))
	return fromViper(v)
}

// stepInputs returns the "with:" inputs of the first step using the action,
// in job order.
func stepInputs(data []byte) (map[string]any, error) {
	var file workflowFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Jobs.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("no jobs defined")
	}

	for i := 1; i < len(file.Jobs.Content); i += 2 {
		var job workflowJob
		if err := file.Jobs.Content[i].Decode(&job); err != nil {
			return nil, fmt.Errorf("job %s: %w", file.Jobs.Content[i-1].Value, err)
		}
		for _, step := range job.Steps {
			if !strings.Contains(step.Uses, ActionName) {
				continue
			}
			inputs := make(map[string]any, len(step.With))
			for key, value := range step.With {
				inputs[strings.ToUpper(key)] = value
			}
			return inputs, nil
		}
	}
	return nil, fmt.Errorf("no step uses %s", ActionName)
}

// resolve returns the first non-empty value of: the given value, the
// detector, and the prompt.
func resolve(key, value string, detect func() (string, error), prompt func(string) (string, error)) (string, error) {
	if value != "" {
		return value, nil
	}
	if detect != nil {
		detected, err := detect()
		if err != nil {
			logging.Warn("failed to detect input", "input", key, "error", err)
		} else if detected != "" {
			logging.Info("detected input", "input", key, "value", detected)
			return detected, nil
		}
	}
	if prompt == nil {
		return "", nil
	}
	answer, err := prompt(key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return strings.TrimSpace(answer), nil
}
