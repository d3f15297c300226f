package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/danielolaszy/autochangelog/internal/config"
	"github.com/danielolaszy/autochangelog/internal/github"
	"github.com/danielolaszy/autochangelog/internal/gitremote"
	"github.com/danielolaszy/autochangelog/internal/logging"
)

// localCmd renders the changelog into a local file for trying out a configuration.
var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Generate the CHANGELOG into a local file",
	Long: `Generate the CHANGELOG into a local file without committing anything.

The inputs are read from the auto-generate-changelog step of a workflow file.
An ACCESS_TOKEN referring to a workflow secret is replaced by --token, and a
missing REPO_NAME is taken from the origin remote of the current git checkout.
Inputs that are still missing are asked for on the terminal.

Example:
  autochangelog local -f .github/workflows/changelog.yml -o local-dev.md -t $GITHUB_TOKEN`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowPath, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		token, err := cmd.Flags().GetString("token")
		if err != nil {
			return err
		}
		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}

		cfg, err := config.LoadWorkflowConfig(workflowPath, config.WorkflowOptions{
			Token:      token,
			Repository: repository,
			DetectRepository: func() (string, error) {
				return gitremote.Repository("", gitremote.DefaultRemote)
			},
			Prompt: newPrompt(cmd.InOrStdin(), cmd.OutOrStdout()),
		})
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := cmd.Context()
		client, err := github.NewClient(ctx, cfg.GitHub, cfg.Repository)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		result, _, err := generateChangelog(ctx, client, cfg)
		if err != nil {
			return err
		}

		if err := os.WriteFile(output, []byte(result.Changelog()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}

		logging.Info("wrote changelog",
			"output", output,
			"regenerated", result.Regenerated,
			"remaining", result.Remaining)

		green := color.New(color.FgGreen, color.Bold).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("✓"), output)
		return nil
	},
}

func init() {
	localCmd.Flags().StringP("file", "f", ".github/workflows/changelog.yml", "workflow file to read the inputs from")
	localCmd.Flags().StringP("output", "o", "local-dev.md", "file to write the CHANGELOG to")
	localCmd.Flags().StringP("token", "t", "", "GitHub access token")
}

// newPrompt asks for an input on out and reads one line from in. The access
// token is read without echo when in is a terminal.
func newPrompt(in io.Reader, out io.Writer) func(key string) (string, error) {
	reader := bufio.NewReader(in)
	bold := color.New(color.Bold).SprintFunc()
	return func(key string) (string, error) {
		fmt.Fprintf(out, "Please input the value of %s: ", bold(key))

		if f, ok := in.(*os.File); ok && key == config.KeyAccessToken && term.IsTerminal(int(f.Fd())) {
			secret, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(secret), err
		}

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		return line, nil
	}
}
