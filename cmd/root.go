package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autochangelog",
	Short: "Autochangelog keeps a repository's CHANGELOG in sync with its releases",
	Long: `Autochangelog generates a CHANGELOG from the releases and commits of a GitHub
repository. Commits are grouped by conventional-commit type and scope under the
release they belong to, and releases already in the CHANGELOG are reused
instead of being rendered again.

Without a subcommand it runs "generate", which is how the GitHub Action invokes it.`,
	SilenceUsage: true,
	RunE:         runGenerate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("repository", "r", "", "GitHub repository name (e.g., 'owner/repo'), overrides REPO_NAME")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(localCmd)
}
