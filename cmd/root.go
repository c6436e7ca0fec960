package cmd

import (
	"errors"
	"os"

	"github.com/edigermatthew/wonder-alt/host/app"
	"github.com/edigermatthew/wonder-alt/host/config"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.ini"

// NewRootCommand builds the wonder-alt command tree.
func NewRootCommand(build app.BuildInfo) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "wonder-alt",
		Short: "Generate image alt text from attachment titles",
		Long: "wonder-alt fills in missing image alt text from attachment titles.\n\n" +
			"Run the media library service with 'serve', fix up an existing\n" +
			"WordPress site with 'backfill', or try titles out with 'normalize'.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file (ini, yaml, toml or json)")

	root.AddCommand(
		newServeCmd(&configPath, build),
		newNormalizeCmd(),
		newBackfillCmd(&configPath),
		newVersionCmd(build),
	)
	return root
}

// Execute runs the root command.
func Execute(build app.BuildInfo) error {
	return NewRootCommand(build).Execute()
}

// loadConfig reads path, falling back to defaults when the default config
// file is absent.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Load("")
		}
	}
	return config.Load(path)
}
