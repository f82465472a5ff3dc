package cli

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:          "quiz-api",
		Short:        "Quiz authoring and scoring API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "HTTP listen port (env PORT, else server.port, else 8080)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "YAML config file (env CONFIG_PATH); optional when settings come from the environment")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
