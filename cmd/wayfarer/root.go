package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seranno/wayfarer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wayfarer",
	Short: "Wayfarer tracks readers' paths through branching stories",
	Long: `Wayfarer serves branching markdown stories and records each reader's
paths through them: extending, forking and merging history records as the
reader moves.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "wayfarer.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringP("stories", "s", "", "Directory containing the story repository (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("stories"); dir != "" {
		cfg.StoryDir = dir
	}
	return cfg, nil
}
