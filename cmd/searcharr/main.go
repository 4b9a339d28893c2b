package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memohai/searcharr/internal/version"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "searcharr",
	Short: "Telegram bot for adding series, movies and books to Sonarr, Radarr and Readarr",
	Long: `Searcharr lets chat users search Sonarr, Radarr and Readarr and add what they
find through inline keyboards.

Running without a subcommand starts the bot.`,
	Version:       version.GetInfo(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to config.toml (default $CONFIG_PATH or config.toml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Searcharr %s\n", version.GetInfo())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
