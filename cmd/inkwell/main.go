package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:           "inkwell",
	Short:         "Render markup snippets to PNG",
	Long:          `inkwell compiles small markup snippets into PNG images and reports diagnostics relative to the input text`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(serveCmd)

	// 全局标志
	rootCmd.PersistentFlags().String("config", "", "path to inkwell.toml (default: ./inkwell.toml if present)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable development logging")
	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
