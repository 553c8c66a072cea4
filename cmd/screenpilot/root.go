package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "screenpilot",
	Short: "Visual desktop automation driven by on-screen template matching",
	Long: "Screenpilot drives the desktop from an ordered list of automation steps:\n" +
		"mouse and keyboard injection, delays, screenshots, and clicks targeted by\n" +
		"locating template images on the live screen.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
