package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version, build information, and runtime details.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("omc version %s\n", version)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
