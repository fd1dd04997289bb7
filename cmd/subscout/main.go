// Command subscout runs the SubScout API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "subscout",
	Short: "Find the pain points of your users on Reddit",
	Long: `SubScout analyzes an app, discovers the subreddits its users talk in and
scans them for recurring pain points and feature requests.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
