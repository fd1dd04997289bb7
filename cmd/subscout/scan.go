package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subscout/application/services"
	"subscout/domain/core/valueobjects"
	"subscout/infrastructure/config"
	"subscout/infrastructure/di"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan <subreddit>",
	Short: "Scan a subreddit's hot posts for pain points",
	Long: `Fetch the hot posts of a subreddit and print the pain points, feature
requests and common topics found in them. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := valueobjects.NewSubredditName(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger, err := di.ProvideLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		source := di.ProvidePostSource(cfg, nil, logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
		result := services.NewScanner(source, logger).Scan(cmd.Context(), name.String())

		if scanJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printScan(os.Stdout, name.String(), result)
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(scanCmd)
}

// printScan renders a scan result for the terminal
func printScan(w io.Writer, subreddit string, result services.ScanResult) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s\n\n", cyan(fmt.Sprintf("=== r/%s ===", subreddit)))

	section := func(title string, items []string) {
		fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("%s (%d):", title, len(items))))
		if len(items) == 0 {
			fmt.Fprintf(w, "  %s\n", gray("none"))
		}
		for _, item := range items {
			fmt.Fprintf(w, "  • %s\n", item)
		}
		fmt.Fprintln(w)
	}

	section("Pain points", result.PainPoints)
	section("Feature requests", result.FeatureRequests)
	section("Common topics", result.CommonTopics)

	fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("Hot posts (%d):", len(result.Posts))))
	if len(result.Posts) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("none"))
	}
	for _, post := range result.Posts {
		fmt.Fprintf(w, "  %s %s\n", gray(fmt.Sprintf("[%4d ↑ %3d 💬]", post.Score, post.Comments)), post.Title)
	}
}
