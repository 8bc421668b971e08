// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/citystats/github-harvest/internal/config"
	"github.com/citystats/github-harvest/internal/domain"
	"github.com/citystats/github-harvest/internal/export"
	"github.com/citystats/github-harvest/internal/gateway"
	"github.com/citystats/github-harvest/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Searches GitHub users and collects their profiles and repositories",
	Long: `Collect searches GitHub users with the given query, fetches each matching
user's full profile and repositories (capped per user), and writes the
collected records to the output directory. Users or repository listings
that cannot be fetched are recorded as failures instead of aborting the
run.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// Get the verbose flag from the root command to set up the loggers.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Level:           level,
		})
		// The pipeline narrates through a standard library logger; route it
		// to the debug level so it only shows up with --verbose.
		pipelineLog := logger.StandardLog(charmlog.StandardLogOptions{
			ForceLevel: charmlog.DebugLevel,
		})

		query, _ := cmd.Flags().GetString("query")
		outDir, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		configPath, _ := cmd.Flags().GetString("config")

		if format != "csv" && format != "json" {
			logger.Error("Unknown output format, want csv or json", "format", format)
			os.Exit(1)
		}

		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			logger.Error("GITHUB_TOKEN environment variable is not set")
			os.Exit(1)
		}

		cfg := config.Default()
		if configPath != "" {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				logger.Error("Failed to load config", "path", configPath, "err", err)
				os.Exit(1)
			}
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(token, gateway.Config{
			MaxAttempts:    cfg.MaxAttempts,
			RetryDelay:     cfg.RetryDelay,
			AttemptTimeout: cfg.AttemptTimeout,
			SearchPerPage:  cfg.SearchPerPage,
			RepoPerPage:    cfg.RepoPerPage,
		}, pipelineLog)
		if err != nil {
			logger.Error("Failed to create GitHub gateway", "err", err)
			os.Exit(1)
		}
		collector := usecase.NewCollector(githubGateway, cfg.RepositoryCap, pipelineLog)

		logger.Info("Starting collection", "query", query)
		result, err := collector.Run(ctx, query)
		if err != nil {
			var quotaErr *domain.QuotaExhaustedError
			switch {
			case errors.As(err, &quotaErr):
				logger.Error("API quota exhausted, try again later",
					"resets_at", quotaErr.ResetAt.Format(time.RFC3339))
			case ctx.Err() != nil:
				logger.Error("Collection interrupted", "err", err)
				os.Exit(130) // 128 + SIGINT
			default:
				logger.Error("Collection failed", "err", err)
			}
			os.Exit(1)
		}
		logger.Info("Collection finished",
			"users", len(result.Users),
			"repositories", len(result.Repositories),
			"failures", len(result.Failures))

		switch format {
		case "csv":
			err = export.CSV(outDir, result)
		case "json":
			err = export.JSON(outDir, result)
		}
		if err != nil {
			logger.Error("Failed to write output", "err", err)
			os.Exit(1)
		}
		logger.Info("Wrote output", "dir", outDir, "format", format)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringP("query", "q", "", `User search query, e.g. "location:berlin followers:>100" (required)`)
	collectCmd.MarkFlagRequired("query")
	collectCmd.Flags().StringP("out", "o", "data", "Directory the collected files are written to")
	collectCmd.Flags().StringP("format", "f", "csv", "Output format: csv or json")
	collectCmd.Flags().StringP("config", "c", "", "Path to a TOML config file")
}
