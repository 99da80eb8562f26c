package cmd

import (
	"os"

	"github.com/SummittDweller/cb-file-finder/internal/findcmd"
	"github.com/SummittDweller/cb-file-finder/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "cb-file-finder",
		Short: "Fuzzy-match spreadsheet filenames to files on disk and migrate them to object storage",
		Long: `cb-file-finder reconciles a list of expected filenames kept in a Google Sheet against the
files actually present in a large directory tree.

Each expected name is matched to its closest files, scored, and optionally copied to Azure Blob
or S3-compatible storage together with transcripts and generated thumbnails. The resulting URLs
can be written back into the sheet's CollectionBuilder columns.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if !cmd.Flags().Changed("log-level") {
				if v := os.Getenv("LOG_LEVEL"); v != "" {
					logLevel = v
				}
			}
			return logging.Setup(logging.Options{Level: logLevel, Format: logFormat})
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./cb-file-finder.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text or json, default depends on the terminal)")

	// Add subcommands
	cmd.AddCommand(findcmd.NewRunCmd())
	cmd.AddCommand(findcmd.NewSheetsCmd())
	cmd.AddCommand(findcmd.NewReportCmd())

	return cmd
}
