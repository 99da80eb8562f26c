package findcmd

import (
	"fmt"

	"github.com/SummittDweller/cb-file-finder/internal/config"
	"github.com/spf13/cobra"
)

// loadConfig reads the file named by the inherited --config flag
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewRunCmd creates the run command: search, then post-process
func NewRunCmd() *cobra.Command {
	var (
		sheet       string
		worksheet   string
		root        string
		pattern     string
		column      int
		skipRows    int
		useCache    bool
		transcripts bool
		upload      bool
		writeBack   bool
		thumbnails  bool
		smalls      bool
		outputCSV   string
		parquetOut  string
		summaryDir  string
		backend     string
		baseURL     string
		credentials string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Match expected filenames against a directory tree",
		Long: `Read a column of expected filenames from a Google Sheet (or the cached file-list.tmp),
find the closest matching file under the root directory for each one, and optionally copy the
matches, their transcripts and generated derivatives to object storage.

Every match is scored 0-100. Scores of 100 are exact, 90-99 are accepted with a warning, and
anything lower is reported but never copied.

With --write-back the resulting storage URLs are written into the CollectionBuilder columns
object_location, object_transcript, image_thumb and image_small of the worksheet.`,
		Example: `  # Dry run against a named sheet and path from cb-file-finder.yaml
  cb-file-finder run --sheet oral-history --root archive

  # Restrict candidates to files sharing the accession number, upload and write back
  cb-file-finder run --sheet oral-history --root archive --pattern 'dg_(\d+)' --upload --write-back

  # Re-run using the previously cached target list
  cb-file-finder run --cached --root /mnt/archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("column") {
				cfg.Column = column
			}
			if flags.Changed("skip-rows") {
				cfg.SkipRows = skipRows
			}
			if flags.Changed("backend") {
				cfg.Storage.Backend = backend
			}
			if flags.Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if flags.Changed("credentials") {
				cfg.Credentials = credentials
			}
			if flags.Changed("output-csv") {
				cfg.OutputCSV = outputCSV
			}
			if flags.Changed("summary-dir") {
				cfg.SummaryDir = summaryDir
			}

			cfg.Sheet = sheet
			cfg.Worksheet = worksheet
			cfg.Root = root
			cfg.Pattern = pattern
			cfg.UseCache = useCache
			cfg.Transcripts = transcripts
			cfg.Upload = upload
			cfg.WriteBack = writeBack
			cfg.Thumbnails = thumbnails
			cfg.Smalls = smalls
			cfg.Parquet = parquetOut

			if !useCache && sheet == "" {
				return fmt.Errorf("--sheet is required unless --cached is set")
			}

			return executeRun(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Google Sheet URL or a name from the config file")
	cmd.Flags().StringVar(&worksheet, "worksheet", "", "Worksheet title (defaults to the first worksheet)")
	cmd.Flags().StringVar(&root, "root", "", "Directory tree to search, or a name from the config file (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Significant-substring regex; only names sharing the first group are compared")
	cmd.Flags().IntVar(&column, "column", config.DefaultColumn, "1-based worksheet column holding the expected filenames")
	cmd.Flags().IntVar(&skipRows, "skip-rows", config.DefaultSkipRows, "Number of leading rows to skip")
	cmd.Flags().BoolVar(&useCache, "cached", false, "Read targets from file-list.tmp instead of the sheet")
	cmd.Flags().BoolVar(&transcripts, "transcripts", false, "Look for CSV, VTT, PDF or XML transcript files")
	cmd.Flags().BoolVar(&upload, "upload", false, "Copy accepted matches to object storage")
	cmd.Flags().BoolVar(&writeBack, "write-back", false, "Write storage URLs back into the worksheet")
	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "Generate and upload _TN.jpg thumbnails")
	cmd.Flags().BoolVar(&smalls, "smalls", false, "Generate and upload _SMALL.jpg images")
	cmd.Flags().StringVar(&outputCSV, "output-csv", "match-list.csv", "Match list CSV path (empty to disable)")
	cmd.Flags().StringVar(&parquetOut, "parquet", "", "Also export the match list as Parquet")
	cmd.Flags().StringVar(&summaryDir, "summary-dir", "runs", "Directory for YAML run summaries")
	cmd.Flags().StringVar(&backend, "backend", config.BackendAzure, "Storage backend (azure, s3 or memory)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL storage containers hang off")
	cmd.Flags().StringVar(&credentials, "credentials", "", "Google service account credentials file")

	_ = cmd.MarkFlagRequired("root")
	return cmd
}

// NewSheetsCmd creates the sheets command for exploring a spreadsheet
func NewSheetsCmd() *cobra.Command {
	var worksheet string
	var credentials string

	cmd := &cobra.Command{
		Use:   "sheets <sheet>",
		Short: "List worksheets and column headings of a Google Sheet",
		Long: `List the worksheets of a Google Sheet. With --worksheet, list that worksheet's column
headings with the 1-based numbers to pass to "run --column".`,
		Example: `  cb-file-finder sheets oral-history
  cb-file-finder sheets https://docs.google.com/spreadsheets/d/<id>/edit --worksheet Items`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if credentials != "" {
				cfg.Credentials = credentials
			}
			return executeSheets(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], worksheet)
		},
	}

	cmd.Flags().StringVar(&worksheet, "worksheet", "", "Worksheet whose headings to list")
	cmd.Flags().StringVar(&credentials, "credentials", "", "Google service account credentials file")

	return cmd
}

// NewReportCmd creates the report command for reviewing a saved match list
func NewReportCmd() *cobra.Command {
	var input string
	var format string
	var parquetOut string
	var maxScore int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a saved match list",
		Long:  `Render a match-list.csv (or a Parquet export) as a table with per-tier counts.`,
		Example: `  cb-file-finder report
  cb-file-finder report --input matches.parquet --max-score 99
  cb-file-finder report --format csv > reviewed.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), input, format, parquetOut, maxScore)
		},
	}

	cmd.Flags().StringVar(&input, "input", "match-list.csv", "Match list to read (.csv or .parquet)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table or csv)")
	cmd.Flags().StringVar(&parquetOut, "parquet", "", "Convert the match list to this Parquet file")
	cmd.Flags().IntVar(&maxScore, "max-score", 100, "Only list rows whose best score is at most this value")

	return cmd
}
