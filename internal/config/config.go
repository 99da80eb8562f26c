package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/routing"
	"github.com/SummittDweller/cb-file-finder/internal/scope"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when --config is not given
const DefaultFile = "cb-file-finder.yaml"

const (
	DefaultSkipRows = 1
	DefaultColumn   = 7

	// ModeCollectionBuilder writes URLs into the CollectionBuilder columns
	ModeCollectionBuilder = "CollectionBuilder"
)

// Storage backends
const (
	BackendAzure  = "azure"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrUnknownMode    = errors.New("unknown processing mode")
	ErrUnknownName    = errors.New("unknown name")
)

// Azure configures the Azure Blob backend. The connection string itself is
// read from the environment variable named by ConnectionStringEnv.
type Azure struct {
	ConnectionStringEnv string `yaml:"connection_string_env"`
}

// S3 configures an S3-compatible backend. Each container maps to a key
// prefix inside Bucket.
type S3 struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	PathStyle    bool   `yaml:"path_style"`
}

type Storage struct {
	Backend string `yaml:"backend"`
	Azure   Azure  `yaml:"azure"`
	S3      S3     `yaml:"s3"`
}

// Config is built once per run from the YAML file and command line flags
// and not modified afterwards.
type Config struct {
	BaseURL        string            `yaml:"base_url"`
	SkipRows       int               `yaml:"skip_rows"`
	Column         int               `yaml:"column"`
	Credentials    string            `yaml:"credentials"`
	ProcessingMode string            `yaml:"processing_mode"`
	Sheets         map[string]string `yaml:"sheets"`
	Paths          map[string]string `yaml:"paths"`
	Storage        Storage           `yaml:"storage"`

	// Per-run settings, normally supplied as flags
	Sheet       string `yaml:"-"`
	Worksheet   string `yaml:"-"`
	Root        string `yaml:"-"`
	Pattern     string `yaml:"-"`
	UseCache    bool   `yaml:"-"`
	Transcripts bool   `yaml:"-"`
	Upload      bool   `yaml:"-"`
	WriteBack   bool   `yaml:"-"`
	Thumbnails  bool   `yaml:"-"`
	Smalls      bool   `yaml:"-"`
	OutputCSV   string `yaml:"-"`
	Parquet     string `yaml:"-"`
	SummaryDir  string `yaml:"-"`
}

// Default returns the settings used when no config file is present
func Default() Config {
	return Config{
		BaseURL:        routing.DefaultBaseURL,
		SkipRows:       DefaultSkipRows,
		Column:         DefaultColumn,
		ProcessingMode: ModeCollectionBuilder,
		Storage: Storage{
			Backend: BackendAzure,
			Azure:   Azure{ConnectionStringEnv: "AZURE_STORAGE_CONNECTION_STRING"},
			S3: S3{
				Region:       "us-east-1",
				AccessKeyEnv: "AWS_ACCESS_KEY_ID",
				SecretKeyEnv: "AWS_SECRET_ACCESS_KEY",
			},
		},
		OutputCSV:  "match-list.csv",
		SummaryDir: "runs",
	}
}

// Load reads path over the defaults. A missing file at the default location
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Credentials == "" {
		cfg.Credentials = v
	}

	slog.Debug("Config loaded", "path", path, "sheets", len(cfg.Sheets), "paths", len(cfg.Paths))
	return cfg, nil
}

// Validate checks the typed invariants of a run configuration
func (c Config) Validate() error {
	if c.SkipRows < 0 {
		return fmt.Errorf("skip rows must be >= 0, got %d", c.SkipRows)
	}
	if c.Column < 1 {
		return fmt.Errorf("column must be >= 1, got %d", c.Column)
	}

	switch c.Storage.Backend {
	case BackendAzure, BackendS3, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendS3 && c.Upload && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
	}

	if c.WriteBack && c.ProcessingMode != ModeCollectionBuilder {
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.ProcessingMode)
	}

	if _, err := scope.CompilePattern(c.Pattern); err != nil {
		return err
	}

	return nil
}

// Normalize resolves conflicting options. Each returned message describes a
// setting that was turned off.
func (c *Config) Normalize() []string {
	var warnings []string

	if c.UseCache && c.WriteBack {
		c.WriteBack = false
		warnings = append(warnings, "cached target list cannot be written back to the sheet; write-back disabled")
	}
	if !c.Upload && (c.Thumbnails || c.Smalls) {
		c.Thumbnails = false
		c.Smalls = false
		warnings = append(warnings, "derivatives require upload; thumbnails and smalls disabled")
	}
	if !c.Upload && c.WriteBack {
		c.WriteBack = false
		warnings = append(warnings, "nothing to write back without upload; write-back disabled")
	}

	return warnings
}

// ResolveSheet turns a configured sheet name into its URL. Anything that
// already looks like a URL is returned unchanged.
func (c Config) ResolveSheet(name string) (string, error) {
	return resolve(c.Sheets, name, "sheet")
}

// ResolvePath turns a configured path name into a directory. A name that is
// not configured but exists on disk is used as given.
func (c Config) ResolvePath(name string) (string, error) {
	path, err := resolve(c.Paths, name, "path")
	if errors.Is(err, ErrUnknownName) {
		if info, statErr := os.Stat(name); statErr == nil && info.IsDir() {
			return name, nil
		}
	}
	return path, err
}

func resolve(names map[string]string, name, kind string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no %s given", kind)
	}
	if v, ok := names[name]; ok {
		return v, nil
	}
	if strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s %q", ErrUnknownName, kind, name)
}
