package config

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/reactive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactive.json"

	// DefaultInspectorPort is the default inspector port.
	DefaultInspectorPort = 6060

	// DefaultInspectorHost is the default inspector host.
	DefaultInspectorHost = "localhost"

	// DefaultHistory is the default number of change records kept per collection.
	DefaultHistory = 100

	// DefaultBenchProfile is the benchmark profile run when none is given.
	DefaultBenchProfile = "diamond"

	// DefaultBenchIterations is the default number of writes per benchmark.
	DefaultBenchIterations = 10000

	// DefaultSnapshotDir is the default directory for local snapshots.
	DefaultSnapshotDir = "snapshots"
)

// LogLevels lists the accepted runtime.logLevel values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config represents the complete reactive.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Runtime configures the reactive runtime.
	Runtime RuntimeConfig `json:"runtime,omitempty"`

	// Inspector configures the devtools HTTP server.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Bench configures the propagation benchmark.
	Bench BenchConfig `json:"bench,omitempty"`

	// Snapshot configures state export.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RuntimeConfig configures the reactive runtime.
type RuntimeConfig struct {
	// MaxEffectReruns bounds how often one effect may run per flush.
	MaxEffectReruns int `json:"maxEffectReruns,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"logFormat,omitempty"`

	// Debug enables debug logging of runtime internals.
	Debug DebugConfig `json:"debug,omitempty"`
}

// DebugConfig mirrors reactive.DebugConfig.
type DebugConfig struct {
	LogFlushes      bool `json:"logFlushes,omitempty"`
	LogEffects      bool `json:"logEffects,omitempty"`
	LogTransactions bool `json:"logTransactions,omitempty"`
}

// InspectorConfig configures the devtools HTTP server.
type InspectorConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// History is the number of change records kept per collection.
	History int `json:"history,omitempty"`

	// ClientBuffer is the per-connection queue length of the change stream.
	ClientBuffer int `json:"clientBuffer,omitempty"`

	// AllowedOrigins restricts WebSocket origins. Empty allows all.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// BenchConfig configures the propagation benchmark.
type BenchConfig struct {
	// Profile is the default benchmark profile.
	Profile string `json:"profile,omitempty"`

	// Iterations is the number of root writes per run.
	Iterations int `json:"iterations,omitempty"`

	// Width overrides the fan-out of the profile's graph.
	Width int `json:"width,omitempty"`

	// Depth overrides the chain depth of the profile's graph.
	Depth int `json:"depth,omitempty"`
}

// SnapshotConfig configures state export.
type SnapshotConfig struct {
	// MaxDepth is the materialization depth (default 3).
	MaxDepth int `json:"maxDepth,omitempty"`

	// Indent pretty-prints snapshots.
	Indent bool `json:"indent,omitempty"`

	// Dir is the directory local snapshots are written to.
	Dir string `json:"dir,omitempty"`

	// MaxSize limits the encoded snapshot size in bytes (0 = no limit).
	MaxSize int64 `json:"maxSize,omitempty"`

	// S3 configures upload to S3.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config configures the S3 snapshot sink.
type S3Config struct {
	Bucket       string `json:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	Region       string `json:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			MaxEffectReruns: reactive.DefaultMaxEffectReruns,
			LogLevel:        "info",
			LogFormat:       "text",
		},
		Inspector: InspectorConfig{
			Host:         DefaultInspectorHost,
			Port:         DefaultInspectorPort,
			History:      DefaultHistory,
			ClientBuffer: 256,
		},
		Bench: BenchConfig{
			Profile:    DefaultBenchProfile,
			Iterations: DefaultBenchIterations,
		},
		Snapshot: SnapshotConfig{
			MaxDepth: 3,
			Dir:      DefaultSnapshotDir,
			S3: S3Config{
				Prefix: "snapshots/",
			},
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reactive.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No reactive.json found in " + filepath.Dir(path)).
				WithSuggestion("Create reactive.json or pass --config")
		}
		return nil, errors.New("C002").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		e := errors.New("C002").Wrap(err).
			WithSuggestion("Check that reactive.json is valid JSON").
			WithExample(exampleConfig)
		if line, col, ok := jsonPosition(data, err); ok {
			e = e.WithLocation(path, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

const exampleConfig = `{
  "name": "todo",
  "runtime": {"logLevel": "info", "logFormat": "text"}
}`

// jsonPosition converts the byte offset of a decode error into a 1-based
// line and column.
func jsonPosition(data []byte, err error) (line, col int, ok bool) {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0, false
	}
	if offset <= 0 || offset > int64(len(data)) {
		return 0, 0, false
	}
	head := data[:offset]
	line = 1 + strings.Count(string(head), "\n")
	col = int(offset) - (strings.LastIndexByte(string(head), '\n') + 1)
	return line, col, true
}

// LoadOrDefault loads reactive.json from dir or one of its parents, and
// falls back to defaults when none exists.
func LoadOrDefault(dir string) (*Config, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Code == "C001" {
			return New(), nil
		}
		return nil, err
	}
	return Load(root)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C002").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Runtime.MaxEffectReruns == 0 {
		c.Runtime.MaxEffectReruns = d.Runtime.MaxEffectReruns
	}
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = d.Runtime.LogLevel
	}
	if c.Runtime.LogFormat == "" {
		c.Runtime.LogFormat = d.Runtime.LogFormat
	}

	if c.Inspector.Host == "" {
		c.Inspector.Host = d.Inspector.Host
	}
	if c.Inspector.Port == 0 {
		c.Inspector.Port = d.Inspector.Port
	}
	if c.Inspector.History == 0 {
		c.Inspector.History = d.Inspector.History
	}
	if c.Inspector.ClientBuffer == 0 {
		c.Inspector.ClientBuffer = d.Inspector.ClientBuffer
	}

	if c.Bench.Profile == "" {
		c.Bench.Profile = d.Bench.Profile
	}
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = d.Bench.Iterations
	}

	if c.Snapshot.MaxDepth == 0 {
		c.Snapshot.MaxDepth = d.Snapshot.MaxDepth
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = d.Snapshot.Dir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.Inspector.Port < 0 || c.Inspector.Port > 65535:
		return invalid("inspector.port must be between 0 and 65535")
	case c.Runtime.MaxEffectReruns < 0:
		return invalid("runtime.maxEffectReruns must not be negative")
	case !slices.Contains(LogLevels, strings.ToLower(c.Runtime.LogLevel)):
		return invalid("runtime.logLevel must be one of " + strings.Join(LogLevels, ", "))
	case c.Runtime.LogFormat != "text" && c.Runtime.LogFormat != "json":
		return invalid(`runtime.logFormat must be "text" or "json"`)
	case c.Bench.Iterations < 0 || c.Bench.Width < 0 || c.Bench.Depth < 0:
		return invalid("bench values must not be negative")
	case c.Snapshot.MaxDepth < 0 || c.Snapshot.MaxSize < 0:
		return invalid("snapshot values must not be negative")
	}
	return nil
}

func invalid(detail string) error {
	return errors.New("C003").WithDetail(detail)
}

// Level returns the slog level for LogLevel.
func (r RuntimeConfig) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(r.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger builds a logger writing to out in the configured format.
func (r RuntimeConfig) Logger(out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: r.Level()}
	if r.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Reactive converts the section into a runtime configuration.
func (r RuntimeConfig) Reactive(logger *slog.Logger) reactive.Config {
	return reactive.Config{
		Logger:          logger,
		MaxEffectReruns: r.MaxEffectReruns,
		Debug: reactive.DebugConfig{
			LogFlushes:      r.Debug.LogFlushes,
			LogEffects:      r.Debug.LogEffects,
			LogTransactions: r.Debug.LogTransactions,
		},
	}
}

// InspectorAddress returns the listen address of the inspector.
func (c *Config) InspectorAddress() string {
	return net.JoinHostPort(c.Inspector.Host, strconv.Itoa(c.Inspector.Port))
}

// InspectorURL returns the base URL of the inspector.
func (c *Config) InspectorURL() string {
	return "http://" + c.InspectorAddress()
}

// SnapshotPath returns the absolute path to the snapshot directory.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

// HasS3 reports whether snapshots go to S3.
func (c *Config) HasS3() bool {
	return c.Snapshot.S3.Bucket != ""
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing reactive.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No reactive.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadOrDefault(wd)
}
