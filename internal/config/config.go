package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "devctl.toml"

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the paths and tool names every task reads.
type Config struct {
	SourceDir          string   `toml:"source_dir"`
	BuildDirs          []string `toml:"build_dirs"`
	DocsBuildDirs      []string `toml:"docs_build_dirs"`
	DocsGlob           string   `toml:"docs_glob"`
	UnitTestDir        string   `toml:"unit_test_dir"`
	IntegrationTestDir string   `toml:"integration_test_dir"`
	TestCollector      string   `toml:"test_collector"`
	TestMarker         string   `toml:"test_marker"`
	MetricsTool        string   `toml:"metrics_tool"`
	NoColor            bool     `toml:"no_color"`
	Lint               Lint     `toml:"lint"`
}

type Lint struct {
	Tool          string   `toml:"tool"`
	Ignore        []string `toml:"ignore"`
	Exclude       []string `toml:"exclude"`
	MaxLineLength int      `toml:"max_line_length"`
	Paths         []string `toml:"paths"`
}

func Default() Config {
	return Config{
		SourceDir:          "gitlint",
		BuildDirs:          []string{"site", "dist", "build"},
		DocsBuildDirs:      []string{"docs/_build"},
		DocsGlob:           "docs/*.md",
		UnitTestDir:        "gitlint/",
		IntegrationTestDir: "qa/",
		TestCollector:      "py.test",
		TestMarker:         "TestCaseFunction",
		MetricsTool:        "radon",
		Lint: Lint{
			Tool:          "flake8",
			Ignore:        []string{"H307", "H405", "H803", "H904", "H802", "H701"},
			Exclude:       []string{"*settings.py", "*.venv/*.py"},
			MaxLineLength: 120,
			Paths:         []string{"gitlint", "qa", "examples"},
		},
	}
}

// Load overlays the keys defined in path on top of Default. When required is
// false a missing file yields the defaults.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}

	if meta.IsDefined("source_dir") {
		cfg.SourceDir = strings.TrimSpace(raw.SourceDir)
	}
	if meta.IsDefined("build_dirs") {
		cfg.BuildDirs = normalizeList(raw.BuildDirs)
	}
	if meta.IsDefined("docs_build_dirs") {
		cfg.DocsBuildDirs = normalizeList(raw.DocsBuildDirs)
	}
	if meta.IsDefined("docs_glob") {
		cfg.DocsGlob = strings.TrimSpace(raw.DocsGlob)
	}
	if meta.IsDefined("unit_test_dir") {
		cfg.UnitTestDir = strings.TrimSpace(raw.UnitTestDir)
	}
	if meta.IsDefined("integration_test_dir") {
		cfg.IntegrationTestDir = strings.TrimSpace(raw.IntegrationTestDir)
	}
	if meta.IsDefined("test_collector") {
		cfg.TestCollector = strings.TrimSpace(raw.TestCollector)
	}
	if meta.IsDefined("test_marker") {
		cfg.TestMarker = strings.TrimSpace(raw.TestMarker)
	}
	if meta.IsDefined("metrics_tool") {
		cfg.MetricsTool = strings.TrimSpace(raw.MetricsTool)
	}
	if meta.IsDefined("no_color") {
		cfg.NoColor = raw.NoColor
	}
	if meta.IsDefined("lint", "tool") {
		cfg.Lint.Tool = strings.TrimSpace(raw.Lint.Tool)
	}
	if meta.IsDefined("lint", "ignore") {
		cfg.Lint.Ignore = normalizeList(raw.Lint.Ignore)
	}
	if meta.IsDefined("lint", "exclude") {
		cfg.Lint.Exclude = normalizeList(raw.Lint.Exclude)
	}
	if meta.IsDefined("lint", "max_line_length") {
		cfg.Lint.MaxLineLength = raw.Lint.MaxLineLength
	}
	if meta.IsDefined("lint", "paths") {
		cfg.Lint.Paths = normalizeList(raw.Lint.Paths)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	required := map[string]string{
		"source_dir":           cfg.SourceDir,
		"docs_glob":            cfg.DocsGlob,
		"unit_test_dir":        cfg.UnitTestDir,
		"integration_test_dir": cfg.IntegrationTestDir,
		"test_collector":       cfg.TestCollector,
		"test_marker":          cfg.TestMarker,
		"metrics_tool":         cfg.MetricsTool,
		"lint.tool":            cfg.Lint.Tool,
	}
	for _, key := range []string{
		"source_dir", "docs_glob", "unit_test_dir", "integration_test_dir",
		"test_collector", "test_marker", "metrics_tool", "lint.tool",
	} {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, key)
		}
	}
	if len(cfg.BuildDirs) == 0 {
		return fmt.Errorf("%w: build_dirs must name at least one directory", ErrInvalidConfig)
	}
	if len(cfg.Lint.Paths) == 0 {
		return fmt.Errorf("%w: lint.paths must name at least one path", ErrInvalidConfig)
	}
	if cfg.Lint.MaxLineLength <= 0 {
		return fmt.Errorf("%w: lint.max_line_length must be positive", ErrInvalidConfig)
	}
	for _, dir := range append(append([]string{}, cfg.BuildDirs...), cfg.DocsBuildDirs...) {
		if isUnsafeRemoval(dir) {
			return fmt.Errorf("%w: refusing to remove %q", ErrInvalidConfig, dir)
		}
	}
	return nil
}

// isUnsafeRemoval rejects paths that would make rm -rf escape the checkout.
func isUnsafeRemoval(dir string) bool {
	d := strings.TrimSpace(dir)
	if d == "" || d == "." || d == ".." || d == "/" || d == "~" {
		return true
	}
	return strings.HasPrefix(d, "/") || strings.HasPrefix(d, "../") || strings.HasPrefix(d, "-")
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
