package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Exclusion store drivers.
const (
	DriverNone   = "none"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Config holds the clustersearch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Search     SearchConfig     `yaml:"search"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Exclusions ExclusionsConfig `yaml:"exclusions"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig guards the exclusion endpoints.
type AuthConfig struct {
	AdminKeys []string `yaml:"admin_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	PermalinkBase   string `yaml:"permalink_base"`
}

// SearchConfig holds Solr connection and query shaping settings.
type SearchConfig struct {
	SolrURL            string          `yaml:"solr_url"`
	KeywordCollection  string          `yaml:"keyword_collection"`
	DocumentCollection string          `yaml:"document_collection"`
	KeywordField       string          `yaml:"keyword_field"`
	TimeoutSec         int             `yaml:"timeout_sec"`
	PageSize           int             `yaml:"page_size"`
	GroupLimit         int             `yaml:"group_limit"`
	PreviewRows        int             `yaml:"preview_rows"`
	MaxClusterRows     int             `yaml:"max_cluster_rows"`
	MaxClauses         int             `yaml:"max_clauses"` // keep below Solr maxBooleanClauses
	KeywordCap         int             `yaml:"keyword_cap"`
	FanoutConcurrency  int             `yaml:"fanout_concurrency"`
	Highlight          HighlightConfig `yaml:"highlight"`
}

// HighlightConfig holds snippet extraction settings.
type HighlightConfig struct {
	Field    string `yaml:"field"`
	Snippets int    `yaml:"snippets"`
	Method   string `yaml:"method"`
	FragSize int    `yaml:"fragsize"`
}

// VocabularyConfig points at the static token lists.
type VocabularyConfig struct {
	StopwordsPath   string `yaml:"stopwords_path"`
	HeadingsPath    string `yaml:"headings_path"`
	FilterStopwords *bool  `yaml:"filter_stopwords"` // default: true
}

// ExclusionsConfig holds the optional exclusion store settings.
type ExclusionsConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Key              string   `yaml:"key"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether exclusions are persisted.
func (e ExclusionsConfig) Enabled() bool { return e.Driver != DriverNone }

// StopwordFiltering reports whether stopwords are removed from cluster keywords.
func (v VocabularyConfig) StopwordFiltering() bool {
	return v.FilterStopwords == nil || *v.FilterStopwords
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first; variables
// already set in the process environment win.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.PermalinkBase == "" {
		c.HTTP.PermalinkBase = "https://www.ncbi.nlm.nih.gov/pubmed/"
	}

	s := &c.Search
	if s.SolrURL == "" {
		s.SolrURL = "http://localhost:8983/solr"
	}
	if s.KeywordCollection == "" {
		s.KeywordCollection = "clusterkw"
	}
	if s.DocumentCollection == "" {
		s.DocumentCollection = "abstracts"
	}
	if s.KeywordField == "" {
		s.KeywordField = "keywords"
	}
	if s.TimeoutSec <= 0 {
		s.TimeoutSec = 10
	}
	if s.PageSize <= 0 {
		s.PageSize = 10
	}
	if s.GroupLimit <= 0 {
		s.GroupLimit = 7
	}
	if s.PreviewRows <= 0 {
		s.PreviewRows = 3
	}
	if s.MaxClusterRows <= 0 {
		s.MaxClusterRows = 10000
	}
	if s.MaxClauses <= 0 {
		s.MaxClauses = 500
	}
	if s.KeywordCap <= 0 {
		s.KeywordCap = 100
	}
	if s.FanoutConcurrency <= 0 {
		s.FanoutConcurrency = 8
	}
	if s.Highlight.Field == "" {
		s.Highlight.Field = "abstract"
	}
	if s.Highlight.Snippets <= 0 {
		s.Highlight.Snippets = 3
	}
	if s.Highlight.Method == "" {
		s.Highlight.Method = "unified"
	}
	if s.Highlight.FragSize <= 0 {
		s.Highlight.FragSize = 200
	}

	if c.Exclusions.Driver == "" {
		c.Exclusions.Driver = DriverNone
	}
	if c.Exclusions.Key == "" {
		c.Exclusions.Key = "clustersearch:exclusions"
	}
	if c.Exclusions.ReadinessTimeout <= 0 {
		c.Exclusions.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	u, err := url.Parse(c.Search.SolrURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("search.solr_url must be an http(s) URL, got %q", c.Search.SolrURL)
	}
	switch c.Search.Highlight.Method {
	case "unified", "original", "fastVector":
		// ok
	default:
		return fmt.Errorf(
			"search.highlight.method must be \"unified\", \"original\" or \"fastVector\", got %q",
			c.Search.Highlight.Method,
		)
	}
	switch c.Exclusions.Driver {
	case DriverNone:
		// ok
	case DriverRedis, DriverValkey:
		if len(c.Exclusions.Addrs) == 0 {
			return fmt.Errorf("exclusions.addrs is required for driver %q", c.Exclusions.Driver)
		}
	default:
		return fmt.Errorf(
			"exclusions.driver must be \"none\", \"redis\" or \"valkey\", got %q",
			c.Exclusions.Driver,
		)
	}
	return nil
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding the process
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
