// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// TERMINWATCH_TARGET_URL or TERMINWATCH_CHECK_STEP_TIMEOUT.
const EnvPrefix = "TERMINWATCH"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Target() TargetConfig
	Check() CheckConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserUserAgent(string)

	// Target Setters
	SetTargetURL(string)

	// Check Setters
	SetCheckStepTimeout(d time.Duration)
	SetCheckFailureSignatures([]string)

	Validate() error
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	TargetCfg  TargetConfig  `mapstructure:"target" yaml:"target"`
	CheckCfg   CheckConfig   `mapstructure:"check" yaml:"check"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Target() TargetConfig   { return c.TargetCfg }
func (c *Config) Check() CheckConfig     { return c.CheckCfg }

// --- Interface Method Implementations (Setters) ---

// Browser Setters
func (c *Config) SetBrowserHeadless(b bool)     { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserUserAgent(ua string) { c.BrowserCfg.UserAgent = ua }

// Target Setters
func (c *Config) SetTargetURL(u string) { c.TargetCfg.URL = u }

// Check Setters
func (c *Config) SetCheckStepTimeout(d time.Duration) { c.CheckCfg.StepTimeout = d }
func (c *Config) SetCheckFailureSignatures(s []string) {
	c.CheckCfg.FailureSignatures = append([]string(nil), s...)
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds the launch options for the headless browser.
type BrowserConfig struct {
	Headless           bool           `mapstructure:"headless" yaml:"headless"`
	NoSandbox          bool           `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	DisableDevShmUsage bool           `mapstructure:"disable_dev_shm_usage" yaml:"disable_dev_shm_usage"`
	IgnoreTLSErrors    bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent          string         `mapstructure:"user_agent" yaml:"user_agent"`
	ExecPath           string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args               []string       `mapstructure:"args" yaml:"args"`
	Viewport           ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	StartupTimeout     time.Duration  `mapstructure:"startup_timeout" yaml:"startup_timeout"`
}

// ViewportConfig is the browser window geometry. A zero value leaves the
// browser's own default in place.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// IsSet reports whether an explicit window size was configured.
func (v ViewportConfig) IsSet() bool { return v.Width > 0 && v.Height > 0 }

// TargetConfig describes the booking page and the markup the check relies on.
type TargetConfig struct {
	URL             string   `mapstructure:"url" yaml:"url"`
	HeadingSelector string   `mapstructure:"heading_selector" yaml:"heading_selector"`
	SelectAllLabel  string   `mapstructure:"select_all_label" yaml:"select_all_label"`
	SubmitID        string   `mapstructure:"submit_id" yaml:"submit_id"`
	ResultMarkers   []string `mapstructure:"result_markers" yaml:"result_markers"`
}

// CheckConfig tunes the waiting discipline and the classification rule.
type CheckConfig struct {
	FailureSignatures []string      `mapstructure:"failure_signatures" yaml:"failure_signatures"`
	StepTimeout       time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	ExcerptLimit      int           `mapstructure:"excerpt_limit" yaml:"excerpt_limit"`
	RunTimeout        time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
	// EnvironmentErrorExitCode is the exit status used when the browser could
	// not be started. 1 is reserved for "appointment found".
	EnvironmentErrorExitCode int `mapstructure:"environment_error_exit_code" yaml:"environment_error_exit_code"`
}

// stepBoundedPhases is the number of waits and actions in one check that are
// each bounded by step_timeout: load, heading, select-all lookup, click and
// checked state, submit lookup, click, transition and result text.
const stepBoundedPhases = 9

// MinRunTimeout is the shortest run_timeout that never cuts off a check whose
// steps all finish within step_timeout.
func (c CheckConfig) MinRunTimeout() time.Duration {
	return stepBoundedPhases * c.StepTimeout
}

// Defaults taken from the Berlin service portal, service 351180.
const (
	DefaultTargetURL      = "https://service.berlin.de/dienstleistung/351180/"
	DefaultSelectAllLabel = "Alle Standorte auswählen"
	DefaultSubmitID       = "appointment_submit"
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
)

// DefaultFailureSignatures are the texts known to appear only on the
// "no appointment" and "no data" result pages.
var DefaultFailureSignatures = []string{
	"keine Termine für Ihre Auswahl verfügbar",
	"Zu Ihrer Suche konnten keine Daten ermittelt werden",
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "terminwatch")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.disable_dev_shm_usage", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 1920)
	v.SetDefault("browser.viewport.height", 1200)
	v.SetDefault("browser.startup_timeout", "30s")

	// -- Target --
	v.SetDefault("target.url", DefaultTargetURL)
	v.SetDefault("target.heading_selector", "h1")
	v.SetDefault("target.select_all_label", DefaultSelectAllLabel)
	v.SetDefault("target.submit_id", DefaultSubmitID)
	v.SetDefault("target.result_markers", []string{})

	// -- Check --
	v.SetDefault("check.failure_signatures", DefaultFailureSignatures)
	v.SetDefault("check.step_timeout", "15s")
	v.SetDefault("check.poll_interval", "100ms")
	v.SetDefault("check.settle_delay", "500ms")
	v.SetDefault("check.excerpt_limit", 600)
	v.SetDefault("check.run_timeout", "5m")
	v.SetDefault("check.environment_error_exit_code", 0)
}

// BindEnvironment makes every known key overridable through TERMINWATCH_* variables.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
// Environment overrides apply only if BindEnvironment was called on v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in the file system paths.
func (c *Config) expandPaths() error {
	logFile, err := homedir.Expand(c.LoggerCfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand logger.log_file: %w", err)
	}
	c.LoggerCfg.LogFile = logFile

	execPath, err := homedir.Expand(c.BrowserCfg.ExecPath)
	if err != nil {
		return fmt.Errorf("failed to expand browser.exec_path: %w", err)
	}
	c.BrowserCfg.ExecPath = execPath
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.TargetCfg.Validate(); err != nil {
		return fmt.Errorf("target configuration invalid: %w", err)
	}
	if err := c.CheckCfg.Validate(); err != nil {
		return fmt.Errorf("check configuration invalid: %w", err)
	}
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the TargetConfig settings.
func (t *TargetConfig) Validate() error {
	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("url is not parseable: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be an absolute http(s) URL, got %q", t.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host, got %q", t.URL)
	}
	if strings.TrimSpace(t.HeadingSelector) == "" {
		return fmt.Errorf("heading_selector is required")
	}
	if strings.TrimSpace(t.SelectAllLabel) == "" {
		return fmt.Errorf("select_all_label is required")
	}
	if strings.TrimSpace(t.SubmitID) == "" {
		return fmt.Errorf("submit_id is required")
	}
	for _, m := range t.ResultMarkers {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("result_markers must not contain empty selectors")
		}
	}
	return nil
}

// Validate checks the CheckConfig settings.
func (c *CheckConfig) Validate() error {
	if len(c.FailureSignatures) == 0 {
		return fmt.Errorf("failure_signatures must contain at least one entry")
	}
	for _, s := range c.FailureSignatures {
		// An empty signature would match every page.
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("failure_signatures must not contain empty entries")
		}
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step_timeout must be a positive duration")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	if c.ExcerptLimit <= 0 {
		return fmt.Errorf("excerpt_limit must be a positive integer")
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must not be negative")
	}
	if c.RunTimeout > 0 && c.RunTimeout < c.MinRunTimeout() {
		return fmt.Errorf("run_timeout %s is shorter than %d step timeouts (%s); raise it or set it to 0",
			c.RunTimeout, stepBoundedPhases, c.MinRunTimeout())
	}
	if c.EnvironmentErrorExitCode < 0 || c.EnvironmentErrorExitCode > 125 {
		return fmt.Errorf("environment_error_exit_code must be between 0 and 125")
	}
	if c.EnvironmentErrorExitCode == 1 {
		return fmt.Errorf("environment_error_exit_code 1 is reserved for a found appointment")
	}
	return nil
}

// Validate checks the BrowserConfig settings.
func (b *BrowserConfig) Validate() error {
	if b.Viewport.Width < 0 || b.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions must not be negative")
	}
	if (b.Viewport.Width == 0) != (b.Viewport.Height == 0) {
		return fmt.Errorf("viewport requires both width and height, or neither")
	}
	if b.StartupTimeout <= 0 {
		return fmt.Errorf("startup_timeout must be a positive duration")
	}
	return nil
}
