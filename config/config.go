package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Placeholders substituted into URL templates.
const (
	PagePlaceholder = "{page}"
	IDPlaceholder   = "{id}"
)

// DelayRange is a closed interval a random pause is drawn from.
type DelayRange struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

func (r DelayRange) validate(name string) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%s min (%s) cannot exceed max (%s)", name, r.Min, r.Max)
	}
	return nil
}

// Config holds spider configuration.
type Config struct {
	BaseURL             string `mapstructure:"base_url"`
	PageURLTemplate     string `mapstructure:"page_url_template"`
	SiteRoot            string `mapstructure:"site_root"`
	DownloadURLTemplate string `mapstructure:"download_url_template"`
	ReadingURLTemplate  string `mapstructure:"reading_url_template"`
	StartPage           int    `mapstructure:"start_page"`
	MaxPages            int    `mapstructure:"max_pages"`

	MaxAttempts     int           `mapstructure:"max_attempts"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxBodySize     int           `mapstructure:"max_body_size"`
	PreRequestDelay DelayRange    `mapstructure:"pre_request_delay"`
	RetryDelay      DelayRange    `mapstructure:"retry_delay"`
	PageDelay       DelayRange    `mapstructure:"page_delay"`
	ItemDelay       DelayRange    `mapstructure:"item_delay"`
	UserAgents      []string      `mapstructure:"user_agents"`

	PageCharset    string   `mapstructure:"page_charset"`
	DecodeCharsets []string `mapstructure:"decode_charsets"`
	DedupeMaxSize  int      `mapstructure:"dedupe_max_size"`

	OutputDir      string `mapstructure:"output_dir"`
	ManifestFile   string `mapstructure:"manifest_file"`
	ManifestFormat string `mapstructure:"manifest_format"` // none, csv, json, dual or sqlite

	MetricsAddr  string `mapstructure:"metrics_addr"`
	LogFile      string `mapstructure:"log_file"`
	Verbose      bool   `mapstructure:"verbose"`
	ShowProgress bool   `mapstructure:"show_progress"`
}

// DefaultUserAgents is the identity pool rotated across requests.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
}

// DefaultConfig returns the pacing the demo target tolerates.
func DefaultConfig() *Config {
	agents := make([]string, len(DefaultUserAgents))
	copy(agents, DefaultUserAgents)

	return &Config{
		BaseURL:             "https://www.qishuxia.com/xuanhuanxiaoshuo/",
		PageURLTemplate:     "https://www.qishuxia.com/list/1_{page}.html",
		SiteRoot:            "https://www.qishuxia.com",
		DownloadURLTemplate: "https://www.qishuxia.com/modules/article/txtarticle.php?id={id}",
		ReadingURLTemplate:  "https://www.qishuxia.com/read/{id}/",
		StartPage:           1,
		MaxPages:            10,
		MaxAttempts:         3,
		Timeout:             10 * time.Second,
		DownloadTimeout:     30 * time.Second,
		MaxBodySize:         64 * 1024 * 1024,
		PreRequestDelay:     DelayRange{Min: 1 * time.Second, Max: 3 * time.Second},
		RetryDelay:          DelayRange{Min: 2 * time.Second, Max: 5 * time.Second},
		PageDelay:           DelayRange{Min: 2 * time.Second, Max: 4 * time.Second},
		ItemDelay:           DelayRange{Min: 3 * time.Second, Max: 6 * time.Second},
		UserAgents:          agents,
		PageCharset:         "gbk",
		DecodeCharsets:      []string{"utf-8", "gbk", "gb2312", "big5"},
		DedupeMaxSize:       10000,
		OutputDir:           "novels",
		ManifestFile:        "novels/manifest.csv",
		ManifestFormat:      "none",
	}
}

// PageURL returns the listing URL for a 1-based page index.
func (c *Config) PageURL(page int) string {
	if page <= 1 {
		return c.BaseURL
	}
	return strings.ReplaceAll(c.PageURLTemplate, PagePlaceholder, strconv.Itoa(page))
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateURL("base URL", c.BaseURL); err != nil {
		return err
	}
	if err := validateURL("site root", c.SiteRoot); err != nil {
		return err
	}
	if !strings.Contains(c.PageURLTemplate, PagePlaceholder) {
		return fmt.Errorf("page URL template must contain %s", PagePlaceholder)
	}
	if !strings.Contains(c.DownloadURLTemplate, IDPlaceholder) {
		return fmt.Errorf("download URL template must contain %s", IDPlaceholder)
	}
	if c.ReadingURLTemplate != "" && !strings.Contains(c.ReadingURLTemplate, IDPlaceholder) {
		return fmt.Errorf("reading URL template must contain %s", IDPlaceholder)
	}

	if c.StartPage <= 0 {
		return fmt.Errorf("start page must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("max body size cannot be negative")
	}

	delays := []struct {
		name string
		r    DelayRange
	}{
		{"pre-request delay", c.PreRequestDelay},
		{"retry delay", c.RetryDelay},
		{"page delay", c.PageDelay},
		{"item delay", c.ItemDelay},
	}
	for _, d := range delays {
		if err := d.r.validate(d.name); err != nil {
			return err
		}
	}

	if len(c.UserAgents) == 0 {
		return fmt.Errorf("user agent pool cannot be empty")
	}
	for _, ua := range c.UserAgents {
		if strings.TrimSpace(ua) == "" {
			return fmt.Errorf("user agent pool contains an empty entry")
		}
	}
	if c.PageCharset == "" {
		return fmt.Errorf("page charset cannot be empty")
	}
	if len(c.DecodeCharsets) == 0 {
		return fmt.Errorf("decode charsets cannot be empty")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}

	switch c.ManifestFormat {
	case "none":
	case "csv", "json", "dual", "sqlite":
		if c.ManifestFile == "" {
			return fmt.Errorf("manifest file cannot be empty for format %s", c.ManifestFormat)
		}
	default:
		return fmt.Errorf("manifest format must be none, csv, json, dual, or sqlite")
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
