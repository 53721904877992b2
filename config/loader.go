package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NOVELSPIDER_MAX_PAGES.
const EnvPrefix = "NOVELSPIDER"

// NewViper returns a viper instance seeded with DefaultConfig and wired to the environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// Load reads an optional config file into v and decodes the merged result.
// Flags bound to v before the call take precedence over the file and env.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("page_url_template", d.PageURLTemplate)
	v.SetDefault("site_root", d.SiteRoot)
	v.SetDefault("download_url_template", d.DownloadURLTemplate)
	v.SetDefault("reading_url_template", d.ReadingURLTemplate)
	v.SetDefault("start_page", d.StartPage)
	v.SetDefault("max_pages", d.MaxPages)

	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("download_timeout", d.DownloadTimeout)
	v.SetDefault("max_body_size", d.MaxBodySize)
	v.SetDefault("pre_request_delay.min", d.PreRequestDelay.Min)
	v.SetDefault("pre_request_delay.max", d.PreRequestDelay.Max)
	v.SetDefault("retry_delay.min", d.RetryDelay.Min)
	v.SetDefault("retry_delay.max", d.RetryDelay.Max)
	v.SetDefault("page_delay.min", d.PageDelay.Min)
	v.SetDefault("page_delay.max", d.PageDelay.Max)
	v.SetDefault("item_delay.min", d.ItemDelay.Min)
	v.SetDefault("item_delay.max", d.ItemDelay.Max)
	v.SetDefault("user_agents", d.UserAgents)

	v.SetDefault("page_charset", d.PageCharset)
	v.SetDefault("decode_charsets", d.DecodeCharsets)
	v.SetDefault("dedupe_max_size", d.DedupeMaxSize)

	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("manifest_file", d.ManifestFile)
	v.SetDefault("manifest_format", d.ManifestFormat)

	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("show_progress", d.ShowProgress)
}
