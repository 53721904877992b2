package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/aluiziolira/go-novel-spider/config"
	"github.com/aluiziolira/go-novel-spider/pipeline"
	"github.com/aluiziolira/go-novel-spider/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const appName = "novelspider"

// flagBindings maps CLI flags onto config keys.
var flagBindings = map[string]string{
	"pages":           "max_pages",
	"start-page":      "start_page",
	"base-url":        "base_url",
	"attempts":        "max_attempts",
	"output":          "output_dir",
	"manifest":        "manifest_file",
	"manifest-format": "manifest_format",
	"metrics-addr":    "metrics_addr",
	"log-file":        "log_file",
	"verbose":         "verbose",
	"progress":        "show_progress",
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Download every novel listed in a paginated catalog",
		Long: `novelspider walks a paginated catalog, resolves a TXT download link for each
listed work, decodes the content to UTF-8 and stores it as {title}_{author}.txt.

Requests are sequential and paced with random delays. Every setting can also be
given in a config file or as a NOVELSPIDER_* environment variable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				configPath = defaultConfigPath()
			}
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	defaults := config.DefaultConfig()
	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/novelspider/config.yaml)")
	flags.IntP("pages", "p", defaults.MaxPages, "Number of listing pages to crawl")
	flags.Int("start-page", defaults.StartPage, "First listing page")
	flags.String("base-url", defaults.BaseURL, "Listing page 1 URL")
	flags.Int("attempts", defaults.MaxAttempts, "Attempts per request")
	flags.StringP("output", "o", defaults.OutputDir, "Directory for downloaded novels")
	flags.String("manifest", defaults.ManifestFile, "Download manifest file")
	flags.String("manifest-format", defaults.ManifestFormat, "Manifest format: none, csv, json, dual or sqlite")
	flags.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.String("log-file", defaults.LogFile, "Also write logs to a rotating file; give a path as --log-file=PATH")
	flags.Lookup("log-file").NoOptDefVal = defaultLogPath()
	flags.BoolP("verbose", "v", defaults.Verbose, "Enable verbose logging")
	flags.Bool("progress", defaults.ShowProgress, "Show a progress bar during downloads")

	if err := bindFlags(v, flags); err != nil {
		panic(err)
	}
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flag, key := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, closeLog, err := newLogger(cfg.Verbose, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	manifest, err := pipeline.NewOutputWriter(cfg.ManifestFormat, cfg.ManifestFile)
	if err != nil {
		return fmt.Errorf("create manifest writer: %w", err)
	}
	p := pipeline.NewPipeline(pipeline.NewTextStore(cfg.OutputDir), manifest)
	defer p.Close()

	s, err := scraper.NewScraper(cfg, p)
	if err != nil {
		return fmt.Errorf("initialise spider: %w", err)
	}

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, s.Metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("start_page", cfg.StartPage),
		slog.Int("pages", cfg.MaxPages),
		slog.String("output", cfg.OutputDir),
	)

	session, runErr := s.Run(ctx)
	if err := p.Close(); err != nil {
		slog.Error("close manifest", slog.Any("error", err))
	}
	if err := p.Validate(); err != nil {
		slog.Warn("manifest validation failed", slog.Any("error", err))
	}

	printSummary(out, session, cfg, p.GetMetrics())
	if runErr != nil {
		return fmt.Errorf("crawl interrupted: %w", runErr)
	}
	return nil
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return srv
}

// defaultConfigPath returns the XDG config file when it exists.
func defaultConfigPath() string {
	path := filepath.Join(xdg.ConfigHome, appName, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func defaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}
