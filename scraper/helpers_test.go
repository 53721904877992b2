package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/aluiziolira/go-novel-spider/config"
)

func testConfig(outputDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test/list/"
	cfg.PageURLTemplate = "http://example.test/list/{page}.html"
	cfg.SiteRoot = "http://example.test"
	cfg.DownloadURLTemplate = "http://example.test/txt/{id}.txt"
	cfg.ReadingURLTemplate = "http://example.test/read/{id}/"
	cfg.MaxPages = 2
	cfg.MaxAttempts = 2
	cfg.OutputDir = outputDir
	cfg.ShowProgress = false
	// Disjoint ranges so recorded pauses can be told apart.
	cfg.PreRequestDelay = config.DelayRange{Min: time.Millisecond, Max: 2 * time.Millisecond}
	cfg.RetryDelay = config.DelayRange{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	cfg.PageDelay = config.DelayRange{Min: 100 * time.Millisecond, Max: 200 * time.Millisecond}
	cfg.ItemDelay = config.DelayRange{Min: time.Second, Max: 2 * time.Second}
	return cfg
}

// sleepRecorder replaces real pauses and remembers every requested delay.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}

func inRange(d time.Duration, r config.DelayRange) bool {
	return d >= r.Min && d <= r.Max
}
