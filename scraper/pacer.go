package scraper

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/aluiziolira/go-novel-spider/config"
)

// pacer blocks for random intervals. Delays are part of the crawl contract,
// they throttle the request rate seen by the remote site.
type pacer struct {
	sleep func(context.Context, time.Duration) error
}

func newPacer() *pacer {
	return &pacer{sleep: sleepContext}
}

// draw picks a duration uniformly from the closed range r.
func (p *pacer) draw(r config.DelayRange) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rand.N(r.Max-r.Min+1)
}

func (p *pacer) wait(ctx context.Context, r config.DelayRange) error {
	return p.sleep(ctx, p.draw(r))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randIndex(n int) int {
	return rand.IntN(n)
}
