package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/citystats/github-harvest/internal/domain"
	"github.com/citystats/github-harvest/internal/gateway"
)

// timedFetcher wraps a Fetcher and records the wall-clock duration of every
// call, grouped by operation. The collector runs strictly sequentially, so
// the sample map needs no locking.
type timedFetcher struct {
	inner gateway.Fetcher
	byOp  map[string]stats.Float64Data
}

func newTimedFetcher(inner gateway.Fetcher) *timedFetcher {
	return &timedFetcher{
		inner: inner,
		byOp:  make(map[string]stats.Float64Data),
	}
}

func (f *timedFetcher) observe(op string, started time.Time) {
	f.byOp[op] = append(f.byOp[op], time.Since(started).Seconds()*1000)
}

func (f *timedFetcher) RateLimit(ctx context.Context) (domain.RateLimitStatus, error) {
	defer f.observe("rate_limit", time.Now())
	return f.inner.RateLimit(ctx)
}

func (f *timedFetcher) SearchUsers(ctx context.Context, query string) ([]string, error) {
	defer f.observe("search_users", time.Now())
	return f.inner.SearchUsers(ctx, query)
}

func (f *timedFetcher) FetchUser(ctx context.Context, login string) (domain.UserRecord, error) {
	defer f.observe("fetch_user", time.Now())
	return f.inner.FetchUser(ctx, login)
}

func (f *timedFetcher) FetchRepositories(ctx context.Context, login string, limit int) ([]domain.RepositoryRecord, error) {
	defer f.observe("fetch_repositories", time.Now())
	return f.inner.FetchRepositories(ctx, login, limit)
}

// summary renders one line per operation with call count, median and p95
// latency, in a stable order.
func (f *timedFetcher) summary() []string {
	ops := make([]string, 0, len(f.byOp))
	for op := range f.byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		samples := f.byOp[op]
		median, err := stats.Median(samples)
		if err != nil {
			continue
		}
		p95, err := stats.Percentile(samples, 95)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-18s %4d calls, median %6.1fms, p95 %6.1fms", op, len(samples), median, p95))
	}
	return lines
}
