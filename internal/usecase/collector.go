// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/citystats/github-harvest/internal/domain"
	"github.com/citystats/github-harvest/internal/gateway"
)

// Collector is the use case for one collection run. It orchestrates the
// quota probe, the user search, the per-user detail fetches, and the capped
// repository listings, folding recoverable problems into the result instead
// of aborting.
type Collector struct {
	fetcher         gateway.Fetcher
	repositoryLimit int
	logger          *log.Logger
}

// NewCollector creates a new Collector instance. repositoryLimit caps how
// many repositories are gathered per user; zero collects none.
func NewCollector(fetcher gateway.Fetcher, repositoryLimit int, logger *log.Logger) *Collector {
	return &Collector{
		fetcher:         fetcher,
		repositoryLimit: repositoryLimit,
		logger:          logger,
	}
}

// Run executes a full collection for the given search query.
//
// The run aborts only when the quota probe fails or reports nothing left, or
// when the context is canceled; every other problem is recorded as a
// FetchFailure and the run carries on with the subjects that remain. A
// canceled run still returns the records gathered up to that point, next to
// the context's error.
func (c *Collector) Run(ctx context.Context, query string) (domain.CollectionResult, error) {
	timed := newTimedFetcher(c.fetcher)
	var result domain.CollectionResult

	c.logger.Println("[1/3] Probing API rate limit...")
	quota, err := timed.RateLimit(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to probe rate limit: %w", err)
	}
	if quota.Remaining == 0 {
		return result, &domain.QuotaExhaustedError{ResetAt: quota.ResetAt}
	}
	c.logger.Printf("API quota: %d/%d remaining, resets at %s\n",
		quota.Remaining, quota.Limit, quota.ResetAt.Format(time.RFC3339))

	c.logger.Printf("[2/3] Searching users matching %q...\n", query)
	logins, err := timed.SearchUsers(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		c.logger.Printf("  Search ended early: %v\n", err)
		result.Failures = append(result.Failures, domain.FetchFailure{
			Subject: query,
			Reason:  fmt.Sprintf("user search failed: %v", err),
		})
	}
	c.logger.Printf("  Found %d logins\n", len(logins))

	users, failures, err := c.harvestUsers(ctx, timed, logins)
	result.Users = users
	result.Failures = append(result.Failures, failures...)
	if err != nil {
		return result, err
	}

	c.logger.Printf("[3/3] Fetching repositories for %d users...\n", len(users))
	repos, failures, err := c.harvestRepositories(ctx, timed, users)
	result.Repositories = repos
	result.Failures = append(result.Failures, failures...)
	if err != nil {
		return result, err
	}

	c.logSummary(timed, result)
	return result, nil
}

// harvestUsers fetches the full profile for every unique login, in input
// order. A login whose detail fetch fails is recorded and skipped; its
// repositories are never fetched. The returned error is non-nil only when
// the context ended the walk.
func (c *Collector) harvestUsers(ctx context.Context, fetcher gateway.Fetcher, logins []string) ([]domain.UserRecord, []domain.FetchFailure, error) {
	var (
		users    []domain.UserRecord
		failures []domain.FetchFailure
	)
	seen := make(map[string]struct{}, len(logins))
	for _, login := range logins {
		if _, ok := seen[login]; ok {
			continue
		}
		seen[login] = struct{}{}
		if err := ctx.Err(); err != nil {
			return users, failures, err
		}
		user, err := fetcher.FetchUser(ctx, login)
		if err != nil {
			if ctx.Err() != nil {
				return users, failures, ctx.Err()
			}
			c.logger.Printf("  Skipping %s: %v\n", login, err)
			failures = append(failures, domain.FetchFailure{
				Subject: login,
				Reason:  fmt.Sprintf("detail fetch failed: %v", err),
			})
			continue
		}
		users = append(users, user)
	}
	return users, failures, nil
}

// harvestRepositories lists repositories for every harvested user, keeping
// whatever a partially failed listing produced before recording the failure.
func (c *Collector) harvestRepositories(ctx context.Context, fetcher gateway.Fetcher, users []domain.UserRecord) ([]domain.RepositoryRecord, []domain.FetchFailure, error) {
	var (
		repos    []domain.RepositoryRecord
		failures []domain.FetchFailure
	)
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return repos, failures, err
		}
		records, err := fetcher.FetchRepositories(ctx, user.Login, c.repositoryLimit)
		repos = append(repos, records...)
		if err != nil {
			if ctx.Err() != nil {
				return repos, failures, ctx.Err()
			}
			c.logger.Printf("  Repository listing for %s ended early: %v\n", user.Login, err)
			failures = append(failures, domain.FetchFailure{
				Subject: user.Login,
				Reason:  fmt.Sprintf("repository fetch failed: %v", err),
			})
		}
	}
	return repos, failures, nil
}

func (c *Collector) logSummary(timed *timedFetcher, result domain.CollectionResult) {
	c.logger.Printf("Collected %d users, %d repositories, %d failures\n",
		len(result.Users), len(result.Repositories), len(result.Failures))
	for _, line := range timed.summary() {
		c.logger.Printf("  %s\n", line)
	}
}
