// Package gateway provides a gateway to the GitHub API, abstracting away
// the underlying REST client, its retry behavior, and pagination.
package gateway

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/go-github/v62/github"

	"github.com/citystats/github-harvest/internal/domain"
)

// Config carries the knobs for talking to the API: how hard to retry a
// failed request and how large a page to ask for.
type Config struct {
	// MaxAttempts is the total number of tries per request, first included.
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration
	// SearchPerPage is the page size for user search, at most 100.
	SearchPerPage int
	// RepoPerPage is the page size for repository listings, at most 100.
	RepoPerPage int
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	RateLimit(ctx context.Context) (domain.RateLimitStatus, error)
	SearchUsers(ctx context.Context, query string) ([]string, error)
	FetchUser(ctx context.Context, login string) (domain.UserRecord, error)
	FetchRepositories(ctx context.Context, login string, limit int) ([]domain.RepositoryRecord, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	client *github.Client
	cfg    Config
	logger *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, cfg Config, logger *log.Logger) (*GitHubGateway, error) {
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	httpClient, err := newHTTPClient(token, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build http client: %w", err)
	}
	return &GitHubGateway{
		client: github.NewClient(httpClient),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// RateLimit reports how much of the core API quota is left and when it resets.
func (g *GitHubGateway) RateLimit(ctx context.Context) (domain.RateLimitStatus, error) {
	limits, _, err := g.client.RateLimit.Get(ctx)
	if err != nil {
		return domain.RateLimitStatus{}, fmt.Errorf("failed to fetch rate limit: %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return domain.RateLimitStatus{}, fmt.Errorf("rate limit response carries no core resource")
	}
	return domain.RateLimitStatus{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		ResetAt:   core.Reset.Time,
	}, nil
}

// SearchUsers returns the logins matching the search query, in the order the
// API yields them, following Link-header pagination to the end. A failed
// page returns the logins gathered so far together with the error.
func (g *GitHubGateway) SearchUsers(ctx context.Context, query string) ([]string, error) {
	logins, err := collect(ctx, func(ctx context.Context, page int) ([]string, int, error) {
		opts := &github.SearchOptions{
			ListOptions: github.ListOptions{PerPage: g.cfg.SearchPerPage, Page: page},
		}
		result, resp, err := g.client.Search.Users(ctx, query, opts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to search users: %w", err)
		}
		logins := make([]string, 0, len(result.Users))
		for _, u := range result.Users {
			logins = append(logins, u.GetLogin())
		}
		g.logger.Printf("  Fetched %d users from search page %d\n", len(logins), page)
		return logins, resp.NextPage, nil
	})
	return logins, err
}

// FetchUser retrieves the full profile for a single login.
func (g *GitHubGateway) FetchUser(ctx context.Context, login string) (domain.UserRecord, error) {
	u, _, err := g.client.Users.Get(ctx, login)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("failed to fetch user %s: %w", login, err)
	}
	return userRecord(u), nil
}

// FetchRepositories lists the repositories owned by login, oldest pages
// first, stopping once limit records have been gathered. The listing
// endpoint sends no Link header through this path, so the walk advances the
// page index itself and treats the first empty page as the end.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, login string, limit int) ([]domain.RepositoryRecord, error) {
	repos, err := collectCapped(ctx, limit, func(ctx context.Context, page int) ([]domain.RepositoryRecord, int, error) {
		opts := &github.RepositoryListByUserOptions{
			ListOptions: github.ListOptions{PerPage: g.cfg.RepoPerPage, Page: page},
		}
		result, _, err := g.client.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch repositories for %s: %w", login, err)
		}
		if len(result) == 0 {
			return nil, 0, nil
		}
		records := make([]domain.RepositoryRecord, 0, len(result))
		for _, r := range result {
			records = append(records, repositoryRecord(login, r))
		}
		g.logger.Printf("  Fetched %d repositories for %s (page %d)\n", len(records), login, page)
		return records, page + 1, nil
	})
	return repos, err
}

func userRecord(u *github.User) domain.UserRecord {
	return domain.UserRecord{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Company:     u.GetCompany(),
		Location:    u.GetLocation(),
		Email:       u.GetEmail(),
		Hireable:    domain.TriFromPtr(u.Hireable),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time,
	}
}

func repositoryRecord(owner string, r *github.Repository) domain.RepositoryRecord {
	return domain.RepositoryRecord{
		OwnerLogin:      owner,
		FullName:        r.GetFullName(),
		CreatedAt:       r.GetCreatedAt().Time,
		StargazersCount: r.GetStargazersCount(),
		WatchersCount:   r.GetWatchersCount(),
		Language:        r.GetLanguage(),
		HasProjects:     domain.TriFromPtr(r.HasProjects),
		HasWiki:         domain.TriFromPtr(r.HasWiki),
		LicenseName:     r.GetLicense().GetName(),
	}
}
