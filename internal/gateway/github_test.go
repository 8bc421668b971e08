package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citystats/github-harvest/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	gateway := &GitHubGateway{
		client: client,
		cfg: Config{
			MaxAttempts:   1,
			SearchPerPage: 100,
			RepoPerPage:   100,
		},
		logger: log.New(io.Discard, "", 0),
	}

	return gateway, server
}

func TestGitHubGateway_SearchUsers(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedLogins []string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - follows the Link header across pages",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.URL.String(), "/search/users")
				assert.Equal(t, "location:berlin", r.URL.Query().Get("q"))
				switch r.URL.Query().Get("page") {
				case "", "1":
					w.Header().Set("Link", `</search/users?q=location%3Aberlin&page=2>; rel="next"`)
					fmt.Fprint(w, `{"total_count": 3, "items": [{"login": "alice"}, {"login": "bob"}]}`)
				case "2":
					fmt.Fprint(w, `{"total_count": 3, "items": [{"login": "carol"}]}`)
				}
			},
			expectedLogins: []string{"alice", "bob", "carol"},
		},
		{
			name: "keeps logins gathered before a mid-walk failure",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("page") == "2" {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
					return
				}
				w.Header().Set("Link", `</search/users?q=location%3Aberlin&page=2>; rel="next"`)
				fmt.Fprint(w, `{"total_count": 3, "items": [{"login": "alice"}, {"login": "bob"}]}`)
			},
			expectedLogins: []string{"alice", "bob"},
			expectError:    true,
			expectedErrMsg: "failed to search users",
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"message": "Validation Failed"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to search users",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			logins, err := gateway.SearchUsers(context.Background(), "location:berlin")

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expectedLogins, logins)
		})
	}
}

func TestGitHubGateway_FetchUser(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       domain.UserRecord
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - maps the full profile",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/alice", r.URL.Path)
				fmt.Fprint(w, `{
					"login": "alice", "name": "Alice A.", "company": "ACME",
					"location": "Berlin", "email": "alice@example.com",
					"hireable": true, "bio": "gopher",
					"public_repos": 12, "followers": 34, "following": 5,
					"created_at": "2015-04-01T10:00:00Z"
				}`)
			},
			expected: domain.UserRecord{
				Login:       "alice",
				Name:        "Alice A.",
				Company:     "ACME",
				Location:    "Berlin",
				Email:       "alice@example.com",
				Hireable:    domain.TriState{Bool: true, Valid: true},
				Bio:         "gopher",
				PublicRepos: 12,
				Followers:   34,
				Following:   5,
				CreatedAt:   time.Date(2015, 4, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "absent optional fields stay at their zero values",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"login": "alice", "public_repos": 1, "created_at": "2015-04-01T10:00:00Z"}`)
			},
			expected: domain.UserRecord{
				Login:       "alice",
				Hireable:    domain.TriState{},
				PublicRepos: 1,
				CreatedAt:   time.Date(2015, 4, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "error case - user does not exist",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to fetch user alice",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			record, err := gateway.FetchUser(context.Background(), "alice")

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, record)
			}
		})
	}
}

func TestGitHubGateway_FetchRepositories(t *testing.T) {
	t.Run("walks pages until the first empty one", func(t *testing.T) {
		var pagesSeen []string
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/alice/repos", r.URL.Path)
			page := r.URL.Query().Get("page")
			pagesSeen = append(pagesSeen, page)
			switch page {
			case "1":
				fmt.Fprint(w, `[
					{"full_name": "alice/tool", "created_at": "2020-01-02T03:04:05Z",
					 "stargazers_count": 42, "watchers_count": 42, "language": "Go",
					 "has_projects": true, "has_wiki": false,
					 "license": {"key": "mit", "name": "MIT License"}},
					{"full_name": "alice/dotfiles"}
				]`)
			case "2":
				fmt.Fprint(w, `[{"full_name": "alice/notes", "language": "Markdown"}]`)
			default:
				fmt.Fprint(w, `[]`)
			}
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		repos, err := gateway.FetchRepositories(context.Background(), "alice", 500)

		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, pagesSeen)
		require.Len(t, repos, 3)
		assert.Equal(t, domain.RepositoryRecord{
			OwnerLogin:      "alice",
			FullName:        "alice/tool",
			CreatedAt:       time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
			StargazersCount: 42,
			WatchersCount:   42,
			Language:        "Go",
			HasProjects:     domain.TriState{Bool: true, Valid: true},
			HasWiki:         domain.TriState{Bool: false, Valid: true},
			LicenseName:     "MIT License",
		}, repos[0])
		// No license and no feature flags in the payload.
		assert.Equal(t, "alice", repos[1].OwnerLogin)
		assert.Empty(t, repos[1].LicenseName)
		assert.False(t, repos[1].HasWiki.Valid)
		assert.Equal(t, "alice/notes", repos[2].FullName)
	})

	t.Run("stops at the cap without requesting further pages", func(t *testing.T) {
		var pagesSeen []string
		handler := func(w http.ResponseWriter, r *http.Request) {
			pagesSeen = append(pagesSeen, r.URL.Query().Get("page"))
			fmt.Fprintf(w, `[{"full_name": "alice/repo-a-%[1]s"}, {"full_name": "alice/repo-b-%[1]s"}]`, r.URL.Query().Get("page"))
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		repos, err := gateway.FetchRepositories(context.Background(), "alice", 3)

		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, pagesSeen)
		require.Len(t, repos, 3)
		assert.Equal(t, "alice/repo-b-1", repos[1].FullName)
		assert.Equal(t, "alice/repo-a-2", repos[2].FullName)
	})

	t.Run("zero limit performs no request at all", func(t *testing.T) {
		requests := 0
		handler := func(w http.ResponseWriter, r *http.Request) {
			requests++
			fmt.Fprint(w, `[]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		repos, err := gateway.FetchRepositories(context.Background(), "alice", 0)

		require.NoError(t, err)
		assert.Empty(t, repos)
		assert.Zero(t, requests)
	})

	t.Run("keeps records gathered before a mid-walk failure", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "2" {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				return
			}
			fmt.Fprint(w, `[{"full_name": "alice/tool"}, {"full_name": "alice/dotfiles"}]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		repos, err := gateway.FetchRepositories(context.Background(), "alice", 500)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch repositories for alice")
		assert.Len(t, repos, 2)
	})
}

func TestGitHubGateway_RateLimit(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       domain.RateLimitStatus
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - reports the core quota",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rate_limit", r.URL.Path)
				fmt.Fprint(w, `{"resources": {
					"core": {"limit": 5000, "remaining": 4987, "reset": 1700000000},
					"search": {"limit": 30, "remaining": 30, "reset": 1700000000}
				}}`)
			},
			expected: domain.RateLimitStatus{
				Limit:     5000,
				Remaining: 4987,
				ResetAt:   time.Unix(1700000000, 0),
			},
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, `{"message": "down"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to fetch rate limit",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			status, err := gateway.RateLimit(context.Background())

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected.Limit, status.Limit)
				assert.Equal(t, tc.expected.Remaining, status.Remaining)
				assert.True(t, tc.expected.ResetAt.Equal(status.ResetAt))
			}
		})
	}
}
