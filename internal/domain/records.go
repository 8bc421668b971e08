// Package domain contains the core record types produced by a collection
// run, along with the failure taxonomy shared across the pipeline.
package domain

import "time"

// UserRecord is the normalized profile of one harvested user. It is created
// once per unique login and never mutated afterwards. Absent optional fields
// carry their zero value rather than being an error.
type UserRecord struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Email       string    `json:"email"`
	Hireable    TriState  `json:"hireable"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// RepositoryRecord is one normalized repository of a harvested user.
// OwnerLogin always names a UserRecord present in the same result; records
// are only produced for users whose detail fetch succeeded.
type RepositoryRecord struct {
	OwnerLogin      string    `json:"owner_login"`
	FullName        string    `json:"full_name"`
	CreatedAt       time.Time `json:"created_at"`
	StargazersCount int       `json:"stargazers_count"`
	WatchersCount   int       `json:"watchers_count"`
	Language        string    `json:"language"`
	HasProjects     TriState  `json:"has_projects"`
	HasWiki         TriState  `json:"has_wiki"`
	LicenseName     string    `json:"license_name"`
}

// FetchFailure records one recoverable problem encountered during a run:
// the key of the affected subject (a login or the search query) and a short
// human-readable reason. Failures never abort the run.
type FetchFailure struct {
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// RateLimitStatus is a snapshot of the core API quota, read once before a
// run starts.
type RateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// CollectionResult is the complete outcome of one collection run. Slices
// keep their harvest order. The result is handed to callers as a finished
// snapshot; the pipeline does not touch it afterwards.
type CollectionResult struct {
	Users        []UserRecord       `json:"users"`
	Repositories []RepositoryRecord `json:"repositories"`
	Failures     []FetchFailure     `json:"failures"`
}
