// Package export writes a collection result to disk as CSV or JSON files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/citystats/github-harvest/internal/domain"
)

var (
	userHeader = []string{
		"login", "name", "company", "location", "email", "hireable", "bio",
		"public_repos", "followers", "following", "created_at",
	}
	repositoryHeader = []string{
		"owner_login", "full_name", "created_at", "stargazers_count",
		"watchers_count", "language", "has_projects", "has_wiki", "license_name",
	}
	failureHeader = []string{"subject", "reason"}
)

// CSV writes users.csv, repositories.csv and failures.csv into dir, creating
// the directory first if needed. A file is written even when its collection
// is empty, so consumers always find all three. The files are independent of
// each other and written concurrently.
func CSV(dir string, result domain.CollectionResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		return writeCSV(filepath.Join(dir, "users.csv"), userHeader, userRows(result.Users))
	})
	eg.Go(func() error {
		return writeCSV(filepath.Join(dir, "repositories.csv"), repositoryHeader, repositoryRows(result.Repositories))
	})
	eg.Go(func() error {
		return writeCSV(filepath.Join(dir, "failures.csv"), failureHeader, failureRows(result.Failures))
	})
	return eg.Wait()
}

func userRows(users []domain.UserRecord) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.Login,
			u.Name,
			u.Company,
			u.Location,
			u.Email,
			u.Hireable.String(),
			u.Bio,
			strconv.Itoa(u.PublicRepos),
			strconv.Itoa(u.Followers),
			strconv.Itoa(u.Following),
			u.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func repositoryRows(repos []domain.RepositoryRecord) [][]string {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{
			r.OwnerLogin,
			r.FullName,
			r.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(r.StargazersCount),
			strconv.Itoa(r.WatchersCount),
			r.Language,
			r.HasProjects.String(),
			r.HasWiki.String(),
			r.LicenseName,
		})
	}
	return rows
}

func failureRows(failures []domain.FetchFailure) [][]string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Subject, f.Reason})
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
