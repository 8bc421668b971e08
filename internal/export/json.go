package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/citystats/github-harvest/internal/domain"
)

// JSON writes the whole result as a single indented document, result.json,
// into dir, creating the directory first if needed.
func JSON(dir string, result domain.CollectionResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Empty collections render as [] rather than null.
	if result.Users == nil {
		result.Users = []domain.UserRecord{}
	}
	if result.Repositories == nil {
		result.Repositories = []domain.RepositoryRecord{}
	}
	if result.Failures == nil {
		result.Failures = []domain.FetchFailure{}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, "result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
