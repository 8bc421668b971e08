package domain

import (
	"fmt"
	"time"
)

// QuotaExhaustedError reports that the API quota was already spent when the
// run started. It is the only condition that aborts a collection run before
// any harvesting happens.
type QuotaExhaustedError struct {
	ResetAt time.Time
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("api quota exhausted, resets at %s", e.ResetAt.Format(time.RFC3339))
}
