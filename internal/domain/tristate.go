package domain

import (
	"encoding/json"
	"strconv"
)

// TriState is a three-valued boolean: true, false, or not provided. The
// GitHub API reports optional booleans as JSON true/false/null; TriState
// keeps that distinction through the pipeline so exporters can render the
// missing case as an empty cell instead of collapsing it to false.
type TriState struct {
	Bool  bool
	Valid bool // false when the field was absent or null
}

// TriFromPtr converts the pointer-boolean convention used by API payloads,
// where a nil pointer means the field was not provided.
func TriFromPtr(b *bool) TriState {
	if b == nil {
		return TriState{}
	}
	return TriState{Bool: *b, Valid: true}
}

// String renders the three states as "true", "false", and "".
func (t TriState) String() string {
	if !t.Valid {
		return ""
	}
	return strconv.FormatBool(t.Bool)
}

// MarshalJSON emits true, false, or null.
func (t TriState) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendBool(nil, t.Bool), nil
}

// UnmarshalJSON accepts true, false, and null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TriState{}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*t = TriState{Bool: b, Valid: true}
	return nil
}
