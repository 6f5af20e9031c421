package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a task or project id. It decodes from a JSON number or a numeric string so clients that
// treat ids as strings keep working.
type ID int64

// UnmarshalJSON accepts 7 and "7".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			*id = 0
			return nil
		}
		v, err := ParseID(raw)
		if err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("id %s: %w", data, ErrInvalidRequest)
	}
	*id = ID(v)
	return nil
}

// ParseID parses a positive integer id.
func ParseID(raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("id %q must be a positive integer: %w", raw, ErrInvalidRequest)
	}
	return v, nil
}

// ParseIDs parses every raw id, failing on the first bad one.
func ParseIDs(raw []string) ([]int64, error) {
	out := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := ParseID(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func toInt64s(ids []ID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
