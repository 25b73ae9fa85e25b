package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// IDSet is a set of vulnerability identifiers. Recon sources store them
// either as a list of ids or as an object keyed by id; both decode to the
// same set and the object values are ignored.
type IDSet map[string]struct{}

// UnmarshalJSON accepts null, a JSON array of strings or a JSON object
func (s *IDSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	out := make(IDSet)
	switch data[0] {
	case '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decoding id list: %w", err)
		}
		for _, id := range ids {
			out[id] = struct{}{}
		}
	case '{':
		var byID map[string]json.RawMessage
		if err := json.Unmarshal(data, &byID); err != nil {
			return fmt.Errorf("decoding id mapping: %w", err)
		}
		for id := range byID {
			out[id] = struct{}{}
		}
	default:
		return fmt.Errorf("vulnerability ids must be a list or a mapping, got %q", string(data[:1]))
	}

	*s = out
	return nil
}

// MarshalJSON encodes the set as a sorted list
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Sorted returns the ids in ascending order
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
