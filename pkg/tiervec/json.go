package tiervec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type jsonVec[T any] struct {
	Tier  Tier `json:"tier"`
	Items []T  `json:"items"`
}

// MarshalJSON encodes the vector as {"tier":"...","items":[...]}.
func (v Vec[T]) MarshalJSON() ([]byte, error) {
	items := v.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(jsonVec[T]{Tier: v.tier, Items: items})
}

// UnmarshalJSON replaces the contents of the vector by pushing the decoded
// items in order, so the resulting tier always follows from the item count.
// Both the object form produced by MarshalJSON and a bare JSON array are
// accepted. A registered observer sees the replayed transitions.
func (v *Vec[T]) UnmarshalJSON(data []byte) error {
	var items []T
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decoding vector items: %w", err)
		}
	default:
		var raw struct {
			Items []T `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("decoding vector: %w", err)
		}
		items = raw.Items
	}

	v.tier = TierSmall
	v.items = nil
	v.Extend(items...)
	return nil
}
