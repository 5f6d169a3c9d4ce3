package serve

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gftdcojp/tiervec/internal/collection"
)

var ErrInvalidPayload = errors.New("invalid payload")

// decodeValues accepts either a single JSON integer or an array of them.
// null, alone or as an element, is rejected.
func decodeValues(data []byte) ([]int64, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body: %w", ErrInvalidPayload)
	}

	if trimmed[0] != '[' {
		v, err := decodeValue(trimmed)
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	}

	var ptrs []*int64
	if err := json.Unmarshal(trimmed, &ptrs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	vs := make([]int64, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrInvalidPayload, i)
		}
		vs[i] = *p
	}
	return vs, nil
}

// decodeValue accepts exactly one JSON integer.
func decodeValue(data []byte) (int64, error) {
	var p *int64
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p == nil {
		return 0, fmt.Errorf("%w: value is null", ErrInvalidPayload)
	}
	return *p, nil
}

// statusFor maps service errors onto a short status label used by both
// surfaces for metrics.
func statusFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, collection.ErrCollectionNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, collection.ErrIndexOutOfRange):
		return "bad_request"
	default:
		return "error"
	}
}
