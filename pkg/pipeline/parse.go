package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

// ParsePayload decodes and validates a JSON payload.
func ParsePayload(data []byte) (*layout.Payload, error) {
	p, err := layout.ReadPayload(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ValidatePayload(p); err != nil {
		return nil, err
	}
	return p, nil
}

// PayloadHash returns the content hash of p's canonical JSON encoding.
// Payloads that differ only in whitespace or key order hash the same.
func PayloadHash(p *layout.Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode payload")
	}
	return cache.Hash(data), nil
}
