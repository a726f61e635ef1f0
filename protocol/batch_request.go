package protocol

import (
	"encoding/json"
	"fmt"
)

// BatchRequest is the body of a Jolokia bulk POST: a JSON array of requests.
// The array order is the order of the batch, responses are matched to it.
type BatchRequest []Request

// Validate validates every request of the batch. An empty batch is invalid
// since the agent would have nothing to answer.
func (b BatchRequest) Validate() error {
	if len(b) == 0 {
		return newValidationError("", "requests", "must contain at least one request")
	}
	for i, r := range b {
		if err := r.Validate(); err != nil {
			verr := err.(*ValidationError)
			verr.Index = i
			return verr
		}
	}
	return nil
}

// Encode validates the batch and serializes it into a JSON array body,
// keeping the input order.
func (b BatchRequest) Encode() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal([]Request(b))
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	return data, nil
}
