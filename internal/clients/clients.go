// Package clients holds the collaborator-facing calls issued over the
// request/reply transport: catalog validation, payment sessions, and
// inventory reservation.
package clients

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Requester is the injected transport capability. Its lifetime is tied to
// service startup and shutdown.
type Requester interface {
	Request(ctx context.Context, pattern string, body []byte) ([]byte, error)
}

type errorEnvelope struct {
	Error      bool   `json:"error"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// decodeReply unmarshals a collaborator reply, surfacing structured error
// envelopes as errors.
func decodeReply(body []byte, v interface{}) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error {
		return errors.Newf("remote error %d: %s", env.StatusCode, env.Message)
	}
	return json.Unmarshal(body, v)
}
