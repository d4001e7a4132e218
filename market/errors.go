package market

import (
	"errors"
	"fmt"
)

// Sentinel errors for the adapter layer. Wrap with fmt.Errorf("...: %w")
// to add venue context; match with errors.Is.
var (
	ErrAPINotInitialized    = errors.New("api key not initialized")
	ErrSecretKeyLength      = errors.New("invalid secret key length")
	ErrEmptyResponse        = errors.New("empty response from api")
	ErrUnknownSubscription  = errors.New("unknown websocket subscription")
	ErrUnimplemented        = errors.New("unimplemented method")
	ErrTimeout              = errors.New("request timed out")
	ErrWsDisconnected       = errors.New("websocket disconnected, need reconnect")
)

// EnvVarError reports a missing credential environment variable. The
// adapter that hit it stays uninitialized.
type EnvVarError struct {
	Name string
}

func (e *EnvVarError) Error() string {
	return fmt.Sprintf("environment variable missing: %s", e.Name)
}

// APIError carries a venue-reported error body from a non-ok response.
type APIError struct {
	Venue Venue
	Code  string
	Msg   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: code=%s msg=%s", e.Venue, e.Code, e.Msg)
}
