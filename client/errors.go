package client

import (
	"errors"
	"fmt"
)

// ErrKind classifies a failed transit request. The repository's fallback
// policy branches on these, so the classification is part of the contract.
type ErrKind string

const (
	// KindNetwork means the request could not be sent or the transport failed.
	KindNetwork ErrKind = "network"
	// KindTimeout means the deadline fired before completion.
	KindTimeout ErrKind = "timeout"
	// KindHTTP means a non-success status; Status and Body carry the response.
	KindHTTP ErrKind = "http"
	// KindGraphQL means the response carried a top-level errors field.
	KindGraphQL ErrKind = "graphql"
)

// Error is the transport error surface. Status and Body are set for HTTP
// errors; Body holds the serialized errors array for GraphQL errors.
type Error struct {
	Kind   ErrKind
	Status int
	Body   string
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("transit: HTTP %d: %s", e.Status, e.Body)
	case KindGraphQL:
		return fmt.Sprintf("transit: GraphQL errors: %s", e.Body)
	case KindTimeout:
		return fmt.Sprintf("transit: timeout: %v", e.cause)
	default:
		return fmt.Sprintf("transit: network: %v", e.cause)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Kind extracts the classification from any error returned by this package.
// Unknown errors read as network failures, which is the conservative choice
// for the stale-fallback path.
func Kind(err error) ErrKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindNetwork
}
