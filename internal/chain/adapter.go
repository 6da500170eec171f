package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Evidence is the fresh chain-side view of the event a proof references. It is
// fetched per request and never cached. Raw carries the adapter-specific
// payload; only the verifier registered for the chain interprets it.
type Evidence struct {
	ChainID       uint64
	Nonce         string
	Confirmations uint64
	Raw           json.RawMessage
}

// Adapter queries exactly one RPC endpoint of one chain. Fan-out, retry and
// quorum handling live in the Pool, never here.
type Adapter interface {
	// Endpoint returns the RPC base URL this adapter is bound to.
	Endpoint() string
	// FetchEvidence fetches the evidence for the given proof kind and
	// transaction reference. Returns ErrNotFound when the chain definitively
	// reports no such transaction, a *TransientError on I/O trouble and a
	// *MalformedResponseError when the endpoint answered garbage.
	FetchEvidence(ctx context.Context, kind string, nonce string) (*Evidence, error)
	// Probe performs a cheap liveness check and returns the current head
	// height of the endpoint.
	Probe(ctx context.Context) (uint64, error)
}

// ErrNotFound marks a definitive answer that the referenced transaction does
// not exist on chain. It feeds a rejection, never a retry.
var ErrNotFound = errors.New("transaction not found on chain")

// TransientError wraps endpoint failures that are worth retrying: timeouts,
// connection errors, rate limits, upstream 5xx.
type TransientError struct {
	Endpoint string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error from %s: %v", e.Endpoint, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a transient endpoint failure.
func Transient(endpoint string, err error) error {
	return &TransientError{Endpoint: endpoint, Err: err}
}

// IsTransient reports whether err is a transient endpoint failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// MalformedResponseError marks an endpoint that answered with a payload the
// adapter could not interpret. The endpoint is treated as failed for the
// attempt; a broken node must never turn into a rejection.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Malformed wraps err as a malformed endpoint response.
func Malformed(endpoint string, err error) error {
	return &MalformedResponseError{Endpoint: endpoint, Err: err}
}

// IsMalformed reports whether err is a malformed endpoint response.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// classify folds an RPC client error into the adapter error taxonomy. Decode
// failures mark the endpoint as malformed, everything else is transient.
func classify(endpoint string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return Malformed(endpoint, err)
	}

	return Transient(endpoint, err)
}
