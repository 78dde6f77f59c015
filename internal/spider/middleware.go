package spider

import (
	"errors"
)

// ErrRequestDropped is returned by a middleware to stop a request from being
// dispatched. The engine treats it as a silent drop, not a failure.
var ErrRequestDropped = errors.New("spider: request dropped by middleware")

// Middleware transforms an outbound request before it is dispatched.
// Implementations must not mutate the incoming request; they return it
// unchanged or return a modified copy.
type Middleware interface {
	// Name identifies the middleware in logs
	Name() string

	// Process returns the request to pass down the chain, or ErrRequestDropped
	// to drop it
	Process(req *Request) (*Request, error)
}

// Chain applies middleware strictly in declaration order. The terminal
// request is what actually gets fetched.
type Chain []Middleware

// Apply runs the request through every middleware in order
func (c Chain) Apply(req *Request) (*Request, error) {
	current := req
	for _, mw := range c {
		next, err := mw.Process(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}
