package fetch

import (
	"context"
	"fmt"
)

// Engine retrieves one source according to a strategy.
//
// Implementations return *RetrievalError for source or format problems the
// fallback strategy may overcome; any other error is final.
type Engine interface {
	Fetch(ctx context.Context, req EngineRequest) (EngineResult, error)
}

// EngineRequest is one attempt inside a workspace.
type EngineRequest struct {
	Locator  string
	Strategy Strategy
	// OutputTemplate is an engine output template rooted in the workspace.
	OutputTemplate string
	Dir            string
}

// EngineResult points at the produced file. Path may be empty or may not exist.
type EngineResult struct {
	Path string
}

// RetrievalError is a classified failure: the source is unavailable or no
// requested format could be negotiated.
type RetrievalError struct {
	Message  string
	ExitCode int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed (exit %d): %s", e.ExitCode, e.Message)
}

// Code implements the error code convention used in handler logs.
func (e *RetrievalError) Code() string { return "retrieval" }
