package engine

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by an engine when the target page definitively
// does not exist (HTTP 404). The dispatcher stops racing on it.
var ErrNotFound = errors.New("page not found")

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
	Stealth bool

	// WaitSelector, when set, makes browser engines wait for a matching
	// element before reading the DOM. Engines without a DOM ignore it.
	WaitSelector string

	// Validate, when set, is applied by the dispatcher to every engine
	// result. A non-nil error rejects the result and lets heavier engines
	// keep racing; the HTTP engine, for example, can return a script-only
	// shell for client-rendered pages.
	Validate func(*FetchResult) error
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}
