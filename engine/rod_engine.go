package engine

import (
	"context"
	"fmt"
	"net/http"
)

// RenderFunc renders a page in the shared browser. It is injected from
// main.go so that engine/ never imports scraper/.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is a browser-based engine that delegates rendering to the rod
// scraper. The forceStealth flag distinguishes the "rod" tier from the
// "rod-stealth" tier.
type RodEngine struct {
	render       RenderFunc
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine. When forceStealth is true the engine
// always sets Stealth on requests.
func NewRodEngine(render RenderFunc, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		render:       render,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("%s: render func not configured", e.name)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	if result.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %s: %w", e.name, req.URL, ErrNotFound)
	}

	result.EngineName = e.name
	return result, nil
}
