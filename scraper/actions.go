package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/agentscrape/models"
)

// actionTimeout is the default per-step deadline.
const actionTimeout = 10 * time.Second

// step is one browser interaction in a page flow. Optional steps log and
// move on when they fail; required steps abort the flow.
type step struct {
	name     string
	optional bool
	timeout  time.Duration
	run      func(p *rod.Page) error
}

// runSteps executes the steps in order, each under its own deadline.
func runSteps(ctx context.Context, page *rod.Page, steps []step) error {
	for i, st := range steps {
		err := runStep(ctx, page, st)
		if err == nil {
			continue
		}
		if st.optional {
			slog.Debug("optional page step failed, continuing", "step", st.name, "error", err)
			continue
		}
		return categorizeError(err, fmt.Sprintf("step %d (%s) failed after %d completed", i, st.name, i))
	}
	return nil
}

func runStep(ctx context.Context, page *rod.Page, st step) error {
	timeout := st.timeout
	if timeout <= 0 {
		timeout = actionTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return st.run(page.Context(stepCtx))
}

// sleepStep pauses the flow, giving client-side rendering time to finish.
func sleepStep(d time.Duration) step {
	return step{
		name:    "sleep",
		timeout: d + time.Second,
		run: func(p *rod.Page) error {
			select {
			case <-time.After(d):
				return nil
			case <-p.GetContext().Done():
				return p.GetContext().Err()
			}
		},
	}
}

// waitSelectorStep waits for at least one element matching selector.
func waitSelectorStep(selector string, timeout time.Duration, optional bool) step {
	return step{
		name:     "wait " + selector,
		optional: optional,
		timeout:  timeout,
		run: func(p *rod.Page) error {
			return p.WaitElementsMoreThan(selector, 0)
		},
	}
}

// clickTextStep clicks the first link or button whose text matches label,
// falling back to fallbackSelector when no such element exists.
func clickTextStep(label, fallbackSelector string) step {
	return step{
		name:     "click " + label,
		optional: true,
		run: func(p *rod.Page) error {
			el, err := p.ElementR("a, button", label)
			if err != nil {
				if fallbackSelector == "" {
					return fmt.Errorf("element with text %q not found: %w", label, err)
				}
				el, err = p.Element(fallbackSelector)
				if err != nil {
					return fmt.Errorf("element %q not found: %w", fallbackSelector, err)
				}
			}
			return el.Click(proto.InputMouseButtonLeft, 1)
		},
	}
}

// waitTextGoneStep waits until text no longer appears in the document body.
func waitTextGoneStep(text string, timeout time.Duration) step {
	return step{
		name:     "wait for " + text + " to disappear",
		optional: true,
		timeout:  timeout,
		run: func(p *rod.Page) error {
			return p.Wait(rod.Eval(`(t) => !document.body || !document.body.innerText.includes(t)`, text))
		},
	}
}

// autoScrollStep scrolls to the bottom in increments so lazy-loaded cards render.
func autoScrollStep(timeout time.Duration) step {
	return step{
		name:     "auto-scroll",
		optional: true,
		timeout:  timeout,
		run: func(p *rod.Page) error {
			_, err := p.Eval(`() => new Promise((resolve) => {
				let total = 0;
				const distance = 400;
				const timer = setInterval(() => {
					window.scrollBy(0, distance);
					total += distance;
					if (total >= document.body.scrollHeight) {
						clearInterval(timer);
						window.scrollTo(0, 0);
						resolve(true);
					}
				}, 100);
			})`)
			return err
		},
	}
}

// outerHTML returns the current document markup.
func outerHTML(p *rod.Page) (string, error) {
	html, err := p.HTML()
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeExtraction, "failed to read page HTML", err)
	}
	return html, nil
}
