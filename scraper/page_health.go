package scraper

import (
	"math"
	"time"

	"github.com/go-rod/rod"
)

// Pooled tabs are retired once any of these limits is hit.
const (
	maxPageErrScore = 3.0
	maxPageUses     = 50
	maxPageAge      = 50 * time.Minute
)

// pageHealth tracks how a pooled tab has behaved across page flows.
//
// Scoring: a success lowers errScore by 0.5 (floor 0), a failure raises it
// by 1.0.
type pageHealth struct {
	errScore float64
	uses     int
	created  time.Time
}

func (h *pageHealth) record(success bool) {
	h.uses++
	if success {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore += 1.0
	}
}

func (h *pageHealth) shouldRetire(now time.Time) bool {
	return h.errScore >= maxPageErrScore ||
		h.uses >= maxPageUses ||
		now.Sub(h.created) >= maxPageAge
}

// recordPage updates the health of page and reports whether it should be
// closed instead of going back to the pool.
func (s *Scraper) recordPage(page *rod.Page, success bool) (retire bool) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	h, ok := s.health[page]
	if !ok {
		h = &pageHealth{created: time.Now()}
		s.health[page] = h
	}
	h.record(success)

	if h.shouldRetire(time.Now()) {
		delete(s.health, page)
		return true
	}
	return false
}
