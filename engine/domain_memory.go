package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers which engine last won the race for each host so
// the next profile on the same host skips straight to it. Entries expire
// after the configured TTL.
type DomainMemory struct {
	mu      sync.RWMutex
	winners map[string]winner
	ttl     time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type winner struct {
	engine    string
	expiresAt time.Time
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// background goroutine that prunes expired entries once per TTL (at most
// hourly).
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		winners: make(map[string]winner),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go dm.pruneLoop()
	return dm
}

// Get returns the remembered engine name for a host, or "" if none is live.
func (dm *DomainMemory) Get(host string) string {
	dm.mu.RLock()
	w, ok := dm.winners[host]
	dm.mu.RUnlock()
	if !ok || dm.now().After(w.expiresAt) {
		return ""
	}
	return w.engine
}

// Set records which engine succeeded for a host.
func (dm *DomainMemory) Set(host, engineName string) {
	dm.mu.Lock()
	dm.winners[host] = winner{engine: engineName, expiresAt: dm.now().Add(dm.ttl)}
	dm.mu.Unlock()
}

// Delete forgets a host, e.g. after the remembered engine failed.
func (dm *DomainMemory) Delete(host string) {
	dm.mu.Lock()
	delete(dm.winners, host)
	dm.mu.Unlock()
}

// Stop terminates the background prune goroutine. It is safe to call more
// than once.
func (dm *DomainMemory) Stop() {
	dm.stopOnce.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) pruneLoop() {
	interval := dm.ttl
	if interval <= 0 || interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}

func (dm *DomainMemory) prune() {
	now := dm.now()
	dm.mu.Lock()
	for host, w := range dm.winners {
		if now.After(w.expiresAt) {
			delete(dm.winners, host)
		}
	}
	dm.mu.Unlock()
}
