// Package cache holds the report cache used by the dashboard service.
package cache

import (
	"context"
	"sync"
	"time"

	"insighthub/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix drops every key starting with prefix and reports how many.
	DeletePrefix(prefix string) int
	Purge()
	Size() int
}

// Stats describes cache effectiveness.
type Stats struct {
	Size      int   `json:"size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Expired   int64 `json:"expired"`
}

// StatsReporter is implemented by caches that keep Stats.
type StatsReporter interface {
	Stats() Stats
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans registered caches until its context ends.
type Janitor struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *log.Logger
	done   chan struct{}
}

func NewJanitor(logger *log.Logger) *Janitor {
	return &Janitor{logger: logger.WithComponent(log.ComponentCache)}
}

// Register adds a cache to the janitor.
func (j *Janitor) Register(c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Sweep cleans every registered cache once.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	caches := append([]Cleaner(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Start runs Sweep every interval in a goroutine. Wait blocks until it
// returns after ctx is cancelled.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	j.done = make(chan struct{})
	go func() {
		defer close(j.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := j.Sweep(); n > 0 {
					j.logger.Debug("Expired cache entries removed", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (j *Janitor) Wait() {
	if j.done != nil {
		<-j.done
	}
}
