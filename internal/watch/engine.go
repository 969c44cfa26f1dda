package watch

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/agentlens/agentlens/internal/imagescan"
	"github.com/agentlens/agentlens/internal/spancache"
)

// Engine rescans changed session files and stores the located spans
// in the cache. One Engine serves one cache; scans of distinct files
// are independent, so batches could run in parallel, but the watcher
// delivers small debounced batches and sequential scanning keeps I/O
// pressure predictable.
type Engine struct {
	cache      *spancache.DB
	resolver   imagescan.StorageResolver
	maxMatches int
	stopped    atomic.Bool
}

// NewEngine builds an engine over the given cache. resolver may be
// nil when no delegated-dialect files are expected.
func NewEngine(
	cache *spancache.DB,
	resolver imagescan.StorageResolver,
	maxMatches int,
) *Engine {
	return &Engine{
		cache:      cache,
		resolver:   resolver,
		maxMatches: maxMatches,
	}
}

// Stop makes in-flight and future rescans wind down cooperatively.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// Rescan re-locates spans in each file and updates the cache.
// Returns the number of files whose cache entries were refreshed.
// A stopped engine returns ErrCancelled with the partial count.
func (e *Engine) Rescan(paths []string) (int, error) {
	refreshed := 0
	for _, path := range paths {
		if e.stopped.Load() {
			return refreshed, imagescan.ErrCancelled
		}
		if !scannable(path) {
			continue
		}

		sig, err := spancache.SignatureFor(path)
		if err != nil {
			// Deleted between event and rescan.
			if ierr := e.cache.Invalidate(path); ierr != nil {
				log.Printf("invalidate %s: %v", path, ierr)
			}
			continue
		}

		dialect := imagescan.DialectForPath(path)
		if _, ok, err := e.cache.Get(sig, dialect); err == nil && ok {
			continue // signature unchanged, cache still valid
		}

		spans, err := imagescan.Scan(path, dialect, imagescan.ScanOptions{
			MaxMatches: e.maxMatches,
			Cancel:     e.stopped.Load,
			Resolver:   e.resolver,
		})
		if err != nil {
			log.Printf("scan %s: %v", path, err)
			continue
		}
		if e.stopped.Load() {
			// Partial result from a cancelled scan must not be
			// cached as complete.
			return refreshed, imagescan.ErrCancelled
		}

		if err := e.cache.Put(sig, dialect, spans); err != nil {
			log.Printf("cache %s: %v", path, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// scannable filters watcher noise: only session-shaped files are
// worth a scan.
func scannable(path string) bool {
	return strings.HasSuffix(path, ".jsonl") ||
		strings.HasSuffix(path, ".json")
}
