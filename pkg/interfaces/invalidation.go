package interfaces

import "context"

// PathInvalidator marks rendered paths as stale. Paths are concrete URLs or
// path patterns; implementations decide how to evict whatever they cache for
// them (rendered HTML, CDN entries, route caches).
type PathInvalidator interface {
	InvalidatePaths(ctx context.Context, paths []string) error
}

