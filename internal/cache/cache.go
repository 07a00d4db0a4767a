package cache

import "context"

// ---------------------------------------------------------------------------
// IdempotencyCache — caller-supplied key to previously generated audio path
// Implemented by the in-process memory cache (dev) and Redis (prod).
// Both backends lazily invalidate entries whose file no longer exists on
// disk, so an externally deleted output triggers a re-synthesis instead of
// an error.
// ---------------------------------------------------------------------------

// IdempotencyCache maps idempotency keys to output file paths.
// Get returns (path, true) only when the entry exists and the file it
// references is still present. There is no cross-request locking: two
// concurrent misses on one key may both synthesize, which is benign
// duplicate work since either result satisfies the key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, path string) error
}
