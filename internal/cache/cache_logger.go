package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// propagating failures; stale cache is tolerated, broken requests are not.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging failures.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateProgressCache drops the cached in-progress lookup for a user
// after a save, submit or abandon changed it.
func InvalidateProgressCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.Progress, fmt.Sprintf("user:%s", userID))
}

// InvalidateBankCache drops the cached question bank after an import.
func InvalidateBankCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Bank, "*")
}
