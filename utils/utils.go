package utils

import "fmt"

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// ProjectListKey is the cache key for a user's scoped project list.
func ProjectListKey(organizationID, userID uint) string {
	return fmt.Sprintf("projects:%d:%d", organizationID, userID)
}

// ProjectCachePrefix covers every cached project list; writes that can
// change any user's visible set invalidate the whole prefix.
const ProjectCachePrefix = "projects:"
