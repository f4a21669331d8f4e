package service

import (
	"fmt"

	"github.com/openlearn/openlearn-api/internal/models"
)

// MaxBulkItems caps every ID axis of a bulk operation, and the
// materials x roster product for class fan-out.
const MaxBulkItems = 1000

// BulkCounts carries the sizes the limiter inspects.
type BulkCounts struct {
	Materials    int
	Students     int
	CrossProduct int
}

// RateLimiter enforces maximum item counts per bulk operation. It is applied
// both at preflight and again at execution time, so a stale preflight result
// cannot smuggle an oversized batch through.
type RateLimiter struct {
	maxItems int
}

// NewRateLimiter builds a limiter; non-positive max falls back to MaxBulkItems.
func NewRateLimiter(maxItems int) *RateLimiter {
	if maxItems <= 0 {
		maxItems = MaxBulkItems
	}
	return &RateLimiter{maxItems: maxItems}
}

// MaxItems reports the configured cap.
func (l *RateLimiter) MaxItems() int {
	return l.maxItems
}

// CheckLimits returns human-readable violations, or an empty slice when the
// operation is compliant. It never fails.
func (l *RateLimiter) CheckLimits(op models.BulkOperationType, counts BulkCounts) []string {
	var violations []string
	if counts.Students > l.maxItems {
		violations = append(violations, fmt.Sprintf("student count %d exceeds the limit of %d", counts.Students, l.maxItems))
	}
	if counts.Materials > l.maxItems {
		violations = append(violations, fmt.Sprintf("material count %d exceeds the limit of %d", counts.Materials, l.maxItems))
	}
	if (op == models.BulkOpAssignToClass || op == models.BulkOpRemove) && counts.CrossProduct > l.maxItems {
		violations = append(violations, fmt.Sprintf("total item count %d exceeds the limit of %d", counts.CrossProduct, l.maxItems))
	}
	return violations
}
