package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openlearn/openlearn-api/internal/models"
)

func TestRateLimiterCompliant(t *testing.T) {
	limiter := NewRateLimiter(0)
	assert.Equal(t, MaxBulkItems, limiter.MaxItems())

	violations := limiter.CheckLimits(models.BulkOpAssignToStudents, BulkCounts{Materials: 1, Students: 1000, CrossProduct: 1000})
	assert.Empty(t, violations)
}

func TestRateLimiterStudentAxisExceeded(t *testing.T) {
	limiter := NewRateLimiter(1000)

	violations := limiter.CheckLimits(models.BulkOpAssignToStudents, BulkCounts{Materials: 1, Students: 1001, CrossProduct: 1001})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "student count 1001")
}

func TestRateLimiterMaterialAxisExceeded(t *testing.T) {
	limiter := NewRateLimiter(1000)

	violations := limiter.CheckLimits(models.BulkOpAssignMaterials, BulkCounts{Materials: 1001, Students: 1, CrossProduct: 1001})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "material count 1001")
}

func TestRateLimiterClassCrossProductExceeded(t *testing.T) {
	limiter := NewRateLimiter(1000)

	// 50 materials x 25 students stays under each axis cap but not the product.
	violations := limiter.CheckLimits(models.BulkOpAssignToClass, BulkCounts{Materials: 50, Students: 25, CrossProduct: 1250})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "total item count 1250")
}

func TestRateLimiterCrossProductIgnoredForDirectAssign(t *testing.T) {
	limiter := NewRateLimiter(1000)

	violations := limiter.CheckLimits(models.BulkOpAssignToStudents, BulkCounts{Materials: 1, Students: 1000, CrossProduct: 1000})
	assert.Empty(t, violations)
}

func TestRateLimiterRemoveCrossProduct(t *testing.T) {
	limiter := NewRateLimiter(100)

	violations := limiter.CheckLimits(models.BulkOpRemove, BulkCounts{Materials: 20, Students: 20, CrossProduct: 400})
	assert.Len(t, violations, 1)
}
