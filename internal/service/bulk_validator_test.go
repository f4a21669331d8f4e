package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/dto"
	"github.com/openlearn/openlearn-api/internal/models"
)

type mockResolver struct {
	existing map[string]bool
	err      error
}

func (m *mockResolver) FindExisting(ctx context.Context, ids []string) (map[string]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.existing, nil
}

type mockClassReader struct {
	class     *models.Class
	classErr  error
	roster    []string
	rosterErr error
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if m.classErr != nil {
		return nil, m.classErr
	}
	return m.class, nil
}

func (m *mockClassReader) ListEnrolledStudentIDs(ctx context.Context, classID string) ([]string, error) {
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	return m.roster, nil
}

type mockCounter struct {
	count int
	err   error
}

func (m *mockCounter) CountMatching(ctx context.Context, materialIDs, studentIDs []string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

func newTestValidator(materials, students *mockResolver, classes *mockClassReader, counter *mockCounter) *BulkValidator {
	return NewBulkValidator(materials, students, classes, counter, NewRateLimiter(1000), zap.NewNop())
}

func TestValidateDirectAssignValid(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{"m1": true}}
	students := &mockResolver{existing: map[string]bool{"s1": true, "s2": true, "s3": true}}
	v := newTestValidator(materials, students, &mockClassReader{}, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToStudents,
		MaterialIDs: []string{"m1"},
		StudentIDs:  []string{"s1", "s2", "s3"},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.TotalItems)
	assert.Equal(t, []string{"s1", "s2", "s3"}, result.AffectedStudents)
	assert.Equal(t, []string{"m1"}, result.AffectedMaterials)
}

func TestValidateUnknownMaterial(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{}}
	students := &mockResolver{existing: map[string]bool{"s1": true}}
	v := newTestValidator(materials, students, &mockClassReader{}, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToStudents,
		MaterialIDs: []string{"m404"},
		StudentIDs:  []string{"s1"},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "material m404 not found")
}

func TestValidateInactiveStudentWarns(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{"m1": true}}
	students := &mockResolver{existing: map[string]bool{"s1": false}}
	v := newTestValidator(materials, students, &mockClassReader{}, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToStudents,
		MaterialIDs: []string{"m1"},
		StudentIDs:  []string{"s1"},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Contains(t, result.Warnings, "student s1 is inactive")
}

func TestValidateClassEmptyRoster(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{"m1": true}}
	classes := &mockClassReader{class: &models.Class{ID: "c1"}, roster: nil}
	v := newTestValidator(materials, &mockResolver{}, classes, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToClass,
		MaterialIDs: []string{"m1"},
		ClassID:     "c1",
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 0, result.TotalItems)
	assert.Contains(t, result.Warnings, "no enrolled students")
}

func TestValidateClassNotFound(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{"m1": true}}
	classes := &mockClassReader{classErr: sql.ErrNoRows}
	v := newTestValidator(materials, &mockResolver{}, classes, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToClass,
		MaterialIDs: []string{"m1"},
		ClassID:     "c404",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "class c404 not found")
}

func TestValidateClassFanOutResolvesRoster(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{"m1": true, "m2": true}}
	classes := &mockClassReader{class: &models.Class{ID: "c1"}, roster: []string{"s1", "s2"}}
	v := newTestValidator(materials, &mockResolver{}, classes, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToClass,
		MaterialIDs: []string{"m1", "m2"},
		ClassID:     "c1",
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 4, result.TotalItems)
	assert.Equal(t, []string{"s1", "s2"}, result.AffectedStudents)
}

func TestValidateRemoveRequiresAnAxis(t *testing.T) {
	counter := &mockCounter{err: errors.New("must not be called")}
	v := newTestValidator(&mockResolver{}, &mockResolver{}, &mockClassReader{}, counter)

	result, err := v.Validate(context.Background(), dto.BulkRequest{Operation: models.BulkOpRemove})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "at least one of material_ids or student_ids is required")
}

func TestValidateRemoveSingleAxisCountsMatches(t *testing.T) {
	materials := &mockResolver{existing: map[string]bool{"m1": true}}
	counter := &mockCounter{count: 7}
	v := newTestValidator(materials, &mockResolver{}, &mockClassReader{}, counter)

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpRemove,
		MaterialIDs: []string{"m1"},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 7, result.TotalItems)
}

func TestValidateLimitViolationFoldsIntoErrors(t *testing.T) {
	students := map[string]bool{}
	ids := make([]string, 0, 1001)
	for i := 0; i < 1001; i++ {
		id := fmt.Sprintf("s%04d", i)
		ids = append(ids, id)
		students[id] = true
	}
	materials := &mockResolver{existing: map[string]bool{"m1": true}}
	v := newTestValidator(materials, &mockResolver{existing: students}, &mockClassReader{}, &mockCounter{})

	result, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToStudents,
		MaterialIDs: []string{"m1"},
		StudentIDs:  ids,
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "exceeds the limit of 1000")
}

func TestValidateInfrastructureFaultReturnsError(t *testing.T) {
	materials := &mockResolver{err: errors.New("db down")}
	v := newTestValidator(materials, &mockResolver{}, &mockClassReader{}, &mockCounter{})

	_, err := v.Validate(context.Background(), dto.BulkRequest{
		Operation:   models.BulkOpAssignToStudents,
		MaterialIDs: []string{"m1"},
		StudentIDs:  []string{"s1"},
	})
	require.Error(t, err)
}
