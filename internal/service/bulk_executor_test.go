package service

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/models"
)

type mockAssignmentStore struct {
	existing   map[string]bool
	createErrs map[string]error
	deleteErrs map[string]error
	missing    map[string]bool
	matching   []models.AssignmentTarget
	created    []models.MaterialAssignment
	deleted    []string
}

func pairKey(materialID, studentID string) string {
	return materialID + "/" + studentID
}

func (m *mockAssignmentStore) ExistsTx(ctx context.Context, tx *sqlx.Tx, materialID, studentID string) (bool, error) {
	return m.existing[pairKey(materialID, studentID)], nil
}

func (m *mockAssignmentStore) CreateTx(ctx context.Context, tx *sqlx.Tx, assignment *models.MaterialAssignment) error {
	if err := m.createErrs[pairKey(assignment.MaterialID, assignment.StudentID)]; err != nil {
		return err
	}
	m.created = append(m.created, *assignment)
	return nil
}

func (m *mockAssignmentStore) DeleteTx(ctx context.Context, tx *sqlx.Tx, materialID, studentID string) (int64, error) {
	key := pairKey(materialID, studentID)
	if err := m.deleteErrs[key]; err != nil {
		return 0, err
	}
	if m.missing[key] {
		return 0, nil
	}
	m.deleted = append(m.deleted, key)
	return 1, nil
}

func (m *mockAssignmentStore) ListMatchingTx(ctx context.Context, tx *sqlx.Tx, materialIDs, studentIDs []string) ([]models.AssignmentTarget, error) {
	return m.matching, nil
}

type mockProgressStore struct {
	initialized []string
	err         error
}

func (m *mockProgressStore) InitTx(ctx context.Context, tx *sqlx.Tx, studentID, materialID string) error {
	if m.err != nil {
		return m.err
	}
	m.initialized = append(m.initialized, pairKey(materialID, studentID))
	return nil
}

func newExecutorTx(t *testing.T) (*sqlx.Tx, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	tx, err := sqlx.NewDb(db, "sqlmock").Beginx()
	require.NoError(t, err)
	return tx, func() { db.Close() }
}

func targets(pairs ...[2]string) []models.AssignmentTarget {
	out := make([]models.AssignmentTarget, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.AssignmentTarget{MaterialID: p[0], StudentID: p[1]})
	}
	return out
}

func TestExecuteAssignAllCreated(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{}
	progress := &mockProgressStore{}
	exec := NewAssignmentExecutor(store, progress, zap.NewNop())

	outcome, err := exec.ExecuteAssign(context.Background(), tx, targets([2]string{"m1", "s1"}, [2]string{"m1", "s2"}, [2]string{"m1", "s3"}), ExecOptions{SkipExisting: true, AssignedBy: "t1"})
	require.NoError(t, err)
	assert.Len(t, outcome.Succeeded, 3)
	assert.Empty(t, outcome.Skipped)
	assert.Empty(t, outcome.Failed)
	assert.Len(t, progress.initialized, 3)
	assert.Equal(t, "t1", store.created[0].AssignedBy)
}

func TestExecuteAssignSkipsExisting(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{existing: map[string]bool{"m1/s2": true}}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteAssign(context.Background(), tx, targets([2]string{"m1", "s1"}, [2]string{"m1", "s2"}), ExecOptions{SkipExisting: true})
	require.NoError(t, err)
	assert.Len(t, outcome.Succeeded, 1)
	assert.Len(t, outcome.Skipped, 1)
	assert.Equal(t, "s2", outcome.Skipped[0].StudentID)
}

func TestExecuteAssignUniqueViolationSkipped(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{
		createErrs: map[string]error{"m1/s1": &pq.Error{Code: "23505", Message: "duplicate key value"}},
	}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteAssign(context.Background(), tx, targets([2]string{"m1", "s1"}), ExecOptions{SkipExisting: true})
	require.NoError(t, err)
	assert.Len(t, outcome.Skipped, 1)
	assert.Empty(t, outcome.Failed)
}

func TestExecuteAssignConstraintViolationContinues(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{
		createErrs: map[string]error{"m1/s2": &pq.Error{Code: "23503", Message: "student no longer enrolled"}},
	}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteAssign(context.Background(), tx, targets([2]string{"m1", "s1"}, [2]string{"m1", "s2"}, [2]string{"m1", "s3"}), ExecOptions{SkipExisting: false})
	require.NoError(t, err)
	assert.Len(t, outcome.Succeeded, 2)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, "s2", outcome.Failed[0].StudentID)
	assert.Equal(t, "student no longer enrolled", outcome.Failed[0].Reason)
}

func TestExecuteAssignFatalErrorAborts(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{
		createErrs: map[string]error{"m1/s2": errors.New("connection reset")},
	}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteAssign(context.Background(), tx, targets([2]string{"m1", "s1"}, [2]string{"m1", "s2"}, [2]string{"m1", "s3"}), ExecOptions{})
	require.Error(t, err)
	// Partial counts survive the abort so the audit record can reflect them.
	assert.Len(t, outcome.Succeeded, 1)
	assert.Empty(t, outcome.Failed)
}

func TestExecuteAssignProgressFailureIsNotFatal(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{}
	progress := &mockProgressStore{err: errors.New("progress table locked")}
	exec := NewAssignmentExecutor(store, progress, zap.NewNop())

	outcome, err := exec.ExecuteAssign(context.Background(), tx, targets([2]string{"m1", "s1"}), ExecOptions{})
	require.NoError(t, err)
	assert.Len(t, outcome.Succeeded, 1)
}

func TestExecuteRemoveCrossProduct(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{missing: map[string]bool{"m2/s1": true}}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteRemove(context.Background(), tx, []string{"m1", "m2"}, []string{"s1"})
	require.NoError(t, err)
	assert.Len(t, outcome.Succeeded, 1)
	assert.Len(t, outcome.Skipped, 1)
	assert.Equal(t, []string{"m1/s1"}, store.deleted)
}

func TestExecuteRemoveSingleAxisResolvesTargets(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{
		matching: targets([2]string{"m1", "s1"}, [2]string{"m1", "s2"}),
	}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteRemove(context.Background(), tx, []string{"m1"}, nil)
	require.NoError(t, err)
	assert.Len(t, outcome.Succeeded, 2)
	assert.Equal(t, []string{"m1/s1", "m1/s2"}, store.deleted)
}

func TestExecuteRemoveFatalErrorAborts(t *testing.T) {
	tx, cleanup := newExecutorTx(t)
	defer cleanup()
	store := &mockAssignmentStore{
		deleteErrs: map[string]error{"m1/s2": errors.New("connection reset")},
	}
	exec := NewAssignmentExecutor(store, &mockProgressStore{}, zap.NewNop())

	outcome, err := exec.ExecuteRemove(context.Background(), tx, []string{"m1"}, []string{"s1", "s2"})
	require.Error(t, err)
	assert.Len(t, outcome.Succeeded, 1)
}
