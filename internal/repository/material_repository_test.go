package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMaterialMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMaterialRepositoryFindExisting(t *testing.T) {
	db, mock, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectQuery("SELECT id, active FROM materials WHERE id IN").
		WithArgs("m1", "m2", "m404").
		WillReturnRows(sqlmock.NewRows([]string{"id", "active"}).
			AddRow("m1", true).
			AddRow("m2", false))

	existing, err := repo.FindExisting(context.Background(), []string{"m1", "m2", "m404"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true, "m2": false}, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryFindExistingChunks(t *testing.T) {
	db, mock, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	ids := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		ids = append(ids, fmt.Sprintf("m%03d", i))
	}

	first := sqlmock.NewRows([]string{"id", "active"})
	for _, id := range ids[:100] {
		first.AddRow(id, true)
	}
	second := sqlmock.NewRows([]string{"id", "active"})
	for _, id := range ids[100:] {
		second.AddRow(id, true)
	}
	mock.ExpectQuery("SELECT id, active FROM materials WHERE id IN").WillReturnRows(first)
	mock.ExpectQuery("SELECT id, active FROM materials WHERE id IN").WillReturnRows(second)

	existing, err := repo.FindExisting(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, existing, 150)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryFindExistingRowErrorIsFatal(t *testing.T) {
	db, mock, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	// A connection failure mid-scan must not be mistaken for absent IDs.
	rows := sqlmock.NewRows([]string{"id", "active"}).
		AddRow("m1", true).
		AddRow("m2", true).
		RowError(1, errors.New("connection reset"))
	mock.ExpectQuery("SELECT id, active FROM materials WHERE id IN").
		WithArgs("m1", "m2").
		WillReturnRows(rows)

	_, err := repo.FindExisting(context.Background(), []string{"m1", "m2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestMaterialRepositoryFindExistingEmptyInput(t *testing.T) {
	db, _, cleanup := newMaterialMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	existing, err := repo.FindExisting(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
}
