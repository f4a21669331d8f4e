package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/models"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
)

type mockMaterialReader struct {
	materials []models.Material
	total     int
	byID      *models.Material
	findErr   error
	listCalls int
}

func (m *mockMaterialReader) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	m.listCalls++
	return m.materials, m.total, nil
}

func (m *mockMaterialReader) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byID, nil
}

type memoryCache struct {
	store map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.store[key], nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.store[key] = value
	return nil
}

func TestCatalogListPopulatesCache(t *testing.T) {
	reader := &mockMaterialReader{materials: []models.Material{{ID: "m1", Title: "Algebra"}}, total: 1}
	cache := newMemoryCache()
	svc := NewCatalogService(reader, cache, time.Minute, zap.NewNop())

	materials, total, err := svc.List(context.Background(), models.MaterialFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, materials, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, reader.listCalls)
	assert.NotEmpty(t, cache.store)

	// Second call is served from cache.
	materials, total, err = svc.List(context.Background(), models.MaterialFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, materials, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, reader.listCalls)
}

func TestCatalogListDistinctPagesDistinctKeys(t *testing.T) {
	reader := &mockMaterialReader{materials: []models.Material{{ID: "m1"}}, total: 1}
	cache := newMemoryCache()
	svc := NewCatalogService(reader, cache, time.Minute, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.MaterialFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), models.MaterialFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, reader.listCalls)
	assert.Len(t, cache.store, 2)
}

func TestCatalogListWithoutCache(t *testing.T) {
	reader := &mockMaterialReader{materials: []models.Material{{ID: "m1"}}, total: 1}
	svc := NewCatalogService(reader, nil, time.Minute, zap.NewNop())

	_, total, err := svc.List(context.Background(), models.MaterialFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCatalogGetNotFound(t *testing.T) {
	reader := &mockMaterialReader{findErr: sql.ErrNoRows}
	svc := NewCatalogService(reader, nil, time.Minute, zap.NewNop())

	_, err := svc.Get(context.Background(), "m404")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
