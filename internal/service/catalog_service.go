package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/models"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
)

type materialReader interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedMaterialPage struct {
	Materials []models.Material `json:"materials"`
	Total     int               `json:"total"`
}

// CatalogService serves the materials catalog with read-through caching.
type CatalogService struct {
	materials materialReader
	cache     catalogCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(materials materialReader, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CatalogService{materials: materials, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns catalog materials, caching each distinct page.
func (s *CatalogService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	key := catalogCacheKey(filter)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && len(raw) > 0 {
			var page cachedMaterialPage
			if err := json.Unmarshal(raw, &page); err == nil {
				return page.Materials, page.Total, nil
			}
		}
	}

	materials, total, err := s.materials.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}

	if s.cache != nil {
		raw, err := json.Marshal(cachedMaterialPage{Materials: materials, Total: total})
		if err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache material page", zap.Error(err))
			}
		}
	}
	return materials, total, nil
}

// Get returns one material by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}

func catalogCacheKey(filter models.MaterialFilter) string {
	active := "any"
	if filter.Active != nil {
		active = fmt.Sprintf("%t", *filter.Active)
	}
	return fmt.Sprintf("catalog:materials:%s:%s:%s:%d:%d", filter.Search, filter.SubjectID, active, filter.Page, filter.PageSize)
}
