package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/models"
	"coachgest-backend/pkg/cache"
)

const catalogCacheKey = "catalog:plans"

const msgCatalogInvalid = "Il catalogo dei piani non è valido"

type catalogService struct {
	config db.ConfigRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService. c may be nil to disable caching.
func NewCatalogService(config db.ConfigRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) CatalogService {
	return &catalogService{config: config, cache: c, ttl: ttl, logger: logger}
}

// LoadCatalog returns the stored catalog, or the built-in default when none has been saved.
func (s *catalogService) LoadCatalog(ctx context.Context) (models.PlanCatalog, error) {
	if catalog, ok := s.fromCache(ctx); ok {
		return catalog, nil
	}

	catalog, err := s.config.GetPlanCatalog(ctx)
	switch {
	case errors.Is(err, db.ErrNotFound):
		catalog = models.DefaultPlanCatalog()
	case err != nil:
		return nil, failed("Errore nel caricamento dei piani", err)
	}

	s.toCache(ctx, catalog)
	return catalog, nil
}

// SaveCatalog overwrites the stored catalog. There is no merge and no version check.
func (s *catalogService) SaveCatalog(ctx context.Context, catalog models.PlanCatalog) error {
	if err := models.ValidateCatalog(catalog); err != nil {
		return newError(ErrValidation, msgCatalogInvalid, err)
	}
	if err := s.config.SavePlanCatalog(ctx, catalog); err != nil {
		return failed(MsgSaveFailed, err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
			s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("Plan catalog saved")
	return nil
}

// ResetToDefault returns a fresh copy of the built-in catalog without persisting it.
func (s *catalogService) ResetToDefault() models.PlanCatalog {
	return models.DefaultPlanCatalog()
}

func (s *catalogService) Plan(ctx context.Context, tier models.Tier) (models.SubscriptionPlan, error) {
	if !tier.Valid() {
		return models.SubscriptionPlan{}, validationError(fmt.Sprintf("Piano '%s' non valido", tier))
	}
	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return models.SubscriptionPlan{}, err
	}
	plan, ok := catalog[tier]
	if !ok {
		return models.SubscriptionPlan{}, newError(ErrNotFound, fmt.Sprintf("Piano '%s' non trovato", tier), nil)
	}
	return plan, nil
}

func (s *catalogService) fromCache(ctx context.Context) (models.PlanCatalog, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var catalog models.PlanCatalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		s.logger.Warn("Discarding undecodable cached catalog", zap.Error(err))
		return nil, false
	}
	return catalog, true
}

func (s *catalogService) toCache(ctx context.Context, catalog models.PlanCatalog) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, catalogCacheKey, raw, s.ttl); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.Error(err))
	}
}
