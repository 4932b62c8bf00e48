package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"coachgest-backend/internal/models"
)

func TestLoadCatalog_FallsBackToDefault(t *testing.T) {
	svc := NewCatalogService(&memConfig{}, nil, 0, zaptest.NewLogger(t))

	catalog, err := svc.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPlanCatalog(), catalog)

	trial := catalog[models.TierTrial]
	assert.Equal(t, 0.0, trial.Price)
	assert.Equal(t, models.Limits{MaxSubcoach: 1, MaxCoachee: 5}, trial.Limits)
	assert.Equal(t, 49.0, catalog[models.TierPro].Price)
	assert.Equal(t, models.Limits{MaxSubcoach: 10, MaxCoachee: 50}, catalog[models.TierMaster].Limits)
}

func TestResetToDefault_Idempotent(t *testing.T) {
	store := &memConfig{}
	svc := NewCatalogService(store, nil, 0, zaptest.NewLogger(t))

	first := svc.ResetToDefault()
	first[models.TierPro] = models.SubscriptionPlan{Name: "changed"}
	second := svc.ResetToDefault()

	assert.Equal(t, models.DefaultPlanCatalog(), second)
	assert.Equal(t, svc.ResetToDefault(), second)
	assert.Zero(t, store.catalogSave, "reset must not persist")
}

func TestSaveCatalog_RoundTripIsIdentical(t *testing.T) {
	store := &memConfig{}
	svc := NewCatalogService(store, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	custom := models.DefaultPlanCatalog()
	pro := custom[models.TierPro]
	pro.Price = 59
	pro.Features = append(pro.Features, "Formazione dedicata")
	custom[models.TierPro] = pro
	require.NoError(t, svc.SaveCatalog(ctx, custom))
	stored := append([]byte(nil), store.catalog...)

	loaded, err := svc.LoadCatalog(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.SaveCatalog(ctx, loaded))

	assert.Equal(t, string(stored), string(store.catalog))
	assert.Equal(t, 2, store.catalogSave)
}

func TestSaveCatalog_RejectsIncompleteCatalog(t *testing.T) {
	store := &memConfig{}
	svc := NewCatalogService(store, nil, 0, zaptest.NewLogger(t))

	catalog := models.DefaultPlanCatalog()
	delete(catalog, models.TierMaster)
	err := svc.SaveCatalog(context.Background(), catalog)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, models.ErrInvalidDocument)

	mislabelled := models.DefaultPlanCatalog()
	plan := mislabelled[models.TierPro]
	plan.Tier = models.TierMaster
	mislabelled[models.TierPro] = plan
	assert.ErrorIs(t, svc.SaveCatalog(context.Background(), mislabelled), ErrValidation)

	assert.Zero(t, store.catalogSave)
}

func TestCatalog_CacheInvalidatedOnSave(t *testing.T) {
	c, mr := newTestCache(t)
	store := &memConfig{}
	svc := NewCatalogService(store, c, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := svc.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:"+catalogCacheKey))

	updated := models.DefaultPlanCatalog()
	master := updated[models.TierMaster]
	master.Price = 129
	updated[models.TierMaster] = master
	require.NoError(t, svc.SaveCatalog(ctx, updated))
	assert.False(t, mr.Exists("test:"+catalogCacheKey))

	loaded, err := svc.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 129.0, loaded[models.TierMaster].Price)
}

func TestCatalog_ServesFromCache(t *testing.T) {
	c, _ := newTestCache(t)
	store := &memConfig{}
	svc := NewCatalogService(store, c, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := svc.LoadCatalog(ctx)
	require.NoError(t, err)

	// A write behind the service's back is not seen until the entry expires.
	changed := models.DefaultPlanCatalog()
	trial := changed[models.TierTrial]
	trial.Name = "Prova"
	changed[models.TierTrial] = trial
	require.NoError(t, store.SavePlanCatalog(ctx, changed))

	loaded, err := svc.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Trial", loaded[models.TierTrial].Name)
}

func TestPlan(t *testing.T) {
	svc := NewCatalogService(&memConfig{}, nil, 0, zaptest.NewLogger(t))

	plan, err := svc.Plan(context.Background(), models.TierPro)
	require.NoError(t, err)
	assert.Equal(t, 20, plan.Limits.MaxCoachee)

	_, err = svc.Plan(context.Background(), models.Tier("premium"))
	assert.ErrorIs(t, err, ErrValidation)
}
