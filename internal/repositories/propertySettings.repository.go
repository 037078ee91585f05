package repositories

import (
	"context"
	"errors"
	"time"

	"pms/internal/database"
	. "pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AUTOMATION_CONFIG_CACHE_PREFIX = "automation_config"

var ErrSettingsNotFound = errors.New("property settings not found")

// PropertySettingsRepository reads the per-property automation configuration.
// The engine never writes settings; GetAutomationConfig is cached with a
// bounded TTL so the sweep loop does not re-fetch config every tick.
type PropertySettingsRepository interface {
	GetAutomationConfig(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID) (*AutomationConfig, error)
	ListPropertyIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	InvalidateConfigCache(ctx context.Context, propertyID uuid.UUID) error
}

type propertySettingsRepository struct {
	cache    database.CacheClient
	cacheTTL time.Duration
	log      logger.Logger
}

func NewPropertySettingsRepository(db database.DB, cacheTTLMinutes int) PropertySettingsRepository {
	return &propertySettingsRepository{
		cache:    db.Cache.Config,
		cacheTTL: time.Duration(cacheTTLMinutes) * time.Minute,
		log:      logger.New("propertySettingsRepository"),
	}
}

func (r *propertySettingsRepository) GetAutomationConfig(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
) (*AutomationConfig, error) {
	log := r.log.Function("GetAutomationConfig")

	if r.cache != nil {
		var cached AutomationConfig
		found, err := database.NewCacheBuilder(r.cache, propertyID.String()).
			WithContext(ctx).
			WithHash(AUTOMATION_CONFIG_CACHE_PREFIX).
			Get(&cached)
		if err != nil {
			log.Warn("failed to get automation config from cache", "propertyID", propertyID, "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	var settings PropertySettings
	err := tx.WithContext(ctx).
		Where("property_id = ?", propertyID).
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, log.Err("failed to load property settings", err, "propertyID", propertyID)
	}

	config := settings.ToAutomationConfig()

	if r.cache != nil {
		err = database.NewCacheBuilder(r.cache, propertyID.String()).
			WithContext(ctx).
			WithHash(AUTOMATION_CONFIG_CACHE_PREFIX).
			WithStruct(config).
			WithTTL(r.cacheTTL).
			Set()
		if err != nil {
			log.Warn("failed to cache automation config", "propertyID", propertyID, "error", err)
		}
	}

	return &config, nil
}

func (r *propertySettingsRepository) ListPropertyIDs(
	ctx context.Context,
	tx *gorm.DB,
) ([]uuid.UUID, error) {
	log := r.log.Function("ListPropertyIDs")

	var ids []uuid.UUID
	err := tx.WithContext(ctx).
		Model(&PropertySettings{}).
		Pluck("property_id", &ids).Error
	if err != nil {
		return nil, log.Err("failed to list property ids", err)
	}

	return ids, nil
}

func (r *propertySettingsRepository) InvalidateConfigCache(
	ctx context.Context,
	propertyID uuid.UUID,
) error {
	if r.cache == nil {
		return nil
	}

	return database.NewCacheBuilder(r.cache, propertyID.String()).
		WithContext(ctx).
		WithHash(AUTOMATION_CONFIG_CACHE_PREFIX).
		Delete()
}
