package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reframe/models"
)

// ErrEmptyOwnerID is returned when a quota operation is called without an owner.
var ErrEmptyOwnerID = errors.New("owner ID cannot be empty")

// QuotaRepository persists the usage quota state of each owner.
type QuotaRepository interface {
	GetQuota(ownerID string) (*models.UsageQuota, error)
	SaveQuota(quota *models.UsageQuota) error
}

type quotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a new instance of QuotaRepository.
func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

// GetQuota retrieves the stored quota state for an owner.
// An unknown owner is not an error: the first-launch state (anonymous tier,
// zero count, no reset date) is returned instead.
func (r *quotaRepository) GetQuota(ownerID string) (*models.UsageQuota, error) {
	if ownerID == "" {
		log.Printf("ERROR: [QuotaRepository] GetQuota: ownerID cannot be empty.")
		return nil, ErrEmptyOwnerID
	}

	var quota models.UsageQuota
	err := r.db.First(&quota, "owner_id = ?", ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [QuotaRepository] No quota record for ownerID %s. Starting from first-launch state.", ownerID)
			return models.NewUsageQuota(ownerID), nil
		}
		log.Printf("ERROR: [QuotaRepository] Failed to fetch quota for ownerID %s: %v", ownerID, err)
		return nil, fmt.Errorf("failed to fetch quota for ownerID %s: %w", ownerID, err)
	}
	quota.Tier = models.ParseUserTier(string(quota.Tier))
	return &quota, nil
}

// SaveQuota upserts the full quota state keyed by owner ID.
func (r *quotaRepository) SaveQuota(quota *models.UsageQuota) error {
	if quota == nil || quota.OwnerID == "" {
		log.Printf("ERROR: [QuotaRepository] SaveQuota: quota with an owner ID is required.")
		return ErrEmptyOwnerID
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "response_count", "last_reset_date", "updated_at"}),
	}).Create(quota).Error
	if err != nil {
		log.Printf("ERROR: [QuotaRepository] Failed to save quota for ownerID %s: %v", quota.OwnerID, err)
		return fmt.Errorf("failed to save quota for ownerID %s: %w", quota.OwnerID, err)
	}
	log.Printf("INFO: [QuotaRepository] Saved quota for ownerID %s: tier=%s count=%d.", quota.OwnerID, quota.Tier, quota.ResponseCount)
	return nil
}
