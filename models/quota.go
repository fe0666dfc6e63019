package models

import "time"

// UsageQuota is the persisted QuotaState of one owner (an installed client or
// an authenticated user).
type UsageQuota struct {
	OwnerID       string     `gorm:"primaryKey" json:"owner_id"`
	Tier          UserTier   `gorm:"type:varchar(16);default:anonymous" json:"tier"`
	ResponseCount int        `gorm:"default:0" json:"response_count"`
	LastResetDate *time.Time `json:"last_reset_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for UsageQuota model.
func (UsageQuota) TableName() string {
	return "usage_quotas"
}

// NewUsageQuota returns the first-launch state: anonymous tier, nothing used.
func NewUsageQuota(ownerID string) *UsageQuota {
	return &UsageQuota{OwnerID: ownerID, Tier: TierAnonymous}
}

// ResponsesRemaining is max(0, limit - count) for the current tier.
func (q *UsageQuota) ResponsesRemaining() int {
	remaining := q.Tier.ResponseLimit() - q.ResponseCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LimitReached reports whether no responses remain.
func (q *UsageQuota) LimitReached() bool {
	return q.ResponsesRemaining() == 0
}

// QuotaStatus is the read-only view handed to the UI for gating its submit control.
type QuotaStatus struct {
	OwnerID            string     `json:"owner_id"`
	Tier               UserTier   `json:"tier"`
	ResponseLimit      int        `json:"response_limit"`
	IsPeriodic         bool       `json:"is_periodic"`
	ResponseCount      int        `json:"response_count"`
	ResponsesRemaining int        `json:"responses_remaining"`
	LimitReached       bool       `json:"limit_reached"`
	LastResetDate      *time.Time `json:"last_reset_date,omitempty"`
}

// Status builds the read-only view of q.
func (q *UsageQuota) Status() QuotaStatus {
	return QuotaStatus{
		OwnerID:            q.OwnerID,
		Tier:               q.Tier,
		ResponseLimit:      q.Tier.ResponseLimit(),
		IsPeriodic:         q.Tier.IsPeriodic(),
		ResponseCount:      q.ResponseCount,
		ResponsesRemaining: q.ResponsesRemaining(),
		LimitReached:       q.LimitReached(),
		LastResetDate:      q.LastResetDate,
	}
}
