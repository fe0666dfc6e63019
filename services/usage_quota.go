package services

import (
	"log"
	"sync"
	"time"

	"reframe/models"
	"reframe/repository"
)

// UsageQuotaTracker is the quota state machine of one owner. Every mutation
// is written through to the QuotaRepository. Methods are safe for concurrent
// use, but CanRequest followed by RecordResponse is not atomic; callers
// serialize submissions per owner.
type UsageQuotaTracker struct {
	mu    sync.Mutex
	state models.UsageQuota
	repo  repository.QuotaRepository
	loc   *time.Location
	now   func() time.Time
}

func newUsageQuotaTracker(state *models.UsageQuota, repo repository.QuotaRepository, loc *time.Location, now func() time.Time) *UsageQuotaTracker {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &UsageQuotaTracker{state: *state, repo: repo, loc: loc, now: now}
}

// CanRequest applies a pending daily reset and reports whether a response remains.
func (t *UsageQuotaTracker) CanRequest() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetDailyIfNeededLocked()
	return t.state.ResponsesRemaining() > 0
}

// RecordResponse counts one successful model response.
func (t *UsageQuotaTracker) RecordResponse() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetDailyIfNeededLocked()
	t.state.ResponseCount++
	log.Printf("INFO: [UsageQuota] Owner %s used %d/%d responses (%s).", t.state.OwnerID, t.state.ResponseCount, t.state.Tier.ResponseLimit(), t.state.Tier)
	t.persistLocked()
}

// SetTier switches the owner's tier. The count is kept; only the limit and
// whether daily resets apply change.
func (t *UsageQuotaTracker) SetTier(tier models.UserTier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !tier.Valid() {
		tier = models.TierAnonymous
	}
	if t.state.Tier == tier {
		return
	}
	log.Printf("INFO: [UsageQuota] Owner %s tier changed %s -> %s.", t.state.OwnerID, t.state.Tier, tier)
	t.state.Tier = tier
	t.persistLocked()
}

// ResetDailyIfNeeded zeroes the count of a periodic tier once the calendar
// day has changed since the last reset. The first call only records the date.
func (t *UsageQuotaTracker) ResetDailyIfNeeded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetDailyIfNeededLocked()
}

// ResetUsage clears the count and the reset date, as on sign-out.
func (t *UsageQuotaTracker) ResetUsage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.ResponseCount = 0
	t.state.LastResetDate = nil
	log.Printf("INFO: [UsageQuota] Usage reset for owner %s.", t.state.OwnerID)
	t.persistLocked()
}

// ResponsesRemaining is max(0, limit - count).
func (t *UsageQuotaTracker) ResponsesRemaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ResponsesRemaining()
}

// LimitReached reports whether no responses remain.
func (t *UsageQuotaTracker) LimitReached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.LimitReached()
}

// Status returns a snapshot of the quota for display.
func (t *UsageQuotaTracker) Status() models.QuotaStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Status()
}

func (t *UsageQuotaTracker) resetDailyIfNeededLocked() {
	if !t.state.Tier.IsPeriodic() {
		return
	}
	now := t.now()
	if t.state.LastResetDate == nil {
		t.state.LastResetDate = &now
		t.persistLocked()
		return
	}
	if !sameDay(*t.state.LastResetDate, now, t.loc) {
		log.Printf("INFO: [UsageQuota] New day for owner %s; resetting %d used responses.", t.state.OwnerID, t.state.ResponseCount)
		t.state.ResponseCount = 0
		t.state.LastResetDate = &now
		t.persistLocked()
	}
}

// persistLocked saves the state. A failed write is only logged; the in-memory
// state is used for as long as the tracker is held.
func (t *UsageQuotaTracker) persistLocked() {
	if t.repo == nil {
		return
	}
	snapshot := t.state
	if err := t.repo.SaveQuota(&snapshot); err != nil {
		log.Printf("ERROR: [UsageQuota] Failed to persist quota for owner %s: %v", t.state.OwnerID, err)
	}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
