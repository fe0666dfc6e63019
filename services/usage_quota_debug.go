//go:build debug

package services

import "log"

// ForceReset zeroes the count and stamps the reset date with the current
// time. Only compiled into debug builds.
func (t *UsageQuotaTracker) ForceReset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.state.ResponseCount = 0
	t.state.LastResetDate = &now
	log.Printf("WARN: [UsageQuota] Forced quota reset for owner %s.", t.state.OwnerID)
	t.persistLocked()
}
