package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"reframe/models"
	"reframe/repository"
)

// QuotaService hands out the UsageQuotaTracker of an owner. Callers that use
// a tracker at the same time share one instance; once the last of them
// releases it, it is dropped and the next Acquire reloads the state from the
// repository.
type QuotaService interface {
	Acquire(ownerID string) (*UsageQuotaTracker, func(), error)
	ApplyTierSignal(ownerID string, signal models.TierSignal) (models.QuotaStatus, error)
	SignOut(ownerID string) (models.QuotaStatus, error)
}

type trackerEntry struct {
	tracker *UsageQuotaTracker
	refs    int
}

type quotaService struct {
	repo     repository.QuotaRepository
	loc      *time.Location
	now      func() time.Time
	mu       sync.Mutex
	trackers map[string]*trackerEntry
}

// NewQuotaService creates a QuotaService. loc is the calendar used for daily
// resets; now may be nil to use time.Now.
func NewQuotaService(repo repository.QuotaRepository, loc *time.Location, now func() time.Time) QuotaService {
	return &quotaService{
		repo:     repo,
		loc:      loc,
		now:      now,
		trackers: make(map[string]*trackerEntry),
	}
}

// Acquire returns the owner's tracker and a release func that must be called
// when the caller is done with it.
func (s *quotaService) Acquire(ownerID string) (*UsageQuotaTracker, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.trackers[ownerID]
	if !ok {
		state, err := s.repo.GetQuota(ownerID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load quota for owner %s: %w", ownerID, err)
		}
		entry = &trackerEntry{tracker: newUsageQuotaTracker(state, s.repo, s.loc, s.now)}
		s.trackers[ownerID] = entry
		log.Printf("INFO: [QuotaService] Loaded quota tracker for owner %s (tier %s, count %d).", ownerID, state.Tier, state.ResponseCount)
	}
	entry.refs++

	var once sync.Once
	release := func() {
		once.Do(func() { s.release(ownerID) })
	}
	return entry.tracker, release, nil
}

func (s *quotaService) release(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.trackers[ownerID]
	if !ok {
		return
	}
	entry.refs--
	// Every mutation has been written through, so an idle tracker can go.
	if entry.refs <= 0 {
		delete(s.trackers, ownerID)
	}
}

// ApplyTierSignal maps the collaborator's auth/subscription signal to a tier.
func (s *quotaService) ApplyTierSignal(ownerID string, signal models.TierSignal) (models.QuotaStatus, error) {
	tracker, release, err := s.Acquire(ownerID)
	if err != nil {
		return models.QuotaStatus{}, err
	}
	defer release()

	tracker.SetTier(signal.Tier())
	// A newly periodic tier starts its first day now.
	tracker.ResetDailyIfNeeded()
	return tracker.Status(), nil
}

// SignOut clears usage and returns the owner to the anonymous tier.
func (s *quotaService) SignOut(ownerID string) (models.QuotaStatus, error) {
	tracker, release, err := s.Acquire(ownerID)
	if err != nil {
		return models.QuotaStatus{}, err
	}
	defer release()

	tracker.ResetUsage()
	tracker.SetTier(models.TierAnonymous)
	return tracker.Status(), nil
}
