package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reframe/models"
)

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newSavingRepo() *MockQuotaRepository {
	repo := new(MockQuotaRepository)
	repo.On("SaveQuota", mock.AnythingOfType("*models.UsageQuota")).Return(nil)
	return repo
}

func TestUsageQuotaTracker_AnonymousLifetimeLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	repo := newSavingRepo()
	tracker := newUsageQuotaTracker(models.NewUsageQuota("anon_1"), repo, time.UTC, clock.Now)

	for i := 0; i < 3; i++ {
		assert.True(t, tracker.CanRequest(), "call %d should be allowed", i+1)
		tracker.RecordResponse()
	}

	assert.False(t, tracker.CanRequest())
	assert.True(t, tracker.LimitReached())
	assert.Equal(t, 0, tracker.ResponsesRemaining())

	t.Run("Never resets across days", func(t *testing.T) {
		clock.Advance(72 * time.Hour)
		tracker.ResetDailyIfNeeded()
		assert.False(t, tracker.CanRequest())
		assert.Nil(t, tracker.Status().LastResetDate)
	})

	t.Run("Remaining is clamped at zero", func(t *testing.T) {
		tracker.RecordResponse()
		status := tracker.Status()
		assert.Equal(t, 4, status.ResponseCount)
		assert.Equal(t, 0, status.ResponsesRemaining)
		assert.True(t, status.LimitReached)
	})
}

func TestUsageQuotaTracker_DailyReset(t *testing.T) {
	t.Run("First run only records the date", func(t *testing.T) {
		now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
		clock := &fakeClock{t: now}
		state := &models.UsageQuota{OwnerID: "user_1", Tier: models.TierBasic, ResponseCount: 5}
		tracker := newUsageQuotaTracker(state, newSavingRepo(), time.UTC, clock.Now)

		tracker.ResetDailyIfNeeded()

		status := tracker.Status()
		assert.Equal(t, 5, status.ResponseCount)
		if assert.NotNil(t, status.LastResetDate) {
			assert.True(t, status.LastResetDate.Equal(now))
		}
	})

	t.Run("Exhausted basic tier is usable again the next day", func(t *testing.T) {
		yesterday := time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)
		clock := &fakeClock{t: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)}
		state := &models.UsageQuota{OwnerID: "user_1", Tier: models.TierBasic, ResponseCount: 8, LastResetDate: &yesterday}
		tracker := newUsageQuotaTracker(state, newSavingRepo(), time.UTC, clock.Now)

		assert.True(t, tracker.CanRequest())

		status := tracker.Status()
		assert.Equal(t, 0, status.ResponseCount)
		assert.Equal(t, 8, status.ResponsesRemaining)
		assert.True(t, status.LastResetDate.Equal(clock.Now()))
	})

	t.Run("Same day keeps the count", func(t *testing.T) {
		morning := time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC)
		clock := &fakeClock{t: time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)}
		state := &models.UsageQuota{OwnerID: "user_1", Tier: models.TierPremium, ResponseCount: 18, LastResetDate: &morning}
		tracker := newUsageQuotaTracker(state, newSavingRepo(), time.UTC, clock.Now)

		assert.False(t, tracker.CanRequest())
		assert.Equal(t, 18, tracker.Status().ResponseCount)
	})

	t.Run("Day boundary follows the configured calendar", func(t *testing.T) {
		// 23:00 UTC on the 9th is already the 10th at UTC+2; 21:00 UTC on
		// the 10th is still the 10th there.
		loc := time.FixedZone("UTC+2", 2*60*60)
		last := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
		clock := &fakeClock{t: time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)}
		state := &models.UsageQuota{OwnerID: "user_1", Tier: models.TierBasic, ResponseCount: 8, LastResetDate: &last}
		tracker := newUsageQuotaTracker(state, newSavingRepo(), loc, clock.Now)

		assert.False(t, tracker.CanRequest())

		clock.Advance(2 * time.Hour) // 01:00 on the 11th at UTC+2
		assert.True(t, tracker.CanRequest())
		assert.Equal(t, 0, tracker.Status().ResponseCount)
	})
}

func TestUsageQuotaTracker_SetTier(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	repo := newSavingRepo()
	tracker := newUsageQuotaTracker(models.NewUsageQuota("user_1"), repo, time.UTC, clock.Now)
	for i := 0; i < 3; i++ {
		tracker.RecordResponse()
	}
	assert.True(t, tracker.LimitReached())

	t.Run("Upgrade keeps the count", func(t *testing.T) {
		tracker.SetTier(models.TierBasic)
		status := tracker.Status()
		assert.Equal(t, models.TierBasic, status.Tier)
		assert.Equal(t, 3, status.ResponseCount)
		assert.Equal(t, 5, status.ResponsesRemaining)
		assert.True(t, status.IsPeriodic)
	})

	t.Run("Unchanged tier is not persisted again", func(t *testing.T) {
		before := len(repo.Calls)
		tracker.SetTier(models.TierBasic)
		assert.Len(t, repo.Calls, before)
	})

	t.Run("Unknown tier falls back to anonymous", func(t *testing.T) {
		tracker.SetTier(models.UserTier("gold"))
		assert.Equal(t, models.TierAnonymous, tracker.Status().Tier)
		assert.True(t, tracker.LimitReached())
	})
}

func TestUsageQuotaTracker_ResetUsage(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	last := clock.Now().Add(-time.Hour)
	state := &models.UsageQuota{OwnerID: "user_1", Tier: models.TierBasic, ResponseCount: 6, LastResetDate: &last}
	repo := newSavingRepo()
	tracker := newUsageQuotaTracker(state, repo, time.UTC, clock.Now)

	tracker.ResetUsage()

	status := tracker.Status()
	assert.Equal(t, 0, status.ResponseCount)
	assert.Nil(t, status.LastResetDate)
	repo.AssertCalled(t, "SaveQuota", mock.MatchedBy(func(q *models.UsageQuota) bool {
		return q.OwnerID == "user_1" && q.ResponseCount == 0 && q.LastResetDate == nil
	}))
}

func TestUsageQuotaTracker_PersistFailureKeepsState(t *testing.T) {
	repo := new(MockQuotaRepository)
	repo.On("SaveQuota", mock.Anything).Return(errors.New("disk full"))
	tracker := newUsageQuotaTracker(models.NewUsageQuota("anon_1"), repo, time.UTC, nil)

	tracker.RecordResponse()

	assert.Equal(t, 1, tracker.Status().ResponseCount)
	assert.Equal(t, 2, tracker.ResponsesRemaining())
	repo.AssertNumberOfCalls(t, "SaveQuota", 1)
}

func TestQuotaService(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}

	t.Run("Concurrent holders share one tracker", func(t *testing.T) {
		repo := newSavingRepo()
		repo.On("GetQuota", "anon_1").Return(models.NewUsageQuota("anon_1"), nil).Once()
		service := NewQuotaService(repo, time.UTC, clock.Now)

		first, releaseFirst, err := service.Acquire("anon_1")
		assert.NoError(t, err)
		second, releaseSecond, err := service.Acquire("anon_1")
		assert.NoError(t, err)

		assert.Same(t, first, second)
		repo.AssertNumberOfCalls(t, "GetQuota", 1)

		releaseFirst()
		releaseFirst()
		assert.Len(t, service.(*quotaService).trackers, 1)
		releaseSecond()
		assert.Empty(t, service.(*quotaService).trackers)
	})

	t.Run("Released tracker is reloaded from the repository", func(t *testing.T) {
		repo := newSavingRepo()
		repo.On("GetQuota", "anon_1").Return(&models.UsageQuota{OwnerID: "anon_1", Tier: models.TierAnonymous, ResponseCount: 2}, nil).Twice()
		service := NewQuotaService(repo, time.UTC, clock.Now)

		first, release, err := service.Acquire("anon_1")
		assert.NoError(t, err)
		release()
		second, release, err := service.Acquire("anon_1")
		assert.NoError(t, err)
		defer release()

		assert.NotSame(t, first, second)
		assert.Equal(t, 1, second.ResponsesRemaining())
		repo.AssertNumberOfCalls(t, "GetQuota", 2)
	})

	t.Run("Idle owners are not kept in memory", func(t *testing.T) {
		repo := newSavingRepo()
		repo.On("GetQuota", mock.AnythingOfType("string")).Return(models.NewUsageQuota("anon"), nil)
		service := NewQuotaService(repo, time.UTC, clock.Now)

		for i := 0; i < 50; i++ {
			tracker, release, err := service.Acquire(fmt.Sprintf("anon_%d", i))
			assert.NoError(t, err)
			tracker.ResetDailyIfNeeded()
			release()
		}

		assert.Empty(t, service.(*quotaService).trackers)
	})

	t.Run("Load error is returned", func(t *testing.T) {
		repo := new(MockQuotaRepository)
		repo.On("GetQuota", "anon_2").Return(nil, errors.New("db down"))
		service := NewQuotaService(repo, time.UTC, clock.Now)

		tracker, release, err := service.Acquire("anon_2")
		assert.Nil(t, tracker)
		assert.Nil(t, release)
		assert.ErrorContains(t, err, "db down")
		assert.Empty(t, service.(*quotaService).trackers)
	})

	t.Run("ApplyTierSignal maps the signal and starts the day", func(t *testing.T) {
		repo := newSavingRepo()
		repo.On("GetQuota", "user_1").Return(models.NewUsageQuota("user_1"), nil)
		service := NewQuotaService(repo, time.UTC, clock.Now)

		status, err := service.ApplyTierSignal("user_1", models.TierSignal{IsAuthenticated: true, IsPro: true})

		assert.NoError(t, err)
		assert.Equal(t, models.TierPremium, status.Tier)
		assert.Equal(t, 18, status.ResponsesRemaining)
		if assert.NotNil(t, status.LastResetDate) {
			assert.True(t, status.LastResetDate.Equal(clock.Now()))
		}
	})

	t.Run("SignOut returns to anonymous with a fresh count", func(t *testing.T) {
		last := clock.Now()
		repo := newSavingRepo()
		repo.On("GetQuota", "user_2").Return(&models.UsageQuota{OwnerID: "user_2", Tier: models.TierBasic, ResponseCount: 7, LastResetDate: &last}, nil)
		service := NewQuotaService(repo, time.UTC, clock.Now)

		status, err := service.SignOut("user_2")

		assert.NoError(t, err)
		assert.Equal(t, models.TierAnonymous, status.Tier)
		assert.Equal(t, 0, status.ResponseCount)
		assert.Equal(t, 3, status.ResponsesRemaining)
		assert.Nil(t, status.LastResetDate)
	})
}
