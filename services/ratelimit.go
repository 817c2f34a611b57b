package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/gorm"
)

// RateLimiter counts a user's generation records inside a trailing
// window. The reset time is the earliest record in the window plus the
// window length, so the quota frees up one record at a time rather than
// all at once on a bucket boundary.
type RateLimiter struct {
	db     *gorm.DB
	limit  int
	window time.Duration
}

func NewRateLimiter(db *gorm.DB, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{db: db, limit: limit, window: window}
}

// Check returns the user's current quota snapshot. On a persistence
// error it fails open: users are not blocked by infrastructure hiccups,
// so the error is logged and a full-quota snapshot returned.
func (rl *RateLimiter) Check(ctx context.Context, userID uint) *LimitStatus {
	now := time.Now()
	since := now.Add(-rl.window)

	var count int64
	err := rl.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("user_id = ? AND created_at > ?", userID, since).
		Count(&count).Error
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("rate limit check failed, failing open")
		return &LimitStatus{
			Allowed:   true,
			Remaining: rl.limit,
			ResetAt:   now.Add(rl.window),
			Limit:     rl.limit,
		}
	}

	resetAt := now.Add(rl.window)
	if count > 0 {
		var earliest models.Generation
		err = rl.db.WithContext(ctx).
			Where("user_id = ? AND created_at > ?", userID, since).
			Order("created_at asc").
			First(&earliest).Error
		if err == nil {
			resetAt = earliest.CreatedAt.Add(rl.window)
		} else {
			logrus.WithError(err).WithField("user_id", userID).Warn("rate limit reset lookup failed")
		}
	}

	remaining := rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &LimitStatus{
		Allowed:      int(count) < rl.limit,
		Remaining:    remaining,
		ResetAt:      resetAt,
		CurrentCount: int(count),
		Limit:        rl.limit,
	}
}

// Enforce returns a *RateLimitError carrying the snapshot when the user
// is over quota.
func (rl *RateLimiter) Enforce(ctx context.Context, userID uint) error {
	status := rl.Check(ctx, userID)
	if !status.Allowed {
		return &RateLimitError{Status: *status}
	}
	return nil
}
