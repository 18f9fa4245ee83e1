// Package maintenance runs periodic housekeeping against the database.
package maintenance

import (
	"context"
	"time"

	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Result counts what one sweep changed
type Result struct {
	PasswordResets   int64
	UnlockedUsers    int64
	OTPUnblocked     int64
	OTPExpired       int64
	OldNotifications int64
}

// CleanupService sweeps expired auth state and old notifications on an interval.
// Login and OTP checks release expired locks lazily; the sweep keeps rows that
// are never touched again from carrying stale state.
type CleanupService struct {
	db        *gorm.DB
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCleanupService creates a cleanup service. A zero retention keeps
// notifications forever.
func NewCleanupService(db *gorm.DB, interval, retention time.Duration) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		db:        db,
		interval:  interval,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup
func (s *CleanupService) Start() {
	logger.Log.Info("Starting cleanup service", zap.Duration("interval", s.interval))
	go s.run()
}

// Stop stops the cleanup loop and waits for an in-flight sweep
func (s *CleanupService) Stop() {
	s.cancel()
	<-s.done
}

func (s *CleanupService) run() {
	defer close(s.done)

	s.sweepAndLog()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *CleanupService) sweepAndLog() {
	start := time.Now()
	res, err := s.Sweep(s.ctx)
	if err != nil {
		if s.ctx.Err() == nil {
			logger.ErrorWithFields("Cleanup sweep failed", err)
		}
		return
	}
	logger.Log.Info("Cleanup sweep complete",
		zap.Int64("password_resets", res.PasswordResets),
		zap.Int64("unlocked_users", res.UnlockedUsers),
		zap.Int64("otp_unblocked", res.OTPUnblocked),
		zap.Int64("otp_expired", res.OTPExpired),
		zap.Int64("notifications", res.OldNotifications),
		logger.WithDuration(time.Since(start)))
}

// Sweep runs every cleanup step once
func (s *CleanupService) Sweep(ctx context.Context) (*Result, error) {
	now := s.now()
	db := s.db.WithContext(ctx)
	res := &Result{}

	// Used or expired reset tokens can never be redeemed
	tx := db.Where("used = ? OR expires_at < ?", true, now).Delete(&models.PasswordReset{})
	if tx.Error != nil {
		return nil, tx.Error
	}
	res.PasswordResets = tx.RowsAffected

	tx = db.Model(&models.User{}).
		Where("is_locked = ? AND lock_until IS NOT NULL AND lock_until < ?", true, now).
		Updates(map[string]interface{}{"is_locked": false, "login_attempts": 0, "lock_until": nil})
	if tx.Error != nil {
		return nil, tx.Error
	}
	res.UnlockedUsers = tx.RowsAffected

	tx = db.Model(&models.User{}).
		Where("otp_blocked_until IS NOT NULL AND otp_blocked_until < ?", now).
		Updates(map[string]interface{}{"otp_blocked_until": nil, "otp_requests": 0})
	if tx.Error != nil {
		return nil, tx.Error
	}
	res.OTPUnblocked = tx.RowsAffected

	// Verified accounts keep no reason to hold a dead code hash
	tx = db.Model(&models.User{}).
		Where("is_verified = ? AND otp_hash IS NOT NULL AND otp_expires_at < ?", true, now).
		Updates(map[string]interface{}{"otp_hash": nil, "otp_expires_at": nil})
	if tx.Error != nil {
		return nil, tx.Error
	}
	res.OTPExpired = tx.RowsAffected

	if s.retention > 0 {
		tx = db.Where("read = ? AND created_at < ?", true, now.Add(-s.retention)).Delete(&models.Notification{})
		if tx.Error != nil {
			return nil, tx.Error
		}
		res.OldNotifications = tx.RowsAffected
	}

	m := metrics.Get()
	m.CleanupRowsTotal.WithLabelValues("password_resets").Add(float64(res.PasswordResets))
	m.CleanupRowsTotal.WithLabelValues("unlocked_users").Add(float64(res.UnlockedUsers))
	m.CleanupRowsTotal.WithLabelValues("otp_unblocked").Add(float64(res.OTPUnblocked))
	m.CleanupRowsTotal.WithLabelValues("otp_expired").Add(float64(res.OTPExpired))
	m.CleanupRowsTotal.WithLabelValues("notifications").Add(float64(res.OldNotifications))
	return res, nil
}
