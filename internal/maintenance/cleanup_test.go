package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/testutil"
	"gorm.io/gorm"
)

type CleanupSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *CleanupService
	now time.Time
}

func TestCleanupSuite(t *testing.T) {
	suite.Run(t, new(CleanupSuite))
}

func (s *CleanupSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.svc = NewCleanupService(s.db, time.Hour, 30*24*time.Hour)
	s.svc.now = func() time.Time { return s.now }
}

func (s *CleanupSuite) at(d time.Duration) *time.Time {
	t := s.now.Add(d)
	return &t
}

func (s *CleanupSuite) reload(id string) *models.User {
	var u models.User
	s.Require().NoError(s.db.First(&u, "id = ?", id).Error)
	return &u
}

func (s *CleanupSuite) TestPasswordResetsPurged() {
	user := testutil.CreateUser(s.T(), s.db, "alice")
	resets := []models.PasswordReset{
		{UserID: user.ID, TokenHash: "expired", ExpiresAt: s.now.Add(-time.Minute)},
		{UserID: user.ID, TokenHash: "used", ExpiresAt: s.now.Add(time.Hour), Used: true},
		{UserID: user.ID, TokenHash: "live", ExpiresAt: s.now.Add(time.Hour)},
	}
	s.Require().NoError(s.db.Create(&resets).Error)

	res, err := s.svc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(2), res.PasswordResets)

	var left []models.PasswordReset
	s.Require().NoError(s.db.Find(&left).Error)
	s.Require().Len(left, 1)
	s.Equal("live", left[0].TokenHash)
}

func (s *CleanupSuite) TestExpiredLocksReleased() {
	expired := testutil.CreateUser(s.T(), s.db, "expired")
	active := testutil.CreateUser(s.T(), s.db, "active")
	s.Require().NoError(s.db.Model(expired).Updates(map[string]interface{}{
		"is_locked": true, "login_attempts": 5, "lock_until": s.at(-time.Minute),
	}).Error)
	s.Require().NoError(s.db.Model(active).Updates(map[string]interface{}{
		"is_locked": true, "login_attempts": 5, "lock_until": s.at(time.Minute),
	}).Error)

	res, err := s.svc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), res.UnlockedUsers)

	u := s.reload(expired.ID)
	s.False(u.IsLocked)
	s.Zero(u.LoginAttempts)
	s.Nil(u.LockUntil)

	u = s.reload(active.ID)
	s.True(u.IsLocked)
	s.Equal(5, u.LoginAttempts)
}

func (s *CleanupSuite) TestOTPStateCleared() {
	blocked := testutil.CreateUser(s.T(), s.db, "blocked")
	stale := testutil.CreateUser(s.T(), s.db, "stale")
	s.Require().NoError(s.db.Model(blocked).Updates(map[string]interface{}{
		"otp_requests": 5, "otp_blocked_until": s.at(-time.Second),
	}).Error)
	s.Require().NoError(s.db.Model(stale).Updates(map[string]interface{}{
		"otp_hash": "hash", "otp_expires_at": s.at(-time.Hour),
	}).Error)

	res, err := s.svc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), res.OTPUnblocked)
	s.Equal(int64(1), res.OTPExpired)

	u := s.reload(blocked.ID)
	s.Nil(u.OTPBlockedUntil)
	s.Zero(u.OTPRequests)

	u = s.reload(stale.ID)
	s.Nil(u.OTPHash)
	s.Nil(u.OTPExpiresAt)
}

func (s *CleanupSuite) TestOldReadNotificationsPruned() {
	alice := testutil.CreateUser(s.T(), s.db, "alice")
	bob := testutil.CreateUser(s.T(), s.db, "bob")
	old := s.now.Add(-60 * 24 * time.Hour)
	notes := []models.Notification{
		{UserID: alice.ID, FromUserID: bob.ID, Type: models.NotificationFollow, Read: true, CreatedAt: old},
		{UserID: alice.ID, FromUserID: bob.ID, Type: models.NotificationLike, Read: false, CreatedAt: old},
		{UserID: alice.ID, FromUserID: bob.ID, Type: models.NotificationLike, Read: true, CreatedAt: s.now},
	}
	s.Require().NoError(s.db.Create(&notes).Error)

	res, err := s.svc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), res.OldNotifications)

	var count int64
	s.Require().NoError(s.db.Model(&models.Notification{}).Count(&count).Error)
	s.Equal(int64(2), count)
}

func (s *CleanupSuite) TestZeroRetentionKeepsNotifications() {
	alice := testutil.CreateUser(s.T(), s.db, "alice")
	bob := testutil.CreateUser(s.T(), s.db, "bob")
	s.Require().NoError(s.db.Create(&models.Notification{
		UserID: alice.ID, FromUserID: bob.ID, Type: models.NotificationFollow, Read: true,
		CreatedAt: s.now.Add(-365 * 24 * time.Hour),
	}).Error)

	svc := NewCleanupService(s.db, time.Hour, 0)
	svc.now = s.svc.now
	res, err := svc.Sweep(context.Background())
	s.Require().NoError(err)
	s.Zero(res.OldNotifications)
}

func (s *CleanupSuite) TestStartStop() {
	s.svc.Start()
	s.svc.Stop()
}
