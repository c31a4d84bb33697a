package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/config"
	"github.com/scholartrack/backend/internal/dto"
	"github.com/scholartrack/backend/internal/models"
)

type sentMail struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// fakeMailer records outgoing mail instead of sending it.
type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, htmlBody, textBody string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB, *fakeMailer) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	cfg := &config.Config{
		JWTSecret: "test-secret",
		JWTExpiry: time.Hour,
		BaseURL:   "http://localhost:3000",
	}
	mailer := &fakeMailer{}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	return NewAuthService(db, cfg, tokens, mailer), db, mailer
}

func TestRegister(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{
		Email:    "  Alice@Example.COM ",
		Name:     "Alice",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.NotEmpty(t, resp.Token)

	var saved models.User
	require.NoError(t, db.First(&saved, "email = ?", "alice@example.com").Error)
	assert.NotEqual(t, "secret123", saved.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("secret123")))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "", Password: "secret123"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "A", Password: "12345"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Email: "ALICE@example.com", Name: "Alice Again", Password: "secret456"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	_, err := svc.Register(&dto.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "secret123"})
	require.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{Email: "Alice@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(&dto.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

var resetTokenRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

func requestReset(t *testing.T, svc *AuthService, mailer *fakeMailer, email string) string {
	t.Helper()
	require.NoError(t, svc.RequestPasswordReset(email))
	require.NotEmpty(t, mailer.sent)
	match := resetTokenRe.FindStringSubmatch(mailer.sent[len(mailer.sent)-1].Text)
	require.Len(t, match, 2, "reset mail must carry the raw token")
	return match[1]
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	_, err := svc.Register(&dto.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "secret123"})
	require.NoError(t, err)

	token := requestReset(t, svc, mailer, "alice@example.com")
	require.NoError(t, svc.ResetPassword(token, "newpassword"))

	// Old password no longer works, new one does.
	_, err = svc.Login(&dto.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(&dto.LoginRequest{Email: "alice@example.com", Password: "newpassword"})
	assert.NoError(t, err)

	// The token is consumed on success.
	err = svc.ResetPassword(token, "anotherpassword")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)

	// Same outward result as a known account, and nothing is sent.
	require.NoError(t, svc.RequestPasswordReset("nobody@example.com"))
	assert.Empty(t, mailer.sent)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	svc, db, mailer := newTestAuthService(t)
	_, err := svc.Register(&dto.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "secret123"})
	require.NoError(t, err)

	token := requestReset(t, svc, mailer, "alice@example.com")

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "alice@example.com").
		Update("reset_password_expires", expired).Error)

	err = svc.ResetPassword(token, "newpassword")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestPasswordResetValidation(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	_, err := svc.Register(&dto.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "secret123"})
	require.NoError(t, err)

	token := requestReset(t, svc, mailer, "alice@example.com")

	assert.ErrorIs(t, svc.ResetPassword(token, "short"), ErrPasswordTooShort)
	assert.ErrorIs(t, svc.ResetPassword("", "newpassword"), ErrMissingFields)
	assert.ErrorIs(t, svc.ResetPassword("deadbeef", "newpassword"), ErrResetTokenInvalid)
}
