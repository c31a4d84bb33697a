package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/config"
	"github.com/scholartrack/backend/internal/dto"
	"github.com/scholartrack/backend/internal/mail"
	"github.com/scholartrack/backend/internal/models"
)

var (
	ErrEmailTaken         = errors.New("un compte avec cet email existe déjà")
	ErrInvalidCredentials = errors.New("email ou mot de passe invalide")
	ErrMissingFields      = errors.New("tous les champs sont requis")
	ErrPasswordTooShort   = errors.New("le mot de passe doit contenir au moins 6 caractères")
	ErrResetTokenInvalid  = errors.New("token invalide ou expiré")
	ErrUserNotFound       = errors.New("utilisateur non trouvé")
)

// ResetSuccessMessage is returned from the forgot-password endpoint whether
// or not the account exists, so the endpoint cannot be used to enumerate
// registered emails.
const ResetSuccessMessage = "Si un compte existe avec cet email, vous recevrez un lien de réinitialisation."

const resetTokenTTL = time.Hour

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	tokens *auth.TokenService
	mailer mail.Mailer
}

func NewAuthService(db *gorm.DB, cfg *config.Config, tokens *auth.TokenService, mailer mail.Mailer) *AuthService {
	return &AuthService{db: db, cfg: cfg, tokens: tokens, mailer: mailer}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < 6 {
		return nil, ErrPasswordTooShort
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     req.Name,
		Password: string(hash),
		Role:     models.RoleUser,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.respondWithToken(&user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.respondWithToken(&user)
}

func (s *AuthService) Me(userID uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	return &dto.UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}

// RequestPasswordReset stores a hashed single-use token and mails the raw
// one. The caller always gets ResetSuccessMessage back; a failed send is
// logged and swallowed.
func (s *AuthService) RequestPasswordReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingFields
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		// Unknown account: same outward behavior as success.
		return nil
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	tokenHash := hashToken(rawToken)
	expires := time.Now().Add(resetTokenTTL)

	err = s.db.Model(&user).Updates(map[string]interface{}{
		"reset_password_token":   tokenHash,
		"reset_password_expires": expires,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.BaseURL, rawToken)
	html, text := mail.PasswordResetMessage(resetURL, user.Name)
	if err := s.mailer.Send(user.Email, "Réinitialisation de votre mot de passe - Scholar Tracker", html, text); err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID.String())
	}

	return nil
}

// ResetPassword consumes the raw token from the reset link. The stored hash
// is cleared on success, so a token works exactly once.
func (s *AuthService) ResetPassword(rawToken, newPassword string) error {
	if rawToken == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	tokenHash := hashToken(rawToken)

	var user models.User
	err := s.db.Where("reset_password_token = ? AND reset_password_expires > ?", tokenHash, time.Now()).
		First(&user).Error
	if err != nil {
		return ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Model(&user).Updates(map[string]interface{}{
		"password":               string(hash),
		"reset_password_token":   nil,
		"reset_password_expires": nil,
	}).Error
}

func (s *AuthService) respondWithToken(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Sign(auth.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{
		User: dto.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
		Token: token,
	}, nil
}

func generateResetToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
