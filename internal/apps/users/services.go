package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/apps/applications"
	"github.com/scholartrack/backend/internal/apps/documents"
	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/blob"
	"github.com/scholartrack/backend/internal/models"
)

var (
	ErrUserNotFound     = errors.New("utilisateur non trouvé")
	ErrEmailTaken       = errors.New("un compte avec cet email existe déjà")
	ErrMissingFields    = errors.New("email, nom et mot de passe sont requis")
	ErrPasswordTooShort = errors.New("le mot de passe doit contenir au moins 6 caractères")
	ErrInvalidRole      = errors.New("rôle invalide")
	ErrCannotDeleteSelf = errors.New("impossible de supprimer votre propre compte")
)

type UserService struct {
	db    *gorm.DB
	blobs blob.Store
}

func NewUserService(db *gorm.DB, blobs blob.Store) *UserService {
	return &UserService{db: db, blobs: blobs}
}

func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Create(req CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < 6 {
		return nil, ErrPasswordTooShort
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrInvalidRole
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
		Role:     role,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *UserService) Update(id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		var existing models.User
		if err := s.db.Where("email = ? AND id <> ?", email, id).First(&existing).Error; err == nil {
			return nil, ErrEmailTaken
		}
		user.Email = email
	}
	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Role != nil && *req.Role != "" {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			return nil, ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 6 {
			return nil, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hash)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete removes the account and cascades to its applications and document
// rows in one transaction. Orphaned blobs are removed best-effort after
// commit; a failed blob delete is logged, not rolled back.
func (s *UserService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if p.UserID == id {
		return ErrCannotDeleteSelf
	}

	user, err := s.Get(id)
	if err != nil {
		return err
	}

	var orphanedBlobs []uuid.UUID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := applications.DeleteAllForUser(tx, id); err != nil {
			return err
		}

		fileIDs, err := documents.DeleteAllForUser(tx, id)
		if err != nil {
			return err
		}
		orphanedBlobs = fileIDs

		return tx.Delete(user).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for _, fileID := range orphanedBlobs {
		if err := s.blobs.Delete(ctx, fileID.String()); err != nil {
			slog.Error("failed to delete blob during account cascade", "error", err, "file_id", fileID.String())
		}
	}

	return nil
}
