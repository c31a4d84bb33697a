package documents

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/blob"
	"github.com/scholartrack/backend/internal/dto"
	"github.com/scholartrack/backend/internal/models"
)

var (
	ErrDocumentNotFound = errors.New("document non trouvé")
	ErrNotOwner         = errors.New("vous n'êtes pas autorisé à accéder à ce document")
	ErrFileMissing      = errors.New("aucun fichier fourni")
	ErrTypeMissing      = errors.New("type de document requis")
	ErrInvalidType      = errors.New("type de document invalide")
	ErrFileTooLarge     = errors.New("fichier trop volumineux (max 10MB)")
)

type DocumentService struct {
	db    *gorm.DB
	blobs blob.Store
}

func NewDocumentService(db *gorm.DB, blobs blob.Store) *DocumentService {
	return &DocumentService{db: db, blobs: blobs}
}

// Upload persists the bytes in the blob store and the metadata row in the
// database. The blob is removed again if the row insert fails.
func (s *DocumentService) Upload(ctx context.Context, p auth.Principal, data []byte, originalName, mimeType string, meta UploadMeta) (*Document, error) {
	if len(data) == 0 || originalName == "" {
		return nil, ErrFileMissing
	}
	if meta.Type == "" {
		return nil, ErrTypeMissing
	}
	if !isValidType(meta.Type) {
		return nil, ErrInvalidType
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	fileID := uuid.New()
	storedName, err := generateStoredName(originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate stored name: %w", err)
	}

	if err := s.blobs.Put(ctx, fileID.String(), data, mimeType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := Document{
		ID:            uuid.New(),
		UserID:        p.UserID,
		ApplicationID: meta.ApplicationID,
		Name:          storedName,
		OriginalName:  originalName,
		Type:          meta.Type,
		MimeType:      mimeType,
		Size:          int64(len(data)),
		FileID:        fileID,
		Description:   meta.Description,
	}

	if err := s.db.Create(&doc).Error; err != nil {
		if delErr := s.blobs.Delete(ctx, fileID.String()); delErr != nil {
			slog.Error("failed to clean up blob after insert failure", "error", delErr, "file_id", fileID.String())
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return &doc, nil
}

// ListFilters narrows List results; zero values mean no filtering.
type ListFilters struct {
	ApplicationID *uuid.UUID
	Type          string
}

func (s *DocumentService) List(p auth.Principal, filters ListFilters) (*ListDocumentsResponse, error) {
	query := s.db.Scopes(auth.OwnedBy(p)).Order("created_at DESC")
	if filters.ApplicationID != nil {
		query = query.Where("application_id = ?", *filters.ApplicationID)
	}
	if filters.Type != "" && filters.Type != TypeFilterAll {
		query = query.Where("type = ?", filters.Type)
	}

	var docs []Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	views := make([]DocumentView, 0, len(docs))
	if p.IsAdmin() {
		owners, err := s.ownerInfo(docs)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			views = append(views, DocumentView{Document: doc, User: owners[doc.UserID]})
		}
	} else {
		for _, doc := range docs {
			views = append(views, DocumentView{Document: doc})
		}
	}

	return &ListDocumentsResponse{Documents: views, Total: int64(len(views))}, nil
}

func (s *DocumentService) Download(ctx context.Context, p auth.Principal, id uuid.UUID) (*FileDownload, error) {
	doc, err := s.fetch(p, id)
	if err != nil {
		return nil, err
	}

	data, err := s.blobs.Get(ctx, doc.FileID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &FileDownload{
		Data:         data,
		MimeType:     doc.MimeType,
		OriginalName: doc.OriginalName,
	}, nil
}

// Delete removes the metadata row, then the blob. A dangling blob after a
// failed blob delete is logged, never surfaced: the row removal decides.
func (s *DocumentService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	doc, err := s.fetch(p, id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(doc).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.blobs.Delete(ctx, doc.FileID.String()); err != nil {
		slog.Error("failed to delete blob", "error", err, "file_id", doc.FileID.String())
	}

	return nil
}

// DeleteAllForUser removes the metadata rows inside the caller's transaction
// and returns the orphaned blob ids for best-effort cleanup after commit.
func DeleteAllForUser(tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var docs []Document
	if err := tx.Where("user_id = ?", userID).Find(&docs).Error; err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	if err := tx.Where("user_id = ?", userID).Delete(&Document{}).Error; err != nil {
		return nil, err
	}

	fileIDs := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		fileIDs = append(fileIDs, doc.FileID)
	}
	return fileIDs, nil
}

func (s *DocumentService) fetch(p auth.Principal, id uuid.UUID) (*Document, error) {
	var doc Document
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	if !p.CanAccess(doc.UserID) {
		return nil, ErrNotOwner
	}

	return &doc, nil
}

func (s *DocumentService) ownerInfo(docs []Document) (map[uuid.UUID]*dto.OwnerInfo, error) {
	ids := make([]uuid.UUID, 0, len(docs))
	seen := make(map[uuid.UUID]bool, len(docs))
	for _, doc := range docs {
		if !seen[doc.UserID] {
			seen[doc.UserID] = true
			ids = append(ids, doc.UserID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*dto.OwnerInfo{}, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load document owners: %w", err)
	}

	owners := make(map[uuid.UUID]*dto.OwnerInfo, len(users))
	for _, u := range users {
		owners[u.ID] = &dto.OwnerInfo{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return owners, nil
}

// generateStoredName builds a collision-resistant name keeping the original
// extension: <unix millis>-<random hex>.<ext>
func generateStoredName(originalName string) (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(raw), ext), nil
}

func isValidType(t string) bool {
	for _, valid := range Types {
		if t == valid {
			return true
		}
	}
	return false
}
