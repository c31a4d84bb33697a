package documents

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/blob"
)

type DocumentsModule struct {
	blobs blob.Store
}

func New(blobs blob.Store) *DocumentsModule {
	return &DocumentsModule{blobs: blobs}
}

func (m *DocumentsModule) ID() string { return "documents" }

func (m *DocumentsModule) Models() []interface{} {
	return []interface{}{&Document{}}
}

func (m *DocumentsModule) RegisterRoutes(router fiber.Router, db *gorm.DB) {
	svc := NewDocumentService(db, m.blobs)
	handler := NewDocumentHandler(svc)

	router.Get("/documents", handler.List)
	router.Post("/documents", handler.Upload)
	router.Get("/documents/:id/download", handler.Download)
	router.Delete("/documents/:id", handler.Delete)
}
