package users

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/blob"
)

// UsersModule is admin-only: every route is registered on the admin group.
type UsersModule struct {
	blobs blob.Store
}

func New(blobs blob.Store) *UsersModule {
	return &UsersModule{blobs: blobs}
}

func (m *UsersModule) ID() string { return "users" }

func (m *UsersModule) Models() []interface{} {
	// models.User is migrated with the shared models.
	return nil
}

func (m *UsersModule) RegisterRoutes(fiber.Router, *gorm.DB) {}

func (m *UsersModule) RegisterAdminRoutes(router fiber.Router, db *gorm.DB) {
	svc := NewUserService(db, m.blobs)
	handler := NewUserHandler(svc)

	router.Get("/users", handler.List)
	router.Post("/users", handler.Create)
	router.Get("/users/:id", handler.Get)
	router.Put("/users/:id", handler.Update)
	router.Delete("/users/:id", handler.Delete)
}
