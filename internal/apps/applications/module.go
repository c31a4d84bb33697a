package applications

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ApplicationsModule struct{}

func New() *ApplicationsModule {
	return &ApplicationsModule{}
}

func (m *ApplicationsModule) ID() string { return "applications" }

func (m *ApplicationsModule) Models() []interface{} {
	return []interface{}{&Application{}}
}

func (m *ApplicationsModule) RegisterRoutes(router fiber.Router, db *gorm.DB) {
	svc := NewApplicationService(db)
	handler := NewApplicationHandler(svc)

	router.Get("/applications", handler.List)
	router.Post("/applications", handler.Create)
	router.Get("/applications/:id", handler.Get)
	router.Put("/applications/:id", handler.Update)
	router.Delete("/applications/:id", handler.Delete)
}
