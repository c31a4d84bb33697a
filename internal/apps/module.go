package apps

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Module is a self-contained feature area (applications, documents, users).
type Module interface {
	// ID returns the module identifier, used in logs.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts the module's routes on the given Fiber group.
	// The group is already prefixed with /api and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, db *gorm.DB)
}

// AdminModule extends Module with admin-only route registration.
type AdminModule interface {
	Module

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has both JWT and Admin middleware applied.
	RegisterAdminRoutes(router fiber.Router, db *gorm.DB)
}
