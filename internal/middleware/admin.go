package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/dto"
	"github.com/scholartrack/backend/internal/models"
	"gorm.io/gorm"
)

// AdminRequired checks the role claim and falls back to the stored user row,
// so a role change takes effect without waiting for token expiry.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.FromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "invalid or expired token",
			})
		}

		if p.IsAdmin() {
			return c.Next()
		}

		var user models.User
		if err := db.First(&user, "id = ?", p.UserID).Error; err == nil && user.IsAdmin() {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: "admin access required",
		})
	}
}
