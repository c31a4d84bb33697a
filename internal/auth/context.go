package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// FromContext extracts the principal from the JWT placed in Fiber locals by
// the auth middleware.
func FromContext(c *fiber.Ctx) (Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	return principalFromClaims(claims)
}

// OwnedBy returns a GORM scope restricting a query to the principal's own
// rows. Admins see everything.
func OwnedBy(p Principal) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.IsAdmin() {
			return db
		}
		return db.Where("user_id = ?", p.UserID)
	}
}
