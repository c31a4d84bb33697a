package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/config"
	"github.com/scholartrack/backend/internal/middleware"
	"github.com/scholartrack/backend/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func signToken(t *testing.T, cfg *config.Config, p auth.Principal) string {
	t.Helper()
	token, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry).Sign(p)
	require.NoError(t, err)
	return token
}

func protectedApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.JWTProtected(cfg), func(c *fiber.Ctx) error {
		p, err := auth.FromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"email": p.Email})
	})
	return app
}

func TestJWTProtectedBearerHeader(t *testing.T) {
	cfg := testConfig()
	app := protectedApp(cfg)
	token := signToken(t, cfg, auth.Principal{UserID: uuid.New(), Email: "user@example.com", Role: "user"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJWTProtectedCookie(t *testing.T) {
	cfg := testConfig()
	app := protectedApp(cfg)
	token := signToken(t, cfg, auth.Principal{UserID: uuid.New(), Email: "user@example.com", Role: "user"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJWTProtectedMissingToken(t *testing.T) {
	app := protectedApp(testConfig())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedInvalidToken(t *testing.T) {
	app := protectedApp(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func adminApp(cfg *config.Config, db *gorm.DB) *fiber.App {
	app := fiber.New()
	app.Get("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestAdminRequiredAllowsAdminClaim(t *testing.T) {
	cfg := testConfig()
	app := adminApp(cfg, testDB(t))
	token := signToken(t, cfg, auth.Principal{UserID: uuid.New(), Email: "admin@example.com", Role: "admin"})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminRequiredRejectsUser(t *testing.T) {
	cfg := testConfig()
	db := testDB(t)
	app := adminApp(cfg, db)

	user := models.User{ID: uuid.New(), Email: "user@example.com", Name: "User", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	token := signToken(t, cfg, auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role})
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRequiredChecksStoredRole(t *testing.T) {
	// A user promoted after login still carries role=user in the token; the
	// middleware must honor the stored role.
	cfg := testConfig()
	db := testDB(t)
	app := adminApp(cfg, db)

	user := models.User{ID: uuid.New(), Email: "promoted@example.com", Name: "Promoted", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&user).Error)

	token := signToken(t, cfg, auth.Principal{UserID: user.ID, Email: user.Email, Role: models.RoleUser})
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
