package applications

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/models"
)

func newTestService(t *testing.T) (*ApplicationService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &Application{}))
	return NewApplicationService(db), db
}

func newUser(t *testing.T, db *gorm.DB, role string) auth.Principal {
	t.Helper()
	user := models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.com",
		Name:     "Test User",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func validCreateRequest() CreateApplicationRequest {
	return CreateApplicationRequest{
		Name:     "MIT",
		Type:     TypeUniversity,
		Country:  "USA",
		Deadline: "2026-12-01",
	}
}

func TestCreateSeedsHistory(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	app, err := svc.Create(p, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, app.Status)
	assert.Equal(t, p.UserID, app.UserID)

	history, err := app.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StatusInProgress, history[0].Status)
	assert.Equal(t, "Candidature créée", history[0].Note)

	checklist, err := app.Checklist()
	require.NoError(t, err)
	assert.Empty(t, checklist)
}

func TestCreateValidation(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	tests := []struct {
		name    string
		mutate  func(*CreateApplicationRequest)
		wantErr error
	}{
		{"missing name", func(r *CreateApplicationRequest) { r.Name = "" }, ErrNameRequired},
		{"missing country", func(r *CreateApplicationRequest) { r.Country = "" }, ErrCountryRequired},
		{"missing deadline", func(r *CreateApplicationRequest) { r.Deadline = "" }, ErrDeadlineRequired},
		{"bad deadline", func(r *CreateApplicationRequest) { r.Deadline = "01/12/2026" }, ErrInvalidDate},
		{"bad type", func(r *CreateApplicationRequest) { r.Type = "Stage" }, ErrInvalidType},
		{"bad status", func(r *CreateApplicationRequest) { r.Status = "Perdue" }, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			_, err := svc.Create(p, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	app, err := svc.Create(p, validCreateRequest())
	require.NoError(t, err)

	status := StatusSubmitted
	updated, err := svc.Update(p, app.ID, UpdateApplicationRequest{
		Status:     &status,
		StatusNote: "Dossier envoyé en ligne",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, updated.Status)

	history, err := updated.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, StatusSubmitted, history[1].Status)
	assert.Equal(t, "Dossier envoyé en ligne", history[1].Note)
}

func TestUpdateSameStatusNoHistoryEntry(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	app, err := svc.Create(p, validCreateRequest())
	require.NoError(t, err)

	status := StatusInProgress
	notes := "Contacted the admissions office"
	updated, err := svc.Update(p, app.ID, UpdateApplicationRequest{Status: &status, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	history, err := updated.History()
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpdateInvalidStatus(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	app, err := svc.Create(p, validCreateRequest())
	require.NoError(t, err)

	status := "Perdue"
	_, err = svc.Update(p, app.ID, UpdateApplicationRequest{Status: &status})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOwnership(t *testing.T) {
	svc, db := newTestService(t)
	owner := newUser(t, db, models.RoleUser)
	stranger := newUser(t, db, models.RoleUser)
	admin := newUser(t, db, models.RoleAdmin)

	app, err := svc.Create(owner, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Get(stranger, app.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Update(stranger, app.ID, UpdateApplicationRequest{})
	assert.ErrorIs(t, err, ErrNotOwner)

	assert.ErrorIs(t, svc.Delete(stranger, app.ID), ErrNotOwner)

	// Admins see everything, annotated with the owner.
	view, err := svc.Get(admin, app.ID)
	require.NoError(t, err)
	require.NotNil(t, view.User)
	assert.Equal(t, owner.UserID, view.User.ID)

	// Owners get no annotation.
	view, err = svc.Get(owner, app.ID)
	require.NoError(t, err)
	assert.Nil(t, view.User)
}

func TestGetNotFound(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	_, err := svc.Get(p, uuid.New())
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestListScopesAndFilters(t *testing.T) {
	svc, db := newTestService(t)
	alice := newUser(t, db, models.RoleUser)
	bob := newUser(t, db, models.RoleUser)
	admin := newUser(t, db, models.RoleAdmin)

	_, err := svc.Create(alice, validCreateRequest())
	require.NoError(t, err)

	scholarship := validCreateRequest()
	scholarship.Name = "Erasmus"
	scholarship.Type = TypeScholarship
	scholarship.Status = StatusSubmitted
	_, err = svc.Create(alice, scholarship)
	require.NoError(t, err)

	_, err = svc.Create(bob, validCreateRequest())
	require.NoError(t, err)

	// Each user only sees their own records.
	resp, err := svc.List(alice, ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)

	resp, err = svc.List(bob, ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)

	// Admin sees all of them with owner info.
	resp, err = svc.List(admin, ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	for _, view := range resp.Applications {
		require.NotNil(t, view.User)
	}

	resp, err = svc.List(alice, ListFilters{Type: TypeScholarship})
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.Total)
	assert.Equal(t, "Erasmus", resp.Applications[0].Name)

	resp, err = svc.List(alice, ListFilters{Status: StatusSubmitted})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)
}

func TestDelete(t *testing.T) {
	svc, db := newTestService(t)
	p := newUser(t, db, models.RoleUser)

	app, err := svc.Create(p, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(p, app.ID))

	_, err = svc.Get(p, app.ID)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}
