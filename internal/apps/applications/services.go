package applications

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/dto"
	"github.com/scholartrack/backend/internal/models"
)

var (
	ErrApplicationNotFound = errors.New("candidature non trouvée")
	ErrNotOwner            = errors.New("vous n'êtes pas autorisé à accéder à cette candidature")
	ErrNameRequired        = errors.New("le nom est requis")
	ErrCountryRequired     = errors.New("le pays est requis")
	ErrDeadlineRequired    = errors.New("la date limite est requise")
	ErrInvalidType         = errors.New("type de candidature invalide")
	ErrInvalidStatus       = errors.New("statut invalide")
	ErrInvalidDate         = errors.New("format de date invalide (AAAA-MM-JJ attendu)")
)

const creationNote = "Candidature créée"

type ApplicationService struct {
	db *gorm.DB
}

func NewApplicationService(db *gorm.DB) *ApplicationService {
	return &ApplicationService{db: db}
}

// ListFilters narrows List results; zero values mean no filtering.
type ListFilters struct {
	Status string
	Type   string
}

func (s *ApplicationService) List(p auth.Principal, filters ListFilters) (*ListApplicationsResponse, error) {
	query := s.db.Scopes(auth.OwnedBy(p)).Order("created_at DESC")
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}

	var apps []Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	views := make([]ApplicationView, 0, len(apps))
	if p.IsAdmin() {
		owners, err := s.ownerInfo(apps)
		if err != nil {
			return nil, err
		}
		for _, app := range apps {
			owner := owners[app.UserID]
			views = append(views, ApplicationView{Application: app, User: owner})
		}
	} else {
		for _, app := range apps {
			views = append(views, ApplicationView{Application: app})
		}
	}

	return &ListApplicationsResponse{Applications: views, Total: int64(len(views))}, nil
}

func (s *ApplicationService) Create(p auth.Principal, req CreateApplicationRequest) (*Application, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if req.Country == "" {
		return nil, ErrCountryRequired
	}
	if !isValidType(req.Type) {
		return nil, ErrInvalidType
	}

	status := req.Status
	if status == "" {
		status = StatusInProgress
	}
	if !isValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	if req.Deadline == "" {
		return nil, ErrDeadlineRequired
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		return nil, err
	}

	var submitted *time.Time
	if req.SubmittedDate != "" {
		d, err := parseDate(req.SubmittedDate)
		if err != nil {
			return nil, err
		}
		submitted = &d
	}

	history := []StatusHistoryItem{{
		Status: status,
		Date:   time.Now().UTC(),
		Note:   creationNote,
	}}

	checklist := req.Documents
	if checklist == nil {
		checklist = []DocumentItem{}
	}

	app := Application{
		ID:             uuid.New(),
		UserID:         p.UserID,
		Name:           req.Name,
		Type:           req.Type,
		Program:        req.Program,
		Country:        req.Country,
		City:           req.City,
		Deadline:       deadline,
		Status:         status,
		SubmittedDate:  submitted,
		Amount:         req.Amount,
		ApplicationFee: req.ApplicationFee,
		Website:        req.Website,
		Notes:          req.Notes,
		Documents:      mustJSON(checklist),
		StatusHistory:  mustJSON(history),
	}

	if err := s.db.Create(&app).Error; err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &app, nil
}

func (s *ApplicationService) Get(p auth.Principal, id uuid.UUID) (*ApplicationView, error) {
	app, err := s.fetch(p, id)
	if err != nil {
		return nil, err
	}

	view := &ApplicationView{Application: *app}
	if p.IsAdmin() {
		owners, err := s.ownerInfo([]Application{*app})
		if err != nil {
			return nil, err
		}
		view.User = owners[app.UserID]
	}

	return view, nil
}

// Update overwrites the provided fields. When the status changes, exactly one
// history entry is appended here; the client cannot supply history directly.
func (s *ApplicationService) Update(p auth.Principal, id uuid.UUID, req UpdateApplicationRequest) (*Application, error) {
	app, err := s.fetch(p, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, ErrNameRequired
		}
		app.Name = *req.Name
	}
	if req.Type != nil {
		if !isValidType(*req.Type) {
			return nil, ErrInvalidType
		}
		app.Type = *req.Type
	}
	if req.Program != nil {
		app.Program = *req.Program
	}
	if req.Country != nil {
		if *req.Country == "" {
			return nil, ErrCountryRequired
		}
		app.Country = *req.Country
	}
	if req.City != nil {
		app.City = *req.City
	}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			return nil, err
		}
		app.Deadline = deadline
	}
	if req.SubmittedDate != nil {
		if *req.SubmittedDate == "" {
			app.SubmittedDate = nil
		} else {
			d, err := parseDate(*req.SubmittedDate)
			if err != nil {
				return nil, err
			}
			app.SubmittedDate = &d
		}
	}
	if req.Amount != nil {
		app.Amount = req.Amount
	}
	if req.ApplicationFee != nil {
		app.ApplicationFee = req.ApplicationFee
	}
	if req.Website != nil {
		app.Website = *req.Website
	}
	if req.Notes != nil {
		app.Notes = *req.Notes
	}
	if req.Documents != nil {
		app.Documents = mustJSON(*req.Documents)
	}

	if req.Status != nil && *req.Status != app.Status {
		if !isValidStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}

		history, err := decodeHistory(app.StatusHistory)
		if err != nil {
			return nil, err
		}
		history = append(history, StatusHistoryItem{
			Status: *req.Status,
			Date:   time.Now().UTC(),
			Note:   req.StatusNote,
		})

		app.Status = *req.Status
		app.StatusHistory = mustJSON(history)
	}

	if err := s.db.Save(app).Error; err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	return app, nil
}

func (s *ApplicationService) Delete(p auth.Principal, id uuid.UUID) error {
	app, err := s.fetch(p, id)
	if err != nil {
		return err
	}

	return s.db.Delete(app).Error
}

// DeleteAllForUser removes every application owned by userID. Runs inside
// the caller's transaction during account cascade delete.
func DeleteAllForUser(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Where("user_id = ?", userID).Delete(&Application{}).Error
}

func (s *ApplicationService) fetch(p auth.Principal, id uuid.UUID) (*Application, error) {
	var app Application
	if err := s.db.First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	if !p.CanAccess(app.UserID) {
		return nil, ErrNotOwner
	}

	return &app, nil
}

func (s *ApplicationService) ownerInfo(apps []Application) (map[uuid.UUID]*dto.OwnerInfo, error) {
	ids := make([]uuid.UUID, 0, len(apps))
	seen := make(map[uuid.UUID]bool, len(apps))
	for _, app := range apps {
		if !seen[app.UserID] {
			seen[app.UserID] = true
			ids = append(ids, app.UserID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*dto.OwnerInfo{}, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load application owners: %w", err)
	}

	owners := make(map[uuid.UUID]*dto.OwnerInfo, len(users))
	for _, u := range users {
		owners[u.ID] = &dto.OwnerInfo{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return owners, nil
}

// History decodes the status history of an application.
func (a *Application) History() ([]StatusHistoryItem, error) {
	return decodeHistory(a.StatusHistory)
}

// Checklist decodes the embedded document checklist.
func (a *Application) Checklist() ([]DocumentItem, error) {
	if len(a.Documents) == 0 {
		return []DocumentItem{}, nil
	}
	var items []DocumentItem
	if err := json.Unmarshal(a.Documents, &items); err != nil {
		return nil, fmt.Errorf("corrupt document checklist: %w", err)
	}
	return items, nil
}

func decodeHistory(raw datatypes.JSON) ([]StatusHistoryItem, error) {
	if len(raw) == 0 {
		return []StatusHistoryItem{}, nil
	}
	var history []StatusHistoryItem
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("corrupt status history: %w", err)
	}
	return history, nil
}

func mustJSON(v interface{}) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		// Also accept full timestamps from older clients.
		d, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
	}
	return d, nil
}

func isValidType(t string) bool {
	for _, valid := range Types {
		if t == valid {
			return true
		}
	}
	return false
}

func isValidStatus(s string) bool {
	for _, valid := range Statuses {
		if s == valid {
			return true
		}
	}
	return false
}
