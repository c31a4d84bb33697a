package applications

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/dto"
)

type ApplicationHandler struct {
	service *ApplicationService
}

func NewApplicationHandler(service *ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	filters := ListFilters{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	}

	resp, err := h.service.List(p, filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to fetch applications"})
	}

	return c.JSON(resp)
}

func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	var req CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	app, err := h.service.Create(p, req)
	if err != nil {
		if isValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to create application"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"application": app})
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid application id"})
	}

	view, err := h.service.Get(p, id)
	if err != nil {
		return h.mapError(c, err, "failed to fetch application")
	}

	return c.JSON(fiber.Map{"application": view})
}

func (h *ApplicationHandler) Update(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid application id"})
	}

	var req UpdateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	app, err := h.service.Update(p, id, req)
	if err != nil {
		if isValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return h.mapError(c, err, "failed to update application")
	}

	return c.JSON(fiber.Map{"application": app})
}

func (h *ApplicationHandler) Delete(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid application id"})
	}

	if err := h.service.Delete(p, id); err != nil {
		return h.mapError(c, err, "failed to delete application")
	}

	return c.JSON(dto.MessageResponse{Message: "candidature supprimée avec succès"})
}

func (h *ApplicationHandler) mapError(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, ErrApplicationNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if errors.Is(err, ErrNotOwner) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: fallback})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrCountryRequired) ||
		errors.Is(err, ErrDeadlineRequired) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDate)
}
