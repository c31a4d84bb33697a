package documents

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scholartrack/backend/internal/auth"
	"github.com/scholartrack/backend/internal/dto"
)

type DocumentHandler struct {
	service *DocumentService
}

func NewDocumentHandler(service *DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: ErrFileMissing.Error()})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: ErrFileMissing.Error()})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to read upload"})
	}

	meta := UploadMeta{
		Type:        c.FormValue("type"),
		Description: c.FormValue("description"),
	}
	if raw := c.FormValue("applicationId"); raw != "" {
		appID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid application id"})
		}
		meta.ApplicationID = &appID
	}

	doc, err := h.service.Upload(c.Context(), p, data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), meta)
	if err != nil {
		if errors.Is(err, ErrFileMissing) || errors.Is(err, ErrTypeMissing) ||
			errors.Is(err, ErrInvalidType) || errors.Is(err, ErrFileTooLarge) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to upload document"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
}

func (h *DocumentHandler) List(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	filters := ListFilters{Type: c.Query("type")}
	if raw := c.Query("applicationId"); raw != "" {
		appID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid application id"})
		}
		filters.ApplicationID = &appID
	}

	resp, err := h.service.List(p, filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to fetch documents"})
	}

	return c.JSON(resp)
}

func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid document id"})
	}

	download, err := h.service.Download(c.Context(), p, id)
	if err != nil {
		return h.mapError(c, err, "failed to download document")
	}

	c.Set(fiber.HeaderContentType, download.MimeType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`inline; filename="%s"`, url.PathEscape(download.OriginalName)))
	c.Set(fiber.HeaderContentLength, fmt.Sprintf("%d", len(download.Data)))
	return c.Send(download.Data)
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid document id"})
	}

	if err := h.service.Delete(c.Context(), p, id); err != nil {
		return h.mapError(c, err, "failed to delete document")
	}

	return c.JSON(dto.MessageResponse{Message: "document supprimé avec succès"})
}

func (h *DocumentHandler) mapError(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if errors.Is(err, ErrNotOwner) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: fallback})
}
