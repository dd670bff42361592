package handler

import (
	"github.com/labstack/echo/v4"

	"campusaid/internal/usecase"
	"campusaid/pkg/errors"
	"campusaid/pkg/response"
	"campusaid/pkg/utils"
)

const maxPhotoSize = 5 << 20

type HelpRequestHandler struct {
	helpRequestUseCase *usecase.HelpRequestUseCase
}

func NewHelpRequestHandler(helpRequestUseCase *usecase.HelpRequestUseCase) *HelpRequestHandler {
	return &HelpRequestHandler{
		helpRequestUseCase: helpRequestUseCase,
	}
}

type createRequestRequest struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=request question"`
	Title    string `json:"title" validate:"required,min=3,max=120"`
	Body     string `json:"body" validate:"max=4000"`
	Category string `json:"category" validate:"omitempty,max=40"`
}

func (h *HelpRequestHandler) CreateRequest(c echo.Context) error {
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	request, err := h.helpRequestUseCase.CreateRequest(c.Request().Context(), uid, usecase.CreateRequestInput{
		Kind:     req.Kind,
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, request)
}

func (h *HelpRequestHandler) GetRequest(c echo.Context) error {
	request, err := h.helpRequestUseCase.GetRequest(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, request)
}

// ListOpen serves GET /v1/requests?kind=&page=&limit=
func (h *HelpRequestHandler) ListOpen(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	requests, total, err := h.helpRequestUseCase.ListOpen(c.Request().Context(), c.QueryParam("kind"), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, requests, total, pagination.Page, pagination.PageSize)
}

func (h *HelpRequestHandler) ListMine(c echo.Context) error {
	uid := c.Get("uid").(string)

	requests, err := h.helpRequestUseCase.ListMine(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, requests)
}

func (h *HelpRequestHandler) OfferHelp(c echo.Context) error {
	uid := c.Get("uid").(string)

	chat, err := h.helpRequestUseCase.OfferHelp(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *HelpRequestHandler) UploadPhoto(c echo.Context) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return response.Error(c, errors.BadRequest("Photo file is required", err))
	}
	if file.Size > maxPhotoSize {
		return response.Error(c, errors.BadRequest("Photo must be 5MB or smaller", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read uploaded file", err))
	}
	defer src.Close()

	uid := c.Get("uid").(string)
	url, err := h.helpRequestUseCase.UploadPhoto(c.Request().Context(), uid, c.Param("id"), src, file.Header.Get("Content-Type"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}
