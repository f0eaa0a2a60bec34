package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
	"sweetshop/internal/service"
)

var errInvalidQuery = errors.New("invalid query parameter")

// SweetHandler handles inventory endpoints.
type SweetHandler struct {
	inventory service.InventoryService
}

// NewSweetHandler creates a new sweet handler.
func NewSweetHandler(inventory service.InventoryService) *SweetHandler {
	return &SweetHandler{inventory: inventory}
}

// CreateSweetRequest represents a new inventory line. Zero is a valid price and quantity.
type CreateSweetRequest struct {
	Name     string   `json:"name" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Price    *float64 `json:"price" validate:"required,gte=0"`
	Quantity *int     `json:"quantity" validate:"required,gte=0"`
}

// UpdateSweetRequest is a partial update; omitted fields are left unchanged.
type UpdateSweetRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
}

// RestockRequest represents a restock request.
type RestockRequest struct {
	Amount int `json:"amount"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// Create godoc
// @Summary Add a sweet
// @Tags sweets
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body CreateSweetRequest true "Sweet"
// @Success 201 {object} model.Sweet
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	var req CreateSweetRequest
	if err := c.Bind(&req); err != nil {
		return invalidSweet(errInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.ErrInvalidSweet
	}

	sweet, err := h.inventory.Add(c.Request().Context(), service.SweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sweet)
}

// List godoc
// @Summary List all sweets
// @Tags sweets
// @Produce json
// @Security TokenAuth
// @Success 200 {array} model.Sweet
// @Failure 401 {object} errors.ErrorResponse
// @Router /sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	sweets, err := h.inventory.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweets)
}

// Search godoc
// @Summary Search sweets
// @Description All given criteria must match. name and category are case-insensitive substrings; price bounds are inclusive.
// @Tags sweets
// @Produce json
// @Security TokenAuth
// @Param name query string false "Name contains"
// @Param category query string false "Category contains"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Success 200 {array} model.Sweet
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	filter, err := bindFilter(c)
	if err != nil {
		return invalidSweet(errInvalidQuery)
	}

	sweets, err := h.inventory.Search(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweets)
}

// Get godoc
// @Summary Get a sweet
// @Tags sweets
// @Produce json
// @Security TokenAuth
// @Param id path string true "Sweet ID"
// @Success 200 {object} model.Sweet
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sweets/{id} [get]
func (h *SweetHandler) Get(c echo.Context) error {
	sweet, err := h.inventory.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Update godoc
// @Summary Update a sweet
// @Tags sweets
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Sweet ID"
// @Param request body UpdateSweetRequest true "Fields to change"
// @Success 200 {object} model.Sweet
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	id, err := service.ParseSweetID(c.Param("id"))
	if err != nil {
		return err
	}

	var req UpdateSweetRequest
	if err := c.Bind(&req); err != nil {
		return invalidSweet(errInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.ErrInvalidSweet
	}

	sweet, err := h.inventory.Update(c.Request().Context(), id, model.SweetPatch{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Delete godoc
// @Summary Delete a sweet
// @Tags sweets
// @Produce json
// @Security TokenAuth
// @Param id path string true "Sweet ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	if err := h.inventory.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Sweet removed"})
}

// Purchase godoc
// @Summary Purchase one unit
// @Tags inventory
// @Produce json
// @Security TokenAuth
// @Param id path string true "Sweet ID"
// @Success 200 {object} model.Sweet
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sweets/{id}/purchase [post]
func (h *SweetHandler) Purchase(c echo.Context) error {
	sweet, err := h.inventory.Purchase(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Restock godoc
// @Summary Restock a sweet
// @Tags inventory
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Sweet ID"
// @Param request body RestockRequest true "Units to add"
// @Success 200 {object} model.Sweet
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /sweets/{id}/restock [post]
func (h *SweetHandler) Restock(c echo.Context) error {
	id, err := service.ParseSweetID(c.Param("id"))
	if err != nil {
		return err
	}

	var req RestockRequest
	if err := c.Bind(&req); err != nil {
		return invalidSweet(errInvalidBody)
	}

	sweet, err := h.inventory.Restock(c.Request().Context(), id, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

func bindFilter(c echo.Context) (model.SweetFilter, error) {
	var (
		filter             model.SweetFilter
		minPrice, maxPrice float64
	)
	err := echo.QueryParamsBinder(c).
		String("name", &filter.Name).
		String("category", &filter.Category).
		Float64("minPrice", &minPrice).
		Float64("maxPrice", &maxPrice).
		BindError()
	if err != nil {
		return filter, err
	}

	if c.QueryParam("minPrice") != "" {
		filter.MinPrice = &minPrice
	}
	if c.QueryParam("maxPrice") != "" {
		filter.MaxPrice = &maxPrice
	}
	return filter, nil
}
