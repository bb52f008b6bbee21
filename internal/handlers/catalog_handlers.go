package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// CatalogHandler manages the billable service catalog
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

func (h *CatalogHandler) ListServices(c echo.Context) error {
	query := h.db.Model(&models.ServiceItem{})
	if c.QueryParam("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", like, like)
	}

	var items []models.ServiceItem
	if err := query.Order("code asc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) GetService(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}

	var item models.ServiceItem
	if err := h.db.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "service", Key: c.Param("id")}
		}
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) CreateService(c echo.Context) error {
	var req ServiceItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Price.IsNegative() {
		return &services.ValidationError{Field: "price", Reason: "cannot be negative"}
	}

	item := models.ServiceItem{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateService edits catalog metadata and price. Price changes never touch
// existing invoices; line items keep the price they were created with.
func (h *CatalogHandler) UpdateService(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}

	var item models.ServiceItem
	if err := h.db.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "service", Key: c.Param("id")}
		}
		return err
	}

	var req ServiceItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Price.IsNegative() {
		return &services.ValidationError{Field: "price", Reason: "cannot be negative"}
	}

	item.Code = req.Code
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// DeactivateService retires a service from the catalog without deleting it,
// keeping historical invoices intact
func (h *CatalogHandler) DeactivateService(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}

	result := h.db.Model(&models.ServiceItem{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &services.NotFoundError{Resource: "service", Key: c.Param("id")}
	}
	return c.NoContent(http.StatusNoContent)
}
