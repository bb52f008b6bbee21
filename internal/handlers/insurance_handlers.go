package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// InsuranceHandler manages insurance plans and their coverage rules
type InsuranceHandler struct {
	db *gorm.DB
}

func NewInsuranceHandler(db *gorm.DB) *InsuranceHandler {
	return &InsuranceHandler{db: db}
}

func (h *InsuranceHandler) ListPlans(c echo.Context) error {
	query := h.db.Model(&models.InsurancePlan{})
	if c.QueryParam("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var plans []models.InsurancePlan
	if err := query.Order("insurer_name asc, plan_name asc").Find(&plans).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

func (h *InsuranceHandler) GetPlan(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	var plan models.InsurancePlan
	if err := h.db.Preload("CoverageRules.ServiceItem").First(&plan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "insurance plan", Key: c.Param("id")}
		}
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *InsuranceHandler) CreatePlan(c echo.Context) error {
	var req InsurancePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	plan := models.InsurancePlan{
		InsurerName: req.InsurerName,
		PlanName:    req.PlanName,
		IsActive:    true,
		Notes:       req.Notes,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.db.Create(&plan).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *InsuranceHandler) UpdatePlan(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	var plan models.InsurancePlan
	if err := h.db.First(&plan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "insurance plan", Key: c.Param("id")}
		}
		return err
	}

	var req InsurancePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	plan.InsurerName = req.InsurerName
	plan.PlanName = req.PlanName
	plan.Notes = req.Notes
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.db.Save(&plan).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *InsuranceHandler) ListCoverageRules(c echo.Context) error {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	var rules []models.CoverageRule
	if err := h.db.Preload("ServiceItem").
		Where("insurance_plan_id = ?", planID).
		Find(&rules).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// UpsertCoverageRule sets the coverage percentage for one service under a
// plan. Changing a rule never rewrites existing invoice snapshots; it only
// affects invoices created (or explicitly recalculated) afterwards.
func (h *InsuranceHandler) UpsertCoverageRule(c echo.Context) error {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	var req CoverageRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.CoveragePercent.IsNegative() || req.CoveragePercent.GreaterThan(decimal.NewFromInt(100)) {
		return &services.ValidationError{Field: "coverage_percent", Reason: "must be between 0 and 100"}
	}

	var plan models.InsurancePlan
	if err := h.db.First(&plan, planID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "insurance plan", Key: c.Param("id")}
		}
		return err
	}
	var svc models.ServiceItem
	if err := h.db.First(&svc, req.ServiceItemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "service", Key: strconv.Itoa(int(req.ServiceItemID))}
		}
		return err
	}

	rule := models.CoverageRule{
		InsurancePlanID: uint(planID),
		ServiceItemID:   req.ServiceItemID,
		CoveragePercent: req.CoveragePercent,
	}
	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "insurance_plan_id"}, {Name: "service_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"coverage_percent", "updated_at"}),
	}).Create(&rule).Error
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

func (h *InsuranceHandler) DeleteCoverageRule(c echo.Context) error {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}
	ruleID, err := strconv.ParseUint(c.Param("ruleId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}

	result := h.db.Where("insurance_plan_id = ?", planID).Delete(&models.CoverageRule{}, ruleID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &services.NotFoundError{Resource: "coverage rule", Key: c.Param("ruleId")}
	}
	return c.NoContent(http.StatusNoContent)
}
