package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// reportCacheTTL keeps dashboard numbers fresh enough while absorbing
// repeated loads
const reportCacheTTL = 60 * time.Second

type ReportHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewReportHandler(db *gorm.DB, cache *services.RedisCache) *ReportHandler {
	return &ReportHandler{db: db, cache: cache}
}

// reportPeriod parses optional from/to query params (YYYY-MM-DD); zero times
// mean unbounded
func reportPeriod(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if s := c.QueryParam("from"); s != "" {
		from, err = time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, &services.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD"}
		}
	}
	if s := c.QueryParam("to"); s != "" {
		to, err = time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, &services.ValidationError{Field: "to", Reason: "must be YYYY-MM-DD"}
		}
		// Inclusive end date
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func (h *ReportHandler) invoicesInPeriod(from, to time.Time, preloadExoneration bool) ([]models.Invoice, error) {
	query := h.db.Model(&models.Invoice{})
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}
	if preloadExoneration {
		query = query.Preload("Exoneration")
	}

	var invoices []models.Invoice
	err := query.Find(&invoices).Error
	return invoices, err
}

type billingOverview struct {
	Outstanding services.OutstandingSummary  `json:"outstanding"`
	Exoneration services.ExonerationSummary  `json:"exoneration"`
	ByStatus    map[models.InvoiceStatus]int `json:"by_status"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// BillingOverview aggregates outstanding balances, waiver totals and status
// counts for the requested period. Cached briefly in Redis keyed by period.
func (h *ReportHandler) BillingOverview(c echo.Context) error {
	from, to, err := reportPeriod(c)
	if err != nil {
		return err
	}

	build := func() (billingOverview, error) {
		invoices, err := h.invoicesInPeriod(from, to, true)
		if err != nil {
			return billingOverview{}, err
		}
		return billingOverview{
			Outstanding: services.SummarizeOutstanding(invoices),
			Exoneration: services.SummarizeExonerations(invoices),
			ByStatus:    services.CountByStatus(invoices),
			GeneratedAt: time.Now(),
		}, nil
	}

	var overview billingOverview
	if h.cache != nil {
		key := fmt.Sprintf("report:overview:%d:%d", from.Unix(), to.Unix())
		overview, err = services.GetOrSet(h.cache, c.Request().Context(), key, reportCacheTTL, build)
	} else {
		overview, err = build()
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}

// ExonerationReport lists individual waivers in the period with the summary,
// so the clinic can reconcile waived revenue against authorizations
func (h *ReportHandler) ExonerationReport(c echo.Context) error {
	from, to, err := reportPeriod(c)
	if err != nil {
		return err
	}

	query := h.db.Model(&models.Exoneration{}).
		Preload("Invoice.Patient").
		Preload("AuthorizedBy")
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}
	if c.QueryParam("pending_print") == "true" {
		query = query.Where("is_printed = ?", false)
	}

	var exonerations []models.Exoneration
	if err := query.Order("created_at desc").Find(&exonerations).Error; err != nil {
		return err
	}

	invoices := make([]models.Invoice, 0, len(exonerations))
	for i := range exonerations {
		invoices = append(invoices, models.Invoice{Exoneration: &exonerations[i]})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary": services.SummarizeExonerations(invoices),
		"items":   exonerations,
	})
}

// RevenueReport sums received payments per method over the period
func (h *ReportHandler) RevenueReport(c echo.Context) error {
	from, to, err := reportPeriod(c)
	if err != nil {
		return err
	}

	type methodRow struct {
		Method models.PaymentMethod `json:"method"`
		Total  string               `json:"total"`
		Count  int64                `json:"count"`
	}

	query := h.db.Model(&models.Payment{}).
		Select("method, SUM(amount) AS total, COUNT(*) AS count").
		Group("method")
	if !from.IsZero() {
		query = query.Where("paid_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("paid_at < ?", to)
	}

	var rows []methodRow
	if err := query.Scan(&rows).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"by_method":    rows,
		"generated_at": time.Now(),
	})
}
