package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// GatewayHandler covers online payment: staff-initiated gateway sessions, the
// public payment-link endpoints reached by invoice UUID, and the gateway's
// server-to-server notification callback.
type GatewayHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
	midtrans *services.MidtransService
}

func NewGatewayHandler(db *gorm.DB, payments *services.PaymentService, midtrans *services.MidtransService) *GatewayHandler {
	return &GatewayHandler{db: db, payments: payments, midtrans: midtrans}
}

type initiatePaymentRequest struct {
	ForceNew    bool   `json:"force_new"`
	CallbackURL string `json:"callback_url"`
}

// InitiatePayment opens a gateway session for the invoice's remaining balance
func (h *GatewayHandler) InitiatePayment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var req initiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	invoice, err := h.loadInvoice("id = ?", id)
	if err != nil {
		return err
	}

	result, err := h.payments.InitiatePayment(invoice, req.ForceNew, req.CallbackURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// ShowPublicInvoice returns the payable view of an invoice for its public
// payment link. Looked up by UUID so invoice ids are not enumerable.
func (h *GatewayHandler) ShowPublicInvoice(c echo.Context) error {
	invoice, err := h.loadInvoice("uuid = ?", c.Param("uuid"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"number":         invoice.Number,
		"patient_name":   invoice.Patient.FullName(),
		"status":         invoice.Status,
		"total_owed":     invoice.TotalOwed(),
		"paid_amount":    invoice.PaidAmount,
		"pending_amount": invoice.PendingAmount,
		"due_date":       invoice.DueDate,
		"line_items":     invoice.LineItems,
	})
}

// InitiatePublicPayment starts a gateway session from the public payment link
func (h *GatewayHandler) InitiatePublicPayment(c echo.Context) error {
	var req initiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	invoice, err := h.loadInvoice("uuid = ?", c.Param("uuid"))
	if err != nil {
		return err
	}

	result, err := h.payments.InitiatePayment(invoice, req.ForceNew, req.CallbackURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// CheckPublicPaymentStatus re-verifies the gateway session, settling it when
// the gateway reports payment but the callback has not arrived yet
func (h *GatewayHandler) CheckPublicPaymentStatus(c echo.Context) error {
	invoice, err := h.loadInvoice("uuid = ?", c.Param("uuid"))
	if err != nil {
		return err
	}

	if err := h.payments.VerifyPaymentStatus(c.Request().Context(), invoice.ID); err != nil {
		return err
	}

	// Re-read, the verification may have settled the invoice
	refreshed, err := h.loadInvoice("id = ?", invoice.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         refreshed.Status,
		"paid_amount":    refreshed.PaidAmount,
		"pending_amount": refreshed.PendingAmount,
	})
}

type midtransNotification struct {
	TransactionStatus string `json:"transaction_status"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

// MidtransCallback handles the gateway's HTTP notification. Every call is
// archived to the callback history before any processing; settlement is
// idempotent, so gateway retries are safe.
func (h *GatewayHandler) MidtransCallback(c echo.Context) error {
	var notif midtransNotification
	if err := c.Bind(&notif); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification body")
	}

	if !h.midtrans.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	payload, _ := json.Marshal(notif)
	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayMidtrans,
		OrderID:        notif.OrderID,
		Metadata:       payload,
	}
	if err := h.db.Create(&history).Error; err != nil {
		c.Logger().Error(err)
	}

	settle := notif.TransactionStatus == "settlement" ||
		(notif.TransactionStatus == "capture" && notif.FraudStatus == "accept")

	if settle {
		gross, err := decimal.NewFromString(notif.GrossAmount)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid gross amount")
		}
		if err := h.payments.SettleOrder(c.Request().Context(), notif.OrderID, gross, notif.PaymentType); err != nil {
			return err
		}
	} else if notif.TransactionStatus == "deny" || notif.TransactionStatus == "expire" ||
		notif.TransactionStatus == "cancel" || notif.TransactionStatus == "failure" {
		if err := h.db.Model(&models.PaymentSession{}).
			Where("order_id = ?", notif.OrderID).
			Update("is_active", false).Error; err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *GatewayHandler) loadInvoice(cond string, value interface{}) (*models.Invoice, error) {
	var invoice models.Invoice
	err := h.db.Preload("Patient").Preload("LineItems").First(&invoice, cond, value).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &services.NotFoundError{Resource: "invoice", Key: "requested"}
		}
		return nil, err
	}
	return &invoice, nil
}
