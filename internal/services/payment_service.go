package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// PaymentService drives online invoice payments through the gateway: snap
// session lifecycle and callback settlement into the billing ledger.
type PaymentService struct {
	db             *gorm.DB
	midtransClient *MidtransService
	billing        *BillingService
	cache          *RedisCache
}

func NewPaymentService(db *gorm.DB, midtransClient *MidtransService, billing *BillingService, cache *RedisCache) *PaymentService {
	return &PaymentService{
		db:             db,
		midtransClient: midtransClient,
		billing:        billing,
		cache:          cache,
	}
}

// CheckActiveSession returns the active gateway session for the invoice, or
// nil when none exists
func (s *PaymentService) CheckActiveSession(invoiceID uint) (*models.PaymentSession, error) {
	var existingSession models.PaymentSession
	err := s.db.Where("invoice_id = ? AND is_active = ?", invoiceID, true).
		Order("created_at desc").First(&existingSession).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // No active session
		}
		return nil, err
	}
	return &existingSession, nil
}

// InitiatePaymentResult holds the result of an initiation attempt
type InitiatePaymentResult struct {
	Token       string
	RedirectURL string
	IsExisting  bool
}

// InitiatePayment starts or resumes a gateway session for the invoice's
// remaining balance. An existing pending session is reused unless forceNew is
// set, in which case it is cancelled at the gateway first.
func (s *PaymentService) InitiatePayment(invoice *models.Invoice, forceNew bool, callbackURL string) (*InitiatePaymentResult, error) {
	if invoice.Status.IsTerminal() {
		return nil, &InvalidStateError{InvoiceNumber: invoice.Number, Status: invoice.Status, Operation: "pay"}
	}
	if invoice.Status == models.InvoiceStatusPaid {
		return nil, fmt.Errorf("payment already made")
	}

	// 1. Check for existing active session
	existingSession, err := s.CheckActiveSession(invoice.ID)
	if err != nil {
		return nil, err
	}

	if existingSession != nil {
		statusResp, err := s.midtransClient.CheckTransaction(existingSession.OrderID)
		if err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				return nil, fmt.Errorf("payment already made")
			case "deny", "expire", "cancel", "failure":
				// Broken session; fall through to create a new one
				existingSession.IsActive = false
				s.db.Save(existingSession)
			default:
				// Still pending at the gateway
				if forceNew {
					s.midtransClient.CancelTransaction(existingSession.OrderID)
					existingSession.IsActive = false
					s.db.Save(existingSession)
				} else {
					var midtransResp snap.Response
					if err := json.Unmarshal(existingSession.ResponseMetadata, &midtransResp); err == nil {
						return &InitiatePaymentResult{
							Token:       midtransResp.Token,
							RedirectURL: midtransResp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// If unmarshal fails, treat as broken
					existingSession.IsActive = false
					s.db.Save(existingSession)
				}
			}
		} else {
			// Check failed, assume session is invalid locally
			existingSession.IsActive = false
			s.db.Save(existingSession)
		}
	}

	// 2. Create new transaction for the remaining balance
	amount := gatewayChargeAmount(invoice.PendingAmount)
	orderID := fmt.Sprintf("invoice-%d-%d", invoice.ID, time.Now().Unix())

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: invoice.Patient.FullName(),
			Email: invoice.Patient.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    invoice.Number,
				Name:  fmt.Sprintf("Clinic invoice %s", invoice.Number),
				Price: amount,
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.midtransClient.CreateTransaction(orderID, amount, req)
	if err != nil {
		return nil, err
	}

	// 3. Create session record
	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	session := models.PaymentSession{
		InvoiceID:        invoice.ID,
		PatientID:        invoice.PatientID,
		PaymentGateway:   models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		IsActive:         true,
		RequestMetadata:  reqBytes,
		ResponseMetadata: respBytes,
	}
	s.db.Create(&session)

	return &InitiatePaymentResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		IsExisting:  false,
	}, nil
}

// gatewayChargeAmount converts the remaining balance to the whole-unit
// amount the gateway accepts. Rounded up, never down: the settled charge must
// cover the full balance or the invoice would stay PARTIAL with a residue the
// gateway path can never clear. The sub-unit overpayment is absorbed by the
// ledger recompute.
func gatewayChargeAmount(pending decimal.Decimal) int64 {
	return pending.Ceil().IntPart()
}

// InvoiceIDFromOrderID parses the invoice id out of a gateway order id of the
// form invoice-{id}-{timestamp}
func InvoiceIDFromOrderID(orderID string) (uint, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) < 3 || parts[0] != "invoice" {
		return 0, &ValidationError{Field: "order_id", Reason: "has an unexpected format"}
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, &ValidationError{Field: "order_id", Reason: "has an invalid invoice id"}
	}
	return uint(id), nil
}

// SettleOrder records a settled gateway transaction as a payment on the
// invoice. A short Redis lock keyed by invoice id keeps a late duplicate
// callback from racing a manual payment; losing the lock surfaces as a
// ConcurrencyConflictError which is retried a bounded number of times.
func (s *PaymentService) SettleOrder(ctx context.Context, orderID string, grossAmount decimal.Decimal, channel string) error {
	invoiceID, err := InvoiceIDFromOrderID(orderID)
	if err != nil {
		return err
	}

	return withConflictRetry(func() error {
		if s.cache != nil {
			lockKey := fmt.Sprintf("lock:invoice:%d", invoiceID)
			acquired, err := s.cache.SetNX(ctx, lockKey, orderID, 10*time.Second)
			if err == nil && !acquired {
				return &ConcurrencyConflictError{InvoiceNumber: fmt.Sprint(invoiceID)}
			}
			if err == nil {
				defer s.cache.Delete(ctx, lockKey)
			}
		}

		// Idempotent settle: a callback retry for an already-recorded order
		// must not create a second payment.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Payment{}).
			Where("invoice_id = ? AND reference = ?", invoiceID, orderID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		_, err := s.billing.RecordPayment(ctx, invoiceID, RecordPaymentInput{
			Amount:    grossAmount,
			Method:    models.PaymentMethodGateway,
			Reference: orderID,
			Notes:     fmt.Sprintf("midtrans %s", channel),
		})
		if err != nil {
			return err
		}

		// Deactivate the session for this order
		return s.db.WithContext(ctx).Model(&models.PaymentSession{}).
			Where("order_id = ?", orderID).
			Update("is_active", false).Error
	})
}

// VerifyPaymentStatus re-checks the active session at the gateway and settles
// it locally when the gateway reports settlement but the callback was missed
func (s *PaymentService) VerifyPaymentStatus(ctx context.Context, invoiceID uint) error {
	session, err := s.CheckActiveSession(invoiceID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	statusResp, err := s.midtransClient.CheckTransaction(session.OrderID)
	if err != nil {
		return err
	}

	switch statusResp.TransactionStatus {
	case "settlement", "capture":
		gross, err := decimal.NewFromString(statusResp.GrossAmount)
		if err != nil {
			return fmt.Errorf("gateway returned unparsable gross amount %q: %w", statusResp.GrossAmount, err)
		}
		return s.SettleOrder(ctx, session.OrderID, gross, statusResp.PaymentType)
	case "deny", "expire", "cancel", "failure":
		session.IsActive = false
		return s.db.WithContext(ctx).Save(session).Error
	}
	return nil
}
