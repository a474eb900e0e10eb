// Package payments initiates gateway payments and reconciles gateway
// callbacks against stored payment records.
package payments

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/duitku"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/notify"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
)

// Gateway is the subset of the Duitku client the service calls.
type Gateway interface {
	Configured() bool
	HasApiKey() bool
	NewInquiryRequest(o duitku.Order) duitku.InquiryRequest
	Inquiry(ctx context.Context, req duitku.InquiryRequest) (*duitku.InquiryResponse, error)
	VerifyCallback(cb *duitku.Callback) bool
}

// Notifier runs the post-payment side effects for a successful payment.
type Notifier interface {
	PaymentSucceeded(ctx context.Context, paymentID string) notify.Outcome
}

// settleGrace leaves room for a callback sent just before the gateway
// window closed.
const settleGrace = 15 * time.Minute

type Service struct {
	store    Store
	gateway  Gateway
	notifier Notifier
	expiry   time.Duration
	now      func() time.Time
	dispatch func(func())
	inflight sync.WaitGroup
}

func NewService(store Store, gateway Gateway, notifier Notifier, expiry time.Duration) *Service {
	s := &Service{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		expiry:   expiry,
		now:      time.Now,
	}
	s.dispatch = func(fn func()) {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			fn()
		}()
	}
	return s
}

// Wait blocks until every dispatched post-payment job has finished or ctx
// is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type InitiateRequest struct {
	PaymentID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type InitiateResult struct {
	PaymentURL string              `json:"paymentUrl"`
	Reference  string              `json:"reference"`
	Status     types.PaymentStatus `json:"status"`
}

// Initiate asks the gateway for payment instructions for a pending payment.
// It makes exactly one gateway call and never retries.
func (s *Service) Initiate(ctx context.Context, userID string, staff bool, req InitiateRequest) (*InitiateResult, error) {
	payment, err := s.store.GetPaymentWithBooking(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !staff && payment.Booking.StudentID != userID {
		return nil, apperr.E(apperr.ErrForbidden, "payment does not belong to the current user")
	}
	if payment.Status != types.PAYMENT_PENDING {
		return nil, apperr.Ef(apperr.ErrInvalidState, "payment is already %s", payment.Status)
	}
	if !s.gateway.Configured() {
		log.Printf("[Payments] Gateway credentials missing, cannot initiate %s\n", payment.ID)
		return nil, apperr.E(apperr.ErrConfiguration, "duitku merchant code or api key is not set")
	}

	product := "Class booking " + payment.BookingID
	items := []duitku.ItemDetail{}
	if class := payment.Booking.Class; class != nil {
		product = class.Title
		items = append(items, duitku.ItemDetail{Name: class.Title, Price: payment.Amount, Quantity: 1})
	}
	inquiry := s.gateway.NewInquiryRequest(duitku.Order{
		MerchantOrderID: payment.ID,
		Amount:          payment.Amount,
		PaymentMethod:   payment.PaymentMethod,
		ProductDetails:  product,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		Items:           items,
	})
	res, err := s.gateway.Inquiry(ctx, inquiry)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		log.Printf("[Payments] Inquiry for %s rejected: code=%s message=%s\n", payment.ID, res.StatusCode, res.StatusMessage)
		msg := "Failed to create payment"
		if res.StatusMessage != "" {
			msg = msg + ": " + res.StatusMessage
		}
		return nil, apperr.E(apperr.ErrPaymentInitiationFailed, msg)
	}

	initiatedAt := s.now()
	metadata := mergeMetadata(payment.Metadata, types.JSONB{
		"inquiry":            res.Raw,
		"inquiryRequestedAt": initiatedAt.UTC().Format(time.RFC3339),
	})
	updates := map[string]any{
		"reference":         res.Reference,
		"gateway_reference": res.Reference,
		"payment_url":       nullable(res.PaymentURL),
		"va_number":         nullable(res.VANumber),
		"qr_string":         nullable(res.QRString),
		"status":            types.PAYMENT_PROCESSING,
		"status_message":    res.StatusMessage,
		"metadata":          metadata,
		"expires_at":        initiatedAt.Add(s.expiry),
	}
	ok, err := s.store.MarkInitiated(ctx, payment.ID, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.E(apperr.ErrInvalidState, "payment is no longer pending")
	}
	return &InitiateResult{
		PaymentURL: res.PaymentURL,
		Reference:  res.Reference,
		Status:     types.PAYMENT_PROCESSING,
	}, nil
}

type CallbackResult struct {
	PaymentID string
	Previous  types.PaymentStatus
	Status    types.PaymentStatus
	// Applied is false when the payment was already terminal and the
	// callback changed nothing.
	Applied bool
}

// HandleCallback verifies a gateway callback and reconciles the payment it
// refers to. Errors carry an apperr kind for the HTTP layer.
func (s *Service) HandleCallback(ctx context.Context, cb *duitku.Callback) (*CallbackResult, error) {
	if missing := cb.Missing(); len(missing) > 0 {
		log.Printf("[Duitku] Callback for %q rejected, missing fields: %s\n", cb.MerchantOrderID, strings.Join(missing, ", "))
		return nil, apperr.Ef(apperr.ErrValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !s.gateway.HasApiKey() {
		log.Printf("[Duitku] Callback for %s rejected, DUITKU_API_KEY is not set\n", cb.MerchantOrderID)
		return nil, apperr.E(apperr.ErrConfiguration, "duitku api key is not set")
	}
	receivedAt := s.now()
	if !s.gateway.VerifyCallback(cb) {
		log.Printf("[Duitku] Callback for %s rejected, invalid signature\n", cb.MerchantOrderID)
		return nil, apperr.E(apperr.ErrAuthenticity, "invalid signature")
	}

	payment, err := s.store.GetPayment(ctx, cb.MerchantOrderID)
	if err != nil {
		log.Printf("[Duitku] Callback lookup failed for %s: %s\n", cb.MerchantOrderID, err.Error())
		return nil, err
	}

	amount, err := cb.AmountValue()
	if err != nil || amount != payment.Amount {
		log.Printf("[Duitku] Callback for %s rejected, amount %s does not match %d\n", cb.MerchantOrderID, cb.Amount, payment.Amount)
		s.logCallback(ctx, cb, true, "amount_mismatch", receivedAt)
		return nil, apperr.E(apperr.ErrValidation, "amount mismatch")
	}

	code := cb.Code()
	status := MapResultCode(code)
	result := &CallbackResult{PaymentID: payment.ID, Previous: payment.Status, Status: status}
	if payment.Status.Terminal() {
		log.Printf("[Duitku] Callback for %s ignored, payment already %s (code %s)\n", payment.ID, payment.Status, code)
		s.logCallback(ctx, cb, true, "ignored_terminal", receivedAt)
		result.Status = payment.Status
		return result, nil
	}

	updates := map[string]any{
		"status":            status,
		"reference":         cb.Reference,
		"gateway_reference": cb.Reference,
		"status_message":    statusMessage(status, code),
		"paid_at":           nil,
		"failure_reason":    nil,
		"metadata": mergeMetadata(payment.Metadata, types.JSONB{
			"callback":           cb.Raw,
			"callbackReceivedAt": receivedAt.UTC().Format(time.RFC3339),
		}),
	}
	switch status {
	case types.PAYMENT_SUCCESS:
		updates["paid_at"] = receivedAt
	case types.PAYMENT_FAILED:
		updates["failure_reason"] = failureReason(code)
	}

	applied, err := s.store.ApplyCallback(ctx, payment, updates)
	if err != nil {
		log.Printf("[Duitku] Error updating payment %s: %s\n", payment.ID, err.Error())
		return nil, err
	}
	result.Applied = applied
	if !applied {
		log.Printf("[Duitku] Callback for %s lost a race with another terminal update\n", payment.ID)
		s.logCallback(ctx, cb, true, "ignored_terminal", receivedAt)
		return result, nil
	}
	s.logCallback(ctx, cb, true, string(status), receivedAt)
	log.Printf("[Duitku] Payment %s: %s -> %s\n", payment.ID, payment.Status, status)

	if status == types.PAYMENT_SUCCESS && s.notifier != nil {
		paymentID := payment.ID
		notifyCtx := context.WithoutCancel(ctx)
		s.dispatch(func() {
			outcome := s.notifier.PaymentSucceeded(notifyCtx, paymentID)
			log.Printf("[Notify] Payment %s: %s %s\n", paymentID, outcome.Kind, outcome.Reason)
		})
	}
	return result, nil
}

// ExpireStale marks payments that can no longer complete. Pending payments
// were never sent to the gateway and expire a window after creation.
// Processing payments expire once the gateway's own window, counted from the
// inquiry, plus settleGrace has passed.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.store.ExpireStale(ctx, now.Add(-s.expiry), now.Add(-settleGrace))
	if err != nil {
		log.Printf("[Payments] Error expiring stale payments: %s\n", err.Error())
		return 0, err
	}
	if n > 0 {
		log.Printf("[Payments] Expired %d stale payments\n", n)
	}
	return n, nil
}

func (s *Service) logCallback(ctx context.Context, cb *duitku.Callback, valid bool, outcome string, at time.Time) {
	entry := &models.PaymentCallbackLog{
		ID:             utils.NewID(utils.PREFIX_CALLBACK_LOG),
		PaymentID:      cb.MerchantOrderID,
		Reference:      cb.Reference,
		ResultCode:     cb.Code(),
		Amount:         cb.Amount,
		SignatureValid: valid,
		Outcome:        outcome,
		Payload:        types.JSONB(cb.Raw),
		ReceivedAt:     at,
	}
	if err := s.store.LogCallback(ctx, entry); err != nil {
		log.Printf("[Duitku] Could not record callback for %s: %s\n", cb.MerchantOrderID, err.Error())
	}
}

func mergeMetadata(current types.JSONB, extra types.JSONB) types.JSONB {
	merged := types.JSONB{}
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
