package payments

import (
	"context"
	"errors"
	"time"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/models/scopes"
	"github.com/gawwe-id/oknum/src/types"
	"gorm.io/gorm"
)

// Store is the persistence the payment service needs.
type Store interface {
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	GetPaymentWithBooking(ctx context.Context, id string) (*models.Payment, error)
	MarkInitiated(ctx context.Context, id string, updates map[string]any) (bool, error)
	ApplyCallback(ctx context.Context, p *models.Payment, updates map[string]any) (bool, error)
	LogCallback(ctx context.Context, entry *models.PaymentCallbackLog) error
	ExpireStale(ctx context.Context, pendingBefore time.Time, processingBefore time.Time) (int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Scopes(scopes.WithID(id)).
		First(&payment).
		Error
	if err != nil {
		return nil, apperr.FromDB(err, "payment")
	}
	return &payment, nil
}

func (s *GormStore) GetPaymentWithBooking(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Scopes(scopes.WithID(id)).
		Preload("Booking").
		Preload("Booking.Class").
		First(&payment).
		Error
	if err != nil {
		return nil, apperr.FromDB(err, "payment")
	}
	if payment.Booking == nil {
		return nil, apperr.E(apperr.ErrNotFound, "booking not found")
	}
	return &payment, nil
}

// MarkInitiated writes the inquiry result while the payment is still pending.
func (s *GormStore) MarkInitiated(ctx context.Context, id string, updates map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Scopes(scopes.WithPendingStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ApplyCallback writes a callback result unless the payment has reached a
// terminal status in the meantime. A success also confirms the booking.
func (s *GormStore) ApplyCallback(ctx context.Context, p *models.Payment, updates map[string]any) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Payment{}).
			Where("id = ?", p.ID).
			Scopes(scopes.NonTerminalPayment).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		if updates["status"] != types.PAYMENT_SUCCESS {
			return nil
		}
		return tx.
			Model(&models.Booking{}).
			Where("id = ?", p.BookingID).
			Scopes(scopes.WithPendingStatus).
			Update("status", types.BOOKING_CONFIRMED).
			Error
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *GormStore) LogCallback(ctx context.Context, entry *models.PaymentCallbackLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ExpireStale expires pending payments created before pendingBefore and
// processing payments whose gateway window ended before processingBefore.
func (s *GormStore) ExpireStale(ctx context.Context, pendingBefore time.Time, processingBefore time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where(s.db.
			Where("status = ? AND created_at < ?", types.PAYMENT_PENDING, pendingBefore).
			Or("status = ? AND expires_at < ?", types.PAYMENT_PROCESSING, processingBefore)).
		Updates(map[string]any{
			"status":         types.PAYMENT_EXPIRED,
			"status_message": "Payment expired",
		})
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
