package notify

import (
	"context"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"gorm.io/gorm"
)

type Store interface {
	// LoadPayment returns the payment with its booking, class, expert,
	// student and schedules loaded.
	LoadPayment(ctx context.Context, id string) (*models.Payment, error)
	SaveNotification(ctx context.Context, n *models.Notification) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LoadPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Preload("Booking").
		Preload("Booking.Class").
		Preload("Booking.Class.Expert").
		Preload("Booking.Student").
		Preload("Booking.Schedules").
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

func (s *GormStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}
